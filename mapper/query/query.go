// Package query implements QueryPipeline (spec §4.6): the per-query
// composition of Sketcher → SeedFilter → AnchorBuilder → Chainer →
// ChainPostproc → optional Aligner that BatchPipeline fans a mini-batch of
// queries across.
package query

import (
	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/align"
	"github.com/grailbio/bio/mapper/anchor"
	"github.com/grailbio/bio/mapper/chain"
	"github.com/grailbio/bio/mapper/index"
	"github.com/grailbio/bio/mapper/lcmask"
	"github.com/grailbio/bio/mapper/seed"
	"github.com/grailbio/bio/mapper/sketch"
)

// Pipeline holds the collaborators QueryPipeline composes (spec §6). Index
// and Sketcher are required; LCDetector and Aligner are optional and
// nil-safe. A Pipeline is immutable once built and safe to share across
// worker goroutines, as is mapper.Options.
type Pipeline struct {
	Index      index.Index
	Sketcher   sketch.Sketcher
	LCDetector lcmask.Detector // nil disables low-complexity masking regardless of Options.SdustThres
	Aligner    align.Aligner   // nil disables CIGAR/ExtEnd even when the flags are set
	Options    mapper.Options
}

// Map runs QueryPipeline for one query (spec §4.6) and returns its selected
// mapping records, already ordered by descending chain score. An
// empty/nil slice means "unmapped"; it is the caller's job (mapper/mapout)
// to synthesize an unmapped placeholder record for output formats that
// require one.
func (p *Pipeline) Map(qname string, seq []byte) []mapper.MappingRecord {
	if p.Index == nil || p.Sketcher == nil {
		panic("query: Pipeline requires a non-nil Index and Sketcher")
	}
	mins := p.Sketcher.Sketch(seq, p.Index.W(), p.Index.K(), p.Index.IsHPC())

	var masked []lcmask.Interval
	if p.LCDetector != nil && p.Options.SdustThres > 0 {
		masked = p.LCDetector.Mask(seq, p.Options.SdustThres)
	}
	mins = seed.Filter(mins, masked)

	if maxOcc := p.Index.CalibrateOccurrence(p.Options.MaxOccFrac); maxOcc > 0 {
		mins = dropOverfrequent(mins, p.Index, maxOcc)
	}
	midOcc := p.Index.CalibrateOccurrence(p.Options.MidOccFrac)

	anchors := anchor.Build(mins, p.Index, qname, int32(len(seq)), anchor.Options{
		MidOcc: midOcc,
		Flags:  p.Options.Flags,
	})
	chains := chain.ChainAll(anchors, p.Options)

	ava := p.Options.Flags.Has(mapper.AVA)
	if !ava {
		chains = chain.Postprocess(chains, p.Options)
	}

	type aligned struct {
		c     chain.Chain
		cigar []mapper.CigarOp
		nm    int32
	}

	wantAlign := p.Aligner != nil && p.Options.Flags.Has(mapper.CIGAR|mapper.ExtEnd)
	var surv []aligned
	anyDropped := false
	for _, c := range chains {
		// map.c's alignment gateway (SPEC_FULL.md §3): a chain scoring below
		// MinDPMax is too weak to be worth the aligner's cost and is reported
		// with its DP-derived span/score as is, un-aligned.
		if !wantAlign || c.Score < int32(p.Options.MinDPMax) {
			surv = append(surv, aligned{c: c, nm: -1})
			continue
		}
		cigar, nm, ok := p.Aligner.Align(c, seq, p.Index, p.Options)
		if !ok {
			anyDropped = true
			continue
		}
		surv = append(surv, aligned{c: c, cigar: cigar, nm: nm})
	}

	// Rejecting a chain at the alignment stage can change which chain is
	// the best in its family; re-derive primary/secondary over the
	// survivors (spec §4.6, re-running ChainPostproc after alignment). When
	// nothing was dropped, chains (and so surv) is untouched and every
	// Parent index computed by the first Postprocess pass still points at
	// the right slot in surv.
	if wantAlign && anyDropped && !ava && len(surv) > 0 {
		remaining := make([]chain.Chain, len(surv))
		for i, s := range surv {
			remaining[i] = s.c
		}
		reposted := chain.Postprocess(remaining, p.Options)
		byKey := make(map[chainKey]int, len(surv))
		for i, s := range surv {
			byKey[chainKeyOf(s.c)] = i
		}
		surv2 := make([]aligned, 0, len(reposted))
		for _, rc := range reposted {
			if i, ok := byKey[chainKeyOf(rc)]; ok {
				surv[i].c = rc
				surv2 = append(surv2, surv[i])
			}
		}
		surv = surv2
	}

	out := make([]mapper.MappingRecord, 0, len(surv))
	for _, s := range surv {
		c := s.c
		out = append(out, mapper.MappingRecord{
			RefID:     c.RefID,
			RStart:    c.RStart,
			REnd:      c.REnd,
			QStart:    c.QStart,
			QEnd:      c.QEnd,
			QLen:      int32(len(seq)),
			Strand:    c.Strand,
			Score:     c.Score,
			NAnchors:  int32(len(c.Anchors)),
			Parent:    int32(c.Parent),
			MapQ:      c.MapQ,
			Secondary: c.Secondary,
			CIGAR:     s.cigar,
			NM:        s.nm,
		})
	}
	return out
}

// chainKey identifies a chain across a Postprocess re-run (chain identity
// isn't preserved by slice index once alignment drops members).
type chainKey struct {
	refID, qStart, rStart, score int32
}

func chainKeyOf(c chain.Chain) chainKey {
	return chainKey{refID: c.RefID, qStart: c.QStart, rStart: c.RStart, score: c.Score}
}

func dropOverfrequent(mins []sketch.Minimizer, idx index.Index, maxOcc int) []sketch.Minimizer {
	out := mins[:0]
	for _, m := range mins {
		if _, n := idx.Lookup(m.Hash); n < maxOcc {
			out = append(out, m)
		}
	}
	return out
}
