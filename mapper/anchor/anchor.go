// Package anchor implements AnchorBuilder (spec §4.3): it expands a
// minimizer sketch into strand-oriented anchors against the shared Index,
// skipping over-frequent minimizers and self/all-vs-all diagonal hits, and
// leaves the result sorted for Chainer.
package anchor

import (
	"sort"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/index"
	"github.com/grailbio/bio/mapper/sketch"
)

// Anchor is a seed match located simultaneously in query and reference
// coordinate space, the named-field equivalent of spec §3's packed (x, y)
// anchor record.
type Anchor struct {
	RevStrand bool  // true when query and reference strands disagree
	RefID     int32
	RefPos    int32
	Span      uint32
	QPos      int32 // forward qpos on forward anchors; RC qpos on reverse anchors
}

// byX orders anchors the way spec §4.3's radix_sort_x does: grouped by
// (RevStrand, RefID), ascending RefPos within a group. Chainer depends on
// this order (spec invariant: "anchors with the same rev_flag and ref_id
// form a sortable stream").
type byX []Anchor

func (a byX) Len() int      { return len(a) }
func (a byX) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a byX) Less(i, j int) bool {
	if a[i].RevStrand != a[j].RevStrand {
		return !a[i].RevStrand && a[j].RevStrand
	}
	if a[i].RefID != a[j].RefID {
		return a[i].RefID < a[j].RefID
	}
	return a[i].RefPos < a[j].RefPos
}

// Options configures AnchorBuilder (spec §4.3 "options
// {mid_occ, max_occ, flags}").
type Options struct {
	MidOcc int // minimizers occurring >= MidOcc times contribute no anchors
	Flags  mapper.Flag
}

// Build expands the minimizer slice mins (already filtered by SeedFilter)
// into a dense, sorted anchor array against idx. qname/qlen identify the
// query for the NoSelf and AVA policies.
func Build(mins []sketch.Minimizer, idx index.Index, qname string, qlen int32, opts Options) []Anchor {
	var out []Anchor
	noSelf := opts.Flags.Has(mapper.NoSelf)
	ava := opts.Flags.Has(mapper.AVA)
	for _, m := range mins {
		hits, n := idx.Lookup(m.Hash)
		if opts.MidOcc > 0 && n >= opts.MidOcc {
			continue
		}
		qposFwd := m.QPos
		span := uint32(m.Span)
		for _, h := range hits {
			targetName := idx.RefName(h.RefID)
			if noSelf && targetName == qname && h.RefPos == qposFwd {
				continue // self-diagonal
			}
			if ava && !(qname < targetName) {
				continue // all-vs-all: map each pair exactly once
			}
			if m.Strand == h.Strand {
				out = append(out, Anchor{
					RevStrand: false,
					RefID:     h.RefID,
					RefPos:    h.RefPos,
					Span:      span,
					QPos:      qposFwd,
				})
			} else {
				out = append(out, Anchor{
					RevStrand: true,
					RefID:     h.RefID,
					RefPos:    h.RefPos,
					Span:      span,
					QPos:      qlen - (qposFwd + 1 - int32(span)) - 1,
				})
			}
		}
	}
	sort.Stable(byX(out))
	return out
}
