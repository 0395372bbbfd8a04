package chain

import (
	"math"
	"sort"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/anchor"
)

// ChainAll runs Chainer (spec §4.4) over a dense, x-sorted anchor array
// (anchor.Build's output) and returns every chain clearing min_cnt and
// min_score, across all strand/ref_id groups, sorted by score descending.
// It does not run ChainPostproc; callers needing primary/secondary
// selection call Postprocess on the result.
func ChainAll(anchors []anchor.Anchor, opts mapper.Options) []Chain {
	var out []Chain
	for i := 0; i < len(anchors); {
		j := i + 1
		for j < len(anchors) && anchors[j].RevStrand == anchors[i].RevStrand && anchors[j].RefID == anchors[i].RefID {
			j++
		}
		out = append(out, chainGroup(anchors[i:j], opts)...)
		i = j
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// gapPenalty is spec §4.4's gap_penalty(d).
func gapPenalty(d int32, avgSpan float64) int32 {
	if d == 0 {
		return 0
	}
	return int32(0.01*avgSpan*float64(d) + 0.5*math.Log2(float64(d)))
}

// stepScore is spec §4.4's match_reward for a (j, i) predecessor pair whose
// gap components dr, dq are already known to satisfy the chaining
// constraints.
func stepScore(spanI, spanJ uint32, dr, dq int32) int32 {
	d := dr - dq
	if d < 0 {
		d = -d
	}
	m := dq
	if dr < m {
		m = dr
	}
	if si := int32(spanI); si < m {
		m = si
	}
	return m - gapPenalty(d, (float64(spanI)+float64(spanJ))/2)
}

// chainGroup runs the DP over anchors sharing strand and ref_id, already
// sorted ascending by RefPos (anchor.Build's byX order).
func chainGroup(group []anchor.Anchor, opts mapper.Options) []Chain {
	n := len(group)
	if n == 0 {
		return nil
	}
	f := make([]int32, n)
	p := make([]int, n)
	for i := range p {
		p[i] = -1
	}
	maxGap := int32(opts.MaxGap)
	bw := int32(opts.Bw)
	maxSkip := opts.MaxChainSkip
	if maxSkip <= 0 {
		maxSkip = 1
	}

	for i := 0; i < n; i++ {
		f[i] = int32(group[i].Span)
		failed := 0
		for j := i - 1; j >= 0; j-- {
			dr := group[i].RefPos - group[j].RefPos
			if dr > maxGap {
				// RefPos is ascending within the group, so smaller j only
				// widens dr further: no more candidates can qualify.
				break
			}
			dq := group[i].QPos - group[j].QPos
			if dq <= 0 || dq > maxGap || dr <= 0 {
				failed++
				if failed >= maxSkip {
					break
				}
				continue
			}
			d := dr - dq
			if d < 0 {
				d = -d
			}
			if d > bw {
				failed++
				if failed >= maxSkip {
					break
				}
				continue
			}
			cand := f[j] + stepScore(group[i].Span, group[j].Span, dr, dq)
			if cand > f[i] {
				f[i] = cand
				p[i] = j
				failed = 0
			} else {
				failed++
				if failed >= maxSkip {
					break
				}
			}
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Descending by score; ties keep input order (spec §4.4 "Edge
	// policies": tie-break by input index).
	sort.SliceStable(order, func(a, b int) bool { return f[order[a]] > f[order[b]] })

	used := make([]bool, n)
	var chains []Chain
	for _, tail := range order {
		if used[tail] {
			continue
		}
		var idxs []int
		for k := tail; k != -1 && !used[k]; k = p[k] {
			idxs = append(idxs, k)
			used[k] = true
		}
		for l, r := 0, len(idxs)-1; l < r; l, r = l+1, r-1 {
			idxs[l], idxs[r] = idxs[r], idxs[l]
		}
		if len(idxs) < opts.MinCnt {
			continue
		}
		c := buildChain(group, idxs)
		if int(c.Score) < opts.MinChainScore {
			continue
		}
		chains = append(chains, c)
	}
	return chains
}

// buildChain assembles a Chain from a group and the ascending-QPos indices
// of one backtracked path, recomputing its score from only the anchors
// actually retained (a trace can be truncated mid-chain when it runs into
// an anchor a higher-scoring chain already claimed).
func buildChain(group []anchor.Anchor, idxs []int) Chain {
	as := make([]anchor.Anchor, len(idxs))
	for i, gi := range idxs {
		as[i] = group[gi]
	}
	score := int32(as[0].Span)
	for i := 1; i < len(as); i++ {
		dr := as[i].RefPos - as[i-1].RefPos
		dq := as[i].QPos - as[i-1].QPos
		score += stepScore(as[i].Span, as[i-1].Span, dr, dq)
	}
	first, last := as[0], as[len(as)-1]
	strand := mapper.Forward
	if first.RevStrand {
		strand = mapper.Reverse
	}
	// QPos/RefPos are both end-inclusive coordinates (spec §3: "qpos is the
	// query end"; the index's RefPos follows the same convention, see
	// mapper/index.Hit), so the start of each axis is end-Span+1, matching
	// mapper/seed/filter.go's identical qEnd/qStart derivation.
	return Chain{
		Anchors: as,
		RefID:   first.RefID,
		Strand:  strand,
		QStart:  first.QPos - int32(first.Span) + 1,
		QEnd:    last.QPos + 1,
		RStart:  first.RefPos - int32(first.Span) + 1,
		REnd:    last.RefPos + 1,
		Score:   score,
	}
}
