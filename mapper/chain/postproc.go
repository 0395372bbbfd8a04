package chain

import (
	"sort"

	"github.com/biogo/store/interval"

	"github.com/grailbio/bio/mapper"
)

// qiNode adapts a chain's query interval to biogo/store/interval, the same
// pattern mapper/seed uses for masked-region overlap queries.
type qiNode struct {
	id    uintptr
	start int
	end   int
}

func (n qiNode) Overlap(b interval.IntRange) bool { return n.start < b.End && b.Start < n.end }
func (n qiNode) ID() uintptr                      { return n.id }
func (n qiNode) Range() interval.IntRange         { return interval.IntRange{Start: n.start, End: n.end} }

// Postprocess runs ChainPostproc (spec §4.5) over chains already sorted by
// score descending (ChainAll's output): parent/child assignment,
// primary/secondary selection and capping, long-chain joining, and mapping
// quality. It returns the surviving chains (dropped secondaries are
// omitted), sorted by score descending with ties in input order. Each returned chain's Parent is remapped to index into
// the returned slice itself (self when primary), not into the input chains
// slice, since that slice's indices are meaningless once members are
// dropped or reordered.
func Postprocess(chains []Chain, opts mapper.Options) []Chain {
	if len(chains) == 0 {
		return nil
	}
	assignParents(chains, opts.MaskLevel)
	live := selectPrimarySecondary(chains, opts.PriRatio, opts.BestN)
	live = joinLongChains(chains, live, opts)
	assignMapQ(chains, live)
	sort.SliceStable(live, func(a, b int) bool {
		if chains[live[a]].Score != chains[live[b]].Score {
			return chains[live[a]].Score > chains[live[b]].Score
		}
		return live[a] < live[b]
	})

	pos := make(map[int]int, len(live))
	for newIdx, i := range live {
		pos[i] = newIdx
	}
	out := make([]Chain, 0, len(live))
	for _, i := range live {
		c := chains[i]
		c.Parent = pos[c.Parent]
		out = append(out, c)
	}
	return out
}

// assignParents implements spec §4.5.1. chains must already be in score
// order; it sets chains[i].Parent in place to the index (within chains) of
// the earlier, higher- (or equal-) scoring parent chain (one that is its own
// parent) whose query interval it overlaps by more than maskLevel of the
// shorter interval, or to i itself when no such chain exists.
func assignParents(chains []Chain, maskLevel float64) {
	var tree interval.IntTree
	for i := range chains {
		qlen := int(chains[i].QEnd - chains[i].QStart)
		parent := i
		best := 0
		for _, hit := range tree.Get(qiNode{start: int(chains[i].QStart), end: int(chains[i].QEnd)}) {
			h := hit.(qiNode)
			if chains[h.id].Parent != int(h.id) {
				continue // only parents take children
			}
			lo, hi := int(chains[i].QStart), int(chains[i].QEnd)
			if h.start > lo {
				lo = h.start
			}
			if h.end < hi {
				hi = h.end
			}
			if hi <= lo {
				continue
			}
			overlap := hi - lo
			prevLen := h.end - h.start
			shorter := qlen
			if prevLen < shorter {
				shorter = prevLen
			}
			if shorter <= 0 {
				continue
			}
			if float64(overlap) > maskLevel*float64(shorter) && int(h.id) < parent {
				parent = int(h.id)
				best = overlap
			}
		}
		_ = best
		chains[i].Parent = parent
		if err := tree.Insert(qiNode{id: uintptr(i), start: int(chains[i].QStart), end: int(chains[i].QEnd)}, true); err != nil {
			panic(err)
		}
		tree.AdjustRanges()
	}
}

// selectPrimarySecondary implements spec §4.5.2, returning the indices (into
// chains) that survive: for each family (chains sharing a Parent root),
// the top bestN members scoring >= priRatio*parent_score. It sets
// chains[i].Primary/Secondary on survivors.
func selectPrimarySecondary(chains []Chain, priRatio float64, bestN int) []int {
	families := make(map[int][]int)
	for i := range chains {
		r := chains[i].Parent
		families[r] = append(families[r], i)
	}

	var live []int
	for root, members := range families {
		sort.SliceStable(members, func(a, b int) bool {
			if chains[members[a]].Score != chains[members[b]].Score {
				return chains[members[a]].Score > chains[members[b]].Score
			}
			return members[a] < members[b]
		})
		rootScore := chains[root].Score
		threshold := int32(priRatio * float64(rootScore))
		kept := 0
		for _, m := range members {
			if kept >= bestN {
				break
			}
			if m != root && chains[m].Score < threshold {
				continue
			}
			chains[m].Primary = kept == 0
			chains[m].Secondary = kept != 0
			live = append(live, m)
			kept++
		}
	}
	return live
}

// joinLongChains implements spec §4.5.3 over the family-root chains among
// live, merging a root C into an earlier root P when they sit on the same
// strand/ref_id with a small, monotonic intervening gap. Children of a
// merged-away root are re-parented to the surviving root; the merged-away
// root is dropped from the live set.
func joinLongChains(chains []Chain, live []int, opts mapper.Options) []int {
	var roots []int
	for _, i := range live {
		if chains[i].Parent == i {
			roots = append(roots, i)
		}
	}
	sort.SliceStable(roots, func(a, b int) bool { return chains[roots[a]].QStart < chains[roots[b]].QStart })

	merged := make(map[int]int) // old root index -> surviving root index
	for a := 0; a < len(roots); a++ {
		ra := roots[a]
		if _, gone := merged[ra]; gone {
			continue
		}
		for b := a + 1; b < len(roots); b++ {
			rb := roots[b]
			if _, gone := merged[rb]; gone {
				continue
			}
			p, c := &chains[ra], &chains[rb]
			if p.Strand != c.Strand || p.RefID != c.RefID {
				continue
			}
			qGap := c.QStart - p.QEnd
			rGap := c.RStart - p.REnd
			if qGap < 0 || rGap < 0 {
				continue // not monotonic
			}
			short := qGap <= int32(opts.MaxJoinShort) && rGap <= int32(opts.MaxJoinShort)
			long := p.Score > int32(opts.MinJoinFlankSc) && c.Score > int32(opts.MinJoinFlankSc) &&
				qGap <= int32(opts.MaxJoinLong) && rGap <= int32(opts.MaxJoinLong)
			if !short && !long {
				continue
			}
			p.Anchors = append(p.Anchors, c.Anchors...)
			p.QEnd = c.QEnd
			p.REnd = c.REnd
			p.Score += c.Score
			merged[rb] = ra
		}
	}
	if len(merged) == 0 {
		return live
	}
	// Re-parent children of merged-away roots, transitively resolving to the
	// final surviving root.
	root := func(i int) int {
		for {
			s, ok := merged[i]
			if !ok {
				return i
			}
			i = s
		}
	}
	out := live[:0]
	for _, i := range live {
		if _, gone := merged[i]; gone {
			continue
		}
		if s := root(chains[i].Parent); s != chains[i].Parent {
			chains[i].Parent = s
		}
		out = append(out, i)
	}
	return out
}

// assignMapQ implements spec §4.5.4 for every primary chain among live: a
// mapping quality in [0, 60], monotone decreasing in the best competing
// secondary's score ratio and in the number of competing secondaries.
func assignMapQ(chains []Chain, live []int) {
	type fam struct {
		primary  int
		nsub     int
		subScore int32
	}
	families := make(map[int]*fam)
	for _, i := range live {
		root := chains[i].Parent
		f, ok := families[root]
		if !ok {
			f = &fam{primary: -1}
			families[root] = f
		}
		if chains[i].Primary {
			f.primary = i
		} else {
			f.nsub++
			if chains[i].Score > f.subScore {
				f.subScore = chains[i].Score
			}
		}
	}
	for _, f := range families {
		if f.primary < 0 {
			continue
		}
		p := &chains[f.primary]
		p.NSub = f.nsub
		p.SubScore = f.subScore
		if f.nsub == 0 || p.Score == 0 {
			p.MapQ = 60
			continue
		}
		ratio := float64(f.subScore) / float64(p.Score)
		raw := 60*(1-ratio) - 3*float64(f.nsub-1)
		if raw < 0 {
			raw = 0
		}
		if raw > 60 {
			raw = 60
		}
		p.MapQ = uint8(raw)
	}
}
