// Package seed implements SeedFilter (spec §4.2): it removes minimizers
// whose k-mer span overlaps masked (low-complexity) query regions by half
// or more of their span.
package seed

import (
	"github.com/biogo/store/interval"

	"github.com/grailbio/bio/mapper/lcmask"
	"github.com/grailbio/bio/mapper/sketch"
)

// maskNode adapts an lcmask.Interval to biogo/store/interval's IntOverlapper
// so the masked-region union can be queried with an interval tree instead of
// a hand-rolled sweep.
type maskNode struct {
	id    uintptr
	start int
	end   int
}

func (n maskNode) Overlap(b interval.IntRange) bool { return n.start < b.End && b.Start < n.end }
func (n maskNode) ID() uintptr                      { return n.id }
func (n maskNode) Range() interval.IntRange         { return interval.IntRange{Start: n.start, End: n.end} }

// buildMaskTree indexes a sorted, non-overlapping set of masked intervals
// (spec §4.2's D) for overlap queries.
func buildMaskTree(masked []lcmask.Interval) *interval.IntTree {
	if len(masked) == 0 {
		return nil
	}
	var t interval.IntTree
	for i, m := range masked {
		if err := t.Insert(maskNode{id: uintptr(i), start: int(m.Start), end: int(m.End)}, true); err != nil {
			// Insert only fails on malformed (end < start) intervals, which the
			// detector contract (spec §6) never produces.
			panic(err)
		}
	}
	t.AdjustRanges()
	return &t
}

// Filter keeps a minimizer iff the overlap of its k-mer span with the
// masked-interval union is strictly less than half the span (spec §4.2).
// It compacts M in place, preserving order, and is a no-op when masked is
// empty (the "masking threshold is zero or the detector is absent" case).
func Filter(mins []sketch.Minimizer, masked []lcmask.Interval) []sketch.Minimizer {
	if len(masked) == 0 || len(mins) == 0 {
		return mins
	}
	tree := buildMaskTree(masked)
	out := mins[:0]
	for _, m := range mins {
		span := int(m.Span)
		qEnd := int(m.QPos) + 1 // half-open
		qStart := qEnd - span
		overlap := 0
		for _, hit := range tree.Get(maskNode{start: qStart, end: qEnd}) {
			mi := hit.(maskNode)
			lo, hi := qStart, qEnd
			if mi.start > lo {
				lo = mi.start
			}
			if mi.end < hi {
				hi = mi.end
			}
			if hi > lo {
				overlap += hi - lo
			}
		}
		if overlap <= span/2 {
			out = append(out, m)
		}
	}
	return out
}
