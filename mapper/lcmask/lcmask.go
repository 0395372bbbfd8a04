// Package lcmask defines the low-complexity (LC) detector collaborator
// (spec §6) and a default SDUST-style implementation.
//
// Low-complexity region detection itself is out of the mapping core's
// scope; this package exists so SeedFilter (mapper/seed) has a real
// detector to filter against in tests and in the reference CLI.
package lcmask

import "sort"

// Interval is a half-open [Start, End) region on a query sequence.
type Interval struct {
	Start, End int32
}

// Detector returns the sorted, non-overlapping low-complexity intervals of
// seq at the given threshold (spec §6, "LC detector (consumed)").
// threshold <= 0 means masking is disabled.
type Detector interface {
	Mask(seq []byte, threshold int) []Interval
}

// SDUST is a simplified, triplet-entropy based stand-in for the symmetric
// DUST algorithm minimap2 uses (sdust.c, not reproduced here). It flags
// windows whose triplet-repeat score reaches threshold and merges
// overlapping flagged windows, producing the same kind of sorted
// non-overlapping interval list SDUST would.
type SDUST struct {
	// WindowSize is the triplet-counting window; SDUST's default is 64.
	WindowSize int
}

const defaultWindowSize = 64

// Mask implements Detector.
func (d SDUST) Mask(seq []byte, threshold int) []Interval {
	if threshold <= 0 || len(seq) < 3 {
		return nil
	}
	win := d.WindowSize
	if win <= 0 {
		win = defaultWindowSize
	}
	var raw []Interval
	counts := make(map[uint32]int)
	var triplets []uint32
	code := func(b byte) uint32 {
		switch b {
		case 'A', 'a':
			return 0
		case 'C', 'c':
			return 1
		case 'G', 'g':
			return 2
		case 'T', 't':
			return 3
		default:
			return 4
		}
	}
	for i := 0; i+3 <= len(seq); i++ {
		c0, c1, c2 := code(seq[i]), code(seq[i+1]), code(seq[i+2])
		var t uint32
		if c0 > 3 || c1 > 3 || c2 > 3 {
			t = ^uint32(0) // distinct sentinel per ambiguous triplet; never repeats
			t -= uint32(i)
		} else {
			t = c0<<4 | c1<<2 | c2
		}
		triplets = append(triplets, t)
	}
	start := 0
	for start < len(triplets) {
		end := start + win
		if end > len(triplets) {
			end = len(triplets)
		}
		for k := range counts {
			delete(counts, k)
		}
		repeats := 0
		for _, t := range triplets[start:end] {
			counts[t]++
			if counts[t] > 1 {
				repeats++
			}
		}
		// A window dominated by a handful of repeated triplets is
		// low-complexity; scale so "threshold" behaves like SDUST's score
		// cutoff (roughly: repeats per 64-triplet window).
		score := repeats * 64 / (end - start)
		if score >= threshold {
			raw = append(raw, Interval{Start: int32(start), End: int32(end + 2)}) // +2: triplet end -> base end
		}
		start += win / 2
		if win/2 == 0 {
			start++
		}
	}
	return mergeIntervals(raw, int32(len(seq)))
}

func mergeIntervals(in []Interval, seqLen int32) []Interval {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start < in[j].Start })
	out := make([]Interval, 0, len(in))
	cur := in[0]
	for _, iv := range in[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
		} else {
			out = append(out, cur)
			cur = iv
		}
	}
	out = append(out, cur)
	for i := range out {
		if out[i].End > seqLen {
			out[i].End = seqLen
		}
	}
	return out
}
