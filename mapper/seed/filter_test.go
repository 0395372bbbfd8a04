package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/bio/mapper/lcmask"
	"github.com/grailbio/bio/mapper/sketch"
)

func m(qpos int32, span uint8) sketch.Minimizer {
	return sketch.Minimizer{Hash: uint64(qpos), Span: span, QPos: qpos}
}

func TestFilterNoMaskedIntervals(t *testing.T) {
	mins := []sketch.Minimizer{m(10, 5), m(20, 5)}
	out := Filter(mins, nil)
	assert.Equal(t, mins, out)
}

func TestFilterDropsFullyMasked(t *testing.T) {
	// k-mer span [6,11): fully inside masked [0,20).
	mins := []sketch.Minimizer{m(10, 5)}
	out := Filter(mins, []lcmask.Interval{{Start: 0, End: 20}})
	assert.Empty(t, out)
}

func TestFilterKeepsMostlyUnmasked(t *testing.T) {
	// k-mer span [6,11) overlaps masked [10,11) by exactly 1 base, span/2==2, keep.
	mins := []sketch.Minimizer{m(10, 5)}
	out := Filter(mins, []lcmask.Interval{{Start: 10, End: 11}})
	assert.Len(t, out, 1)
}

func TestFilterDropsMoreThanHalfOverlap(t *testing.T) {
	// span=4, half=2. k-mer span [7,11), masked [8,11) overlaps by 3 -> drop.
	mins := []sketch.Minimizer{m(10, 4)}
	out := Filter(mins, []lcmask.Interval{{Start: 8, End: 11}})
	assert.Empty(t, out)
}

func TestFilterPreservesOrder(t *testing.T) {
	mins := []sketch.Minimizer{m(5, 3), m(10, 3), m(15, 3), m(20, 3)}
	masked := []lcmask.Interval{{Start: 8, End: 13}} // drops the qpos=10 minimizer only
	out := Filter(mins, masked)
	if assert.Len(t, out, 3) {
		assert.EqualValues(t, 5, out[0].QPos)
		assert.EqualValues(t, 15, out[1].QPos)
		assert.EqualValues(t, 20, out[2].QPos)
	}
}

func TestFilterIdempotent(t *testing.T) {
	mins := []sketch.Minimizer{m(5, 3), m(10, 5), m(15, 3)}
	masked := []lcmask.Interval{{Start: 8, End: 13}}
	once := Filter(append([]sketch.Minimizer(nil), mins...), masked)
	twice := Filter(append([]sketch.Minimizer(nil), once...), masked)
	assert.Equal(t, once, twice)
}
