package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocWithinChunk(t *testing.T) {
	a := New(64)
	b1 := a.Alloc(16)
	b2 := a.Alloc(16)
	assert.Len(t, b1, 16)
	assert.Len(t, b2, 16)
	// Distinct, non-overlapping backing arrays.
	b1[0] = 1
	b2[0] = 2
	assert.EqualValues(t, 1, b1[0])
	assert.EqualValues(t, 2, b2[0])
}

func TestAllocGrowsChunks(t *testing.T) {
	a := New(8)
	for i := 0; i < 10; i++ {
		b := a.Alloc(8)
		assert.Len(t, b, 8)
	}
	assert.True(t, len(a.chunks) >= 2)
}

func TestAllocOversized(t *testing.T) {
	a := New(8)
	b := a.Alloc(1000)
	assert.Len(t, b, 1000)
	// A subsequent small allocation should still succeed from a fresh chunk.
	b2 := a.Alloc(4)
	assert.Len(t, b2, 4)
}

func TestResetReusesChunks(t *testing.T) {
	a := New(64)
	first := a.Alloc(16)
	a.Reset()
	nChunksAfterFirst := len(a.chunks)
	second := a.Alloc(16)
	assert.Equal(t, nChunksAfterFirst, len(a.chunks))
	assert.EqualValues(t, 0, second[0]) // zeroed on reuse
	_ = first
}

func TestAllocZeroLength(t *testing.T) {
	a := New(64)
	assert.Nil(t, a.Alloc(0))
}
