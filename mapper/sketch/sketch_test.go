package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/bio/mapper"
)

func TestSketchEmpty(t *testing.T) {
	var s FarmSketcher
	assert.Nil(t, s.Sketch(nil, 5, 5, false))
	assert.Nil(t, s.Sketch([]byte("ACGT"), 5, 5, false)) // shorter than k
}

func TestSketchOrderedByQPos(t *testing.T) {
	var s FarmSketcher
	mins := s.Sketch([]byte("AAAAACCCCCGGGGGTTTTTAAAAACCCCCGGGGGTTTTT"), 1, 5, false)
	assert.NotEmpty(t, mins)
	for i := 1; i < len(mins); i++ {
		assert.True(t, mins[i].QPos > mins[i-1].QPos, "minimizers must be strictly increasing in query position")
	}
	for _, m := range mins {
		assert.EqualValues(t, 5, m.Span)
	}
}

func TestSketchReverseComplementSymmetry(t *testing.T) {
	var s FarmSketcher
	fwd := "ACGTACGGTTCAGGCATCAGGTATCGGA"
	rc := reverseComplement(fwd)
	mf := s.Sketch([]byte(fwd), 3, 5, false)
	mr := s.Sketch([]byte(rc), 3, 5, false)
	assert.NotEmpty(t, mf)
	assert.NotEmpty(t, mr)
	// Every forward minimizer hash must also appear in the RC sketch (same
	// underlying canonical k-mer set), possibly on the opposite Strand.
	hashes := map[uint64]bool{}
	for _, m := range mr {
		hashes[m.Hash] = true
	}
	for _, m := range mf {
		assert.True(t, hashes[m.Hash], "hash %d missing from reverse-complement sketch", m.Hash)
	}
}

func reverseComplement(s string) string {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = comp[s[i]]
	}
	return string(out)
}

func TestStrandValues(t *testing.T) {
	assert.NotEqual(t, mapper.Forward, mapper.Reverse)
}
