package memindex

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/mapper"
)

func TestBuilderLookup(t *testing.T) {
	b := NewBuilder(10, 15, false)
	ref0 := b.AddRef("chr1", 1000)
	b.AddHit(42, ref0, 100, mapper.Forward)
	b.AddHit(42, ref0, 500, mapper.Reverse)
	idx := b.Build()

	hits, total := idx.Lookup(42)
	assert.Equal(t, 2, total)
	assert.Len(t, hits, 2)

	_, total = idx.Lookup(999)
	assert.Equal(t, 0, total)

	assert.Equal(t, "chr1", idx.RefName(0))
	assert.EqualValues(t, 1000, idx.RefLen(0))
	assert.Equal(t, 10, idx.W())
	assert.Equal(t, 15, idx.K())
	assert.False(t, idx.IsHPC())
}

func TestCalibrateOccurrence(t *testing.T) {
	b := NewBuilder(10, 15, false)
	ref0 := b.AddRef("chr1", 1000)
	for h := uint64(0); h < 100; h++ {
		n := int(h) % 10
		for i := 0; i < n; i++ {
			b.AddHit(h, ref0, int32(i), mapper.Forward)
		}
	}
	idx := b.Build()
	assert.Equal(t, 1<<31-1, idx.CalibrateOccurrence(0))
	hi := idx.CalibrateOccurrence(1.0)
	assert.True(t, hi >= 0)
}

func writeTestIndex(t *testing.T) []byte {
	t.Helper()
	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	hdr := struct{ W, K, IsHPC, NRefs, NHashes int32 }{W: 10, K: 15, IsHPC: 0, NRefs: 1, NHashes: 1}
	require.NoError(t, binary.Write(gz, binary.LittleEndian, hdr))
	name := []byte("chr1")
	require.NoError(t, binary.Write(gz, binary.LittleEndian, int32(len(name))))
	_, err := gz.Write(name)
	require.NoError(t, err)
	require.NoError(t, binary.Write(gz, binary.LittleEndian, int32(2000)))
	require.NoError(t, binary.Write(gz, binary.LittleEndian, uint64(7)))
	require.NoError(t, binary.Write(gz, binary.LittleEndian, int32(1)))
	packed := uint64(0)<<32 | uint64(123)<<1 | 0
	require.NoError(t, binary.Write(gz, binary.LittleEndian, packed))
	require.NoError(t, gz.Close())

	var out bytes.Buffer
	out.Write(fileMagic[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestLoadRoundTrip(t *testing.T) {
	data := writeTestIndex(t)
	idx, err := Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "chr1", idx.RefName(0))
	assert.EqualValues(t, 2000, idx.RefLen(0))
	hits, total := idx.Lookup(7)
	require.Equal(t, 1, total)
	assert.EqualValues(t, 123, hits[0].RefPos)
	assert.Equal(t, mapper.Forward, hits[0].Strand)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}
