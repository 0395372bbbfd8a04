package mapout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/index/memindex"
	"github.com/grailbio/bio/mapper/pipeline"
)

func buildIndex(t *testing.T) *memindex.Index {
	t.Helper()
	b := memindex.NewBuilder(10, 15, false)
	b.AddRef("chr1", 1000)
	return b.Build()
}

func TestPAFWriterFormatsLine(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	w := NewPAFWriter(&buf, idx)

	rec := mapper.MappingRecord{
		RefID: 0, RStart: 100, REnd: 200,
		QStart: 0, QEnd: 100, QLen: 100,
		Strand: mapper.Forward, Score: 90, NAnchors: 5, MapQ: 60, NM: 10,
	}
	results := []pipeline.Result{{
		Query:   pipeline.Query{Name: "read1", Seq: make([]byte, 100)},
		Records: []mapper.MappingRecord{rec},
	}}
	require.NoError(t, w.WriteBatch(results))

	line := strings.TrimSuffix(buf.String(), "\n")
	fields := strings.Split(line, "\t")
	require.True(t, len(fields) >= 12)
	assert.Equal(t, "read1", fields[0])
	assert.Equal(t, "100", fields[1]) // qlen
	assert.Equal(t, "0", fields[2])   // qstart
	assert.Equal(t, "100", fields[3]) // qend
	assert.Equal(t, "+", fields[4])
	assert.Equal(t, "chr1", fields[5])
	assert.Equal(t, "1000", fields[6]) // reflen
	assert.Equal(t, "100", fields[7])  // rstart
	assert.Equal(t, "200", fields[8])  // rend
	assert.Equal(t, "90", fields[9])   // nmatch = alnlen(100) - nm(10)
	assert.Equal(t, "100", fields[10]) // alnlen
	assert.Equal(t, "60", fields[11])  // mapq
	assert.Contains(t, line, "tp:A:P")
	assert.Contains(t, line, "cm:i:5")
	assert.Contains(t, line, "s1:i:90")
}

func TestPAFWriterSkipsUnmappedQueries(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	w := NewPAFWriter(&buf, idx)

	results := []pipeline.Result{{Query: pipeline.Query{Name: "unmapped", Seq: make([]byte, 50)}}}
	require.NoError(t, w.WriteBatch(results))
	assert.Empty(t, buf.String())
}

func TestPAFWriterMarksSecondary(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	w := NewPAFWriter(&buf, idx)

	rec := mapper.MappingRecord{RefID: 0, Secondary: true, NM: -1}
	results := []pipeline.Result{{
		Query:   pipeline.Query{Name: "read1"},
		Records: []mapper.MappingRecord{rec},
	}}
	require.NoError(t, w.WriteBatch(results))
	assert.Contains(t, buf.String(), "tp:A:S")
}

func samRefs(t *testing.T) []*sam.Reference {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	return []*sam.Reference{ref}
}

func TestSAMWriterUnmappedRecord(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	sw, err := NewSAMWriter(&buf, idx, samRefs(t), 0)
	require.NoError(t, err)

	results := []pipeline.Result{{Query: pipeline.Query{Name: "read1", Seq: []byte("ACGT")}}}
	require.NoError(t, sw.WriteBatch(results))

	out := buf.String()
	assert.Contains(t, out, "read1")
	assert.Contains(t, out, "\t4\t") // FLAG 4 = unmapped
}

func TestSAMWriterMappedRecordFlagsAndCigar(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	sw, err := NewSAMWriter(&buf, idx, samRefs(t), 0)
	require.NoError(t, err)

	rec := mapper.MappingRecord{
		RefID: 0, RStart: 99, REnd: 199, MapQ: 30, Strand: mapper.Reverse, Secondary: true,
		CIGAR: []mapper.CigarOp{{Len: 100, Op: 'M'}}, NM: -1,
	}
	results := []pipeline.Result{{
		Query:   pipeline.Query{Name: "read2", Seq: []byte("ACGT")},
		Records: []mapper.MappingRecord{rec},
	}}
	require.NoError(t, sw.WriteBatch(results))

	out := buf.String()
	assert.Contains(t, out, "read2")
	assert.Contains(t, out, "chr1")
	assert.Contains(t, out, "100M")
	assert.Contains(t, out, "\t100\t") // POS is 1-based in text SAM (RStart 99 + 1)
}

func TestSAMWriterNoQualOmitsQuality(t *testing.T) {
	idx := buildIndex(t)
	var buf bytes.Buffer
	sw, err := NewSAMWriter(&buf, idx, samRefs(t), mapper.NoQual)
	require.NoError(t, err)

	results := []pipeline.Result{{Query: pipeline.Query{Name: "read1", Seq: []byte("ACGT")}}}
	require.NoError(t, sw.WriteBatch(results))
	assert.Contains(t, buf.String(), "\t*\n")
}
