package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/index/memindex"
	"github.com/grailbio/bio/mapper/mapperpb"
	"github.com/grailbio/bio/mapper/query"
	"github.com/grailbio/bio/mapper/sketch"
)

type sliceReader struct {
	queries []Query
	pos     int
}

func (r *sliceReader) ReadBatch(n int) ([]Query, error) {
	if r.pos >= len(r.queries) {
		return nil, io.EOF
	}
	end := r.pos + n
	if end > len(r.queries) {
		end = len(r.queries)
	}
	out := r.queries[r.pos:end]
	r.pos = end
	var err error
	if r.pos >= len(r.queries) {
		err = io.EOF
	}
	return out, err
}

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]Result
}

func (w *recordingWriter) WriteBatch(r []Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([]Result, len(r))
	copy(cp, r)
	w.batches = append(w.batches, cp)
	return nil
}

func namesOf(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Query.Name
	}
	return out
}

func TestBatchPipelinePreservesOrderAcrossWorkers(t *testing.T) {
	ref := []byte(strings.Repeat("A", 500))
	b := memindex.NewBuilder(10, 15, false)
	b.AddRef("ref", int32(len(ref)))
	idx := b.Build()

	var queries []Query
	for i := 0; i < 40; i++ {
		queries = append(queries, Query{Name: string(rune('a' + i)), Seq: ref})
	}
	reader := &sliceReader{queries: queries}
	writer := &recordingWriter{}

	bp := &BatchPipeline{
		Reader:    reader,
		Writer:    writer,
		Pipeline:  &query.Pipeline{Index: idx, Sketcher: sketch.FarmSketcher{}, Options: mapper.DefaultOptions()},
		NThreads:  4,
		BatchSize: 3,
	}
	require.NoError(t, bp.Run(context.Background()))

	var gotNames []string
	for _, batch := range writer.batches {
		gotNames = append(gotNames, namesOf(batch)...)
	}
	var wantNames []string
	for _, q := range queries {
		wantNames = append(wantNames, q.Name)
	}
	assert.Equal(t, wantNames, gotNames)
}

func TestBatchPipelineHandlesEmptyInput(t *testing.T) {
	b := memindex.NewBuilder(10, 15, false)
	b.AddRef("ref", 100)
	idx := b.Build()

	bp := &BatchPipeline{
		Reader:   &sliceReader{},
		Writer:   &recordingWriter{},
		Pipeline: &query.Pipeline{Index: idx, Sketcher: sketch.FarmSketcher{}, Options: mapper.DefaultOptions()},
	}
	assert.NoError(t, bp.Run(context.Background()))
}

func TestBatchPipelineWritesDebugLog(t *testing.T) {
	ref := []byte(strings.Repeat("A", 500))
	b := memindex.NewBuilder(10, 15, false)
	b.AddRef("ref", int32(len(ref)))
	idx := b.Build()

	var logBuf bytes.Buffer
	bp := &BatchPipeline{
		Reader:    &sliceReader{queries: []Query{{Name: "q1", Seq: ref}, {Name: "q2", Seq: ref}}},
		Writer:    &recordingWriter{},
		Pipeline:  &query.Pipeline{Index: idx, Sketcher: sketch.FarmSketcher{}, Options: mapper.DefaultOptions()},
		BatchSize: 1,
		DebugLog:  mapperpb.NewLogWriter(&logBuf),
	}
	require.NoError(t, bp.Run(context.Background()))

	r := mapperpb.NewLogReader(&logBuf)
	var names []string
	for {
		batch, err := r.ReadBatch()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for _, qr := range batch.Results {
			names = append(names, qr.Name)
		}
	}
	assert.Equal(t, []string{"q1", "q2"}, names)
}
