// Package pipeline implements BatchPipeline (spec §4.7): the three-stage
// read/map/write loop that reads queries in mini-batches, fans each batch's
// queries out across worker goroutines, and writes results back in the
// exact order the queries were read regardless of which worker finished
// first. The output-ordering stage is grounded on
// encoding/bam.ShardedBAMWriter, which solves the identical problem for BAM
// shards with github.com/grailbio/base/syncqueue.OrderedQueue.
package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/arena"
	"github.com/grailbio/bio/mapper/mapperpb"
	"github.com/grailbio/bio/mapper/query"
)

// Query is one read to map.
type Query struct {
	Name string
	Seq  []byte
}

// Result pairs a query with the mapping records QueryPipeline produced.
type Result struct {
	Query   Query
	Records []mapper.MappingRecord
}

// Reader supplies mini-batches of queries (spec §6, "seqio (consumed)").
// ReadBatch returns fewer than n queries only on the final, partial batch,
// and returns io.EOF (with any final queries) when the input is exhausted.
type Reader interface {
	ReadBatch(n int) ([]Query, error)
}

// Writer consumes batches of results in the order BatchPipeline read their
// queries (spec §6, "mapout (consumed)").
type Writer interface {
	WriteBatch([]Result) error
}

// BatchPipeline runs QueryPipeline across a worker pool, preserving
// mini-batch order on output (spec §4.7's "strict output ordering"
// invariant) even though workers complete in whatever order scheduling
// gives them.
type BatchPipeline struct {
	Reader    Reader
	Writer    Writer
	Pipeline  *query.Pipeline
	NThreads  int // worker count; <= 0 means 1
	BatchSize int // queries per mini-batch; <= 0 means 200 (mapper.DefaultOptions().MiniBatchSize)

	// DebugLog, when non-nil, receives one mapperpb.Batch per mini-batch in
	// write order (-debug-log; SPEC_FULL.md §3). Nil by default: the debug
	// log plays no role in normal mapping.
	DebugLog *mapperpb.LogWriter
}

type batch struct {
	seq     int
	queries []Query
}

type batchResult struct {
	seq     int
	results []Result
}

// Run drives the pipeline to completion or until ctx is cancelled. It
// returns the first error encountered by the reader, a worker, or the
// writer (grailbio/base/errors.Once picks the first of possibly many
// concurrent failures, the same accumulator encoding/pam's writer uses).
func (bp *BatchPipeline) Run(ctx context.Context) error {
	nThreads := bp.NThreads
	if nThreads <= 0 {
		nThreads = 1
	}
	batchSize := bp.BatchSize
	if batchSize <= 0 {
		batchSize = mapper.DefaultOptions().MiniBatchSize
	}

	var firstErr errors.Once
	batches := make(chan batch, nThreads)
	queue := syncqueue.NewOrderedQueue(nThreads * 2)

	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		defer close(batches)
		for seq := 0; ; seq++ {
			qs, err := bp.Reader.ReadBatch(batchSize)
			if len(qs) > 0 {
				select {
				case batches <- batch{seq: seq, queries: qs}:
				case <-ctx.Done():
					firstErr.Set(ctx.Err())
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					firstErr.Set(errors.E(err, "pipeline: reading batch"))
				}
				return
			}
		}
	}()

	var workersWG sync.WaitGroup
	for w := 0; w < nThreads; w++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			a := arena.New(1 << 20)
			for b := range batches {
				results := make([]Result, len(b.queries))
				for i, q := range b.queries {
					a.Reset()
					results[i] = Result{Query: q, Records: bp.Pipeline.Map(q.Name, q.Seq)}
				}
				if err := queue.Insert(b.seq, &batchResult{seq: b.seq, results: results}); err != nil {
					firstErr.Set(errors.E(err, "pipeline: ordering batch"))
					return
				}
			}
			nAlloc, nBytes := a.Stats()
			log.Debug.Printf("pipeline: worker done, arena stats: %d allocs, %d bytes", nAlloc, nBytes)
		}()
	}

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		for {
			entry, ok, err := queue.Next()
			if err != nil {
				firstErr.Set(errors.E(err, "pipeline: reading ordered batch"))
				return
			}
			if !ok {
				return
			}
			br := entry.(*batchResult)
			if bp.DebugLog != nil {
				if err := bp.DebugLog.WriteBatch(toDebugBatch(br)); err != nil {
					firstErr.Set(errors.E(err, "pipeline: writing debug log"))
					queue.Close(err)
					return
				}
			}
			if err := bp.Writer.WriteBatch(br.results); err != nil {
				firstErr.Set(errors.E(err, "pipeline: writing batch"))
				queue.Close(err)
				return
			}
		}
	}()

	readerWG.Wait()
	workersWG.Wait()
	log.Debug.Printf("pipeline: all workers done, closing ordered queue")
	queue.Close(nil)
	writerWG.Wait()

	if firstErr.Err() != nil {
		return firstErr.Err()
	}
	return nil
}

// toDebugBatch converts one worker's results to the debug log's wire
// representation.
func toDebugBatch(br *batchResult) *mapperpb.Batch {
	b := &mapperpb.Batch{Seq: int64(br.seq), Results: make([]*mapperpb.QueryResult, len(br.results))}
	for i, r := range br.results {
		recs := make([]*mapperpb.MappingRecord, len(r.Records))
		for j, rec := range r.Records {
			recs[j] = &mapperpb.MappingRecord{
				RefId: rec.RefID, RStart: rec.RStart, REnd: rec.REnd,
				QStart: rec.QStart, QEnd: rec.QEnd, QLen: rec.QLen,
				Strand: int32(rec.Strand), Score: rec.Score, NAnchors: rec.NAnchors,
				Parent: rec.Parent, MapQ: uint32(rec.MapQ), Secondary: rec.Secondary,
				Cigar: toDebugCigar(rec.CIGAR), Nm: rec.NM,
			}
		}
		b.Results[i] = &mapperpb.QueryResult{Name: r.Query.Name, Records: recs}
	}
	return b
}

func toDebugCigar(cigar []mapper.CigarOp) []*mapperpb.CigarOp {
	if len(cigar) == 0 {
		return nil
	}
	out := make([]*mapperpb.CigarOp, len(cigar))
	for i, op := range cigar {
		out[i] = &mapperpb.CigarOp{Len: op.Len, Op: int32(op.Op)}
	}
	return out
}
