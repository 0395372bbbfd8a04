// Package arena implements the per-worker scratch allocator described in
// spec §4.1: allocations made from an Arena are released in bulk by Reset
// instead of being returned to the Go heap piecemeal. seed, anchor and chain
// do not allocate from an Arena; they build ordinary Go slices.
package arena

import (
	"github.com/grailbio/base/log"
)

// defaultChunkSize is the size of each backing chunk Arena grows by. 4MiB
// comfortably holds the minimizer/anchor/chain arrays of a single long read
// without forcing frequent chunk allocation.
const defaultChunkSize = 4 << 20

// Arena is a bump allocator: Alloc hands out monotonically increasing
// offsets into a chunk and never reclaims individual allocations. Callers
// release everything at once with Reset. An Arena belongs to exactly one
// worker goroutine and must never be shared (spec §4.1, "Thread-safety").
type Arena struct {
	chunks    [][]byte
	chunkSize int
	cur       int // index into chunks of the chunk currently being filled
	off       int // next free byte within chunks[cur]

	nAlloc int
	nBytes int64
}

// New returns an Arena that grows in chunkSize increments. chunkSize <= 0
// selects defaultChunkSize.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.chunks = append(a.chunks, newChunk(chunkSize))
	return a
}

// Alloc returns n zeroed bytes that remain valid until the next Reset. It
// never touches the Go heap once the arena's chunk pool has grown large
// enough to satisfy the worker's working set, because chunks are reused
// across Reset calls.
func (a *Arena) Alloc(n int) []byte {
	if n < 0 {
		log.Panicf("arena: negative allocation size %d", n)
	}
	if n == 0 {
		return nil
	}
	if n > a.chunkSize {
		// Oversized request: give it its own dedicated chunk rather than
		// failing. This keeps Alloc total, matching spec §7's AllocFailure
		// being reserved for true resource exhaustion, not for a single
		// large read. The next normal-sized Alloc moves past it.
		b := newChunk(n)
		a.chunks = append(a.chunks, b)
		a.cur = len(a.chunks) - 1
		a.off = n
		a.nAlloc++
		a.nBytes += int64(n)
		return b
	}
	if a.off+n > len(a.chunks[a.cur]) {
		a.cur++
		if a.cur >= len(a.chunks) {
			a.chunks = append(a.chunks, newChunk(a.chunkSize))
		} else {
			for i := range a.chunks[a.cur] {
				a.chunks[a.cur][i] = 0
			}
		}
		a.off = 0
	}
	b := a.chunks[a.cur][a.off : a.off+n : a.off+n]
	a.off += n
	a.nAlloc++
	a.nBytes += int64(n)
	return b
}

// Free is a no-op: the arena reclaims memory only in bulk, at Reset. It
// exists so callers can mirror the "alloc/free" shape spec §4.1 describes
// for nested ownership (a component allocates, hands the buffer to its
// caller, and the caller frees it on the same arena) without the arena
// having to track individual allocations.
func (a *Arena) Free([]byte) {}

// Reset releases every allocation made since the last Reset (or since New),
// without shrinking the arena's chunk pool, so the next query reuses the
// same backing memory. Reset must be called exactly once per query, after
// the query's MappingRecords (and any CIGAR buffers, which are not
// arena-backed) have been copied out or handed to the writer stage.
func (a *Arena) Reset() {
	used := len(a.chunks[0])
	if a.cur == 0 {
		used = a.off
	}
	for i := range a.chunks[0][:used] {
		a.chunks[0][i] = 0
	}
	a.cur = 0
	a.off = 0
}

// Stats reports the allocator's cumulative allocation count and byte count
// since the arena was created (not since the last Reset); useful for
// worker-level diagnostics in BatchPipeline.
func (a *Arena) Stats() (nAlloc int, nBytes int64) { return a.nAlloc, a.nBytes }
