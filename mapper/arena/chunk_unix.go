// +build linux darwin

package arena

import (
	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// newChunk allocates a zeroed chunk of size n bytes via an anonymous mmap,
// the same way fusion/kmer_index.go backs its k-mer table: large,
// short-lived scratch buffers bypass the Go allocator and its GC scanning
// entirely. Chunks are never unmapped individually; they live for the
// worker's lifetime and are reused across Reset calls.
func newChunk(n int) []byte {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Panicf("arena: mmap %d bytes: %v", n, err)
	}
	return b
}
