// Package memindex is a minimal in-memory index.Index implementation, fed
// pre-built tables rather than built from a reference sequence (index
// construction stays a non-goal; see spec §1). It backs unit tests and
// small reference collections, and also serves as the decoder for the
// on-disk index format (Load), which is a sequence of bgzf-style blocks
// written with klauspost/compress/gzip, matching the blocking scheme
// encoding/bam.ShardedBAMWriter uses for BAM output.
package memindex

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/index"
)

// refInfo is one reference sequence's metadata.
type refInfo struct {
	name string
	len  int32
}

// Index is an in-memory index.Index. The zero value is not usable; build
// one with NewBuilder.
type Index struct {
	refs    []refInfo
	hits    map[uint64][]index.Hit
	w, k    int
	isHPC   bool
	occSort []int // cached occurrence counts, ascending, for CalibrateOccurrence
}

var _ index.Index = (*Index)(nil)

// Lookup implements index.Index.
func (x *Index) Lookup(hash uint64) ([]index.Hit, int) {
	hits := x.hits[hash]
	return hits, len(hits)
}

// CalibrateOccurrence implements index.Index. It returns the occurrence
// count at the given quantile of the index's per-minimizer occurrence
// distribution, matching minimap2's mm_idx_cal_max_occ.
func (x *Index) CalibrateOccurrence(fraction float64) int {
	if len(x.occSort) == 0 || fraction <= 0 {
		return 1<<31 - 1
	}
	if fraction >= 1 {
		return x.occSort[len(x.occSort)-1]
	}
	idx := int(float64(len(x.occSort)) * (1 - fraction))
	if idx >= len(x.occSort) {
		idx = len(x.occSort) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return x.occSort[idx]
}

// RefName implements index.Index.
func (x *Index) RefName(refID int32) string { return x.refs[refID].name }

// RefLen implements index.Index.
func (x *Index) RefLen(refID int32) int32 { return x.refs[refID].len }

// NumRefs implements index.Index.
func (x *Index) NumRefs() int { return len(x.refs) }

// W implements index.Index.
func (x *Index) W() int { return x.w }

// K implements index.Index.
func (x *Index) K() int { return x.k }

// IsHPC implements index.Index.
func (x *Index) IsHPC() bool { return x.isHPC }

// Builder assembles an in-memory Index from explicit (hash -> hits) and
// reference-metadata entries. This is a test/demo fixture, not a reference
// indexer: it never looks at reference sequence data, only at
// already-computed minimizer hashes.
type Builder struct {
	idx Index
}

// NewBuilder starts a Builder for an index with the given sketch
// parameters.
func NewBuilder(w, k int, isHPC bool) *Builder {
	return &Builder{idx: Index{
		hits: make(map[uint64][]index.Hit),
		w:    w, k: k, isHPC: isHPC,
	}}
}

// AddRef registers a reference sequence and returns its 0-based id.
func (b *Builder) AddRef(name string, length int32) int32 {
	b.idx.refs = append(b.idx.refs, refInfo{name: name, len: length})
	return int32(len(b.idx.refs) - 1)
}

// AddHit records one occurrence of the minimizer with the given hash.
func (b *Builder) AddHit(hash uint64, refID, refPos int32, strand mapper.Strand) {
	b.idx.hits[hash] = append(b.idx.hits[hash], index.Hit{RefID: refID, RefPos: refPos, Strand: strand})
}

// Build finalizes the index, snapshotting the occurrence-count
// distribution used by CalibrateOccurrence.
func (b *Builder) Build() *Index {
	counts := make([]int, 0, len(b.idx.hits))
	for _, h := range b.idx.hits {
		counts = append(counts, len(h))
	}
	sort.Ints(counts)
	b.idx.occSort = counts
	return &b.idx
}

// fileMagic identifies the on-disk block format Load reads.
var fileMagic = [4]byte{'B', 'I', 'X', '1'}

// Load decodes an index file (fileMagic followed directly by gzip-compressed
// data, which may be several concatenated gzip members read as one stream,
// holding a little-endian header, the reference table and the hash table)
// and returns an in-memory Index.
// Writing this format is index construction and stays out of scope (spec
// §1); Load exists so a prebuilt index can be shipped as a single file and
// read back without re-deriving it from FASTA.
func Load(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, err
	}
	if magic != fileMagic {
		return nil, errInvalidMagic
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var hdr struct {
		W, K    int32
		IsHPC   int32
		NRefs   int32
		NHashes int32
	}
	if err := binary.Read(gz, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	b := NewBuilder(int(hdr.W), int(hdr.K), hdr.IsHPC != 0)
	for i := int32(0); i < hdr.NRefs; i++ {
		var nameLen, length int32
		if err := binary.Read(gz, binary.LittleEndian, &nameLen); err != nil {
			return nil, err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(gz, name); err != nil {
			return nil, err
		}
		if err := binary.Read(gz, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		b.AddRef(string(name), length)
	}
	for i := int32(0); i < hdr.NHashes; i++ {
		var hash uint64
		var n int32
		if err := binary.Read(gz, binary.LittleEndian, &hash); err != nil {
			return nil, err
		}
		if err := binary.Read(gz, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		for j := int32(0); j < n; j++ {
			var packed uint64
			if err := binary.Read(gz, binary.LittleEndian, &packed); err != nil {
				return nil, err
			}
			refID := int32(packed >> 32)
			refPos := int32((packed >> 1) & 0x7fffffff)
			strand := mapper.Forward
			if packed&1 != 0 {
				strand = mapper.Reverse
			}
			b.AddHit(hash, refID, refPos, strand)
		}
	}
	return b.Build(), nil
}

type magicErr string

func (e magicErr) Error() string { return string(e) }

const errInvalidMagic = magicErr("memindex: invalid file magic")
