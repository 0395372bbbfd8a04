// Package sketch defines the Sketcher collaborator (spec §6) and a default
// implementation: a (w,k)-minimizer sketch over a nucleotide sequence, using
// a FarmHash-based rolling k-mer encoder in the style of fusion/kmer.go.
//
// Minimizer construction itself sits outside the mapping core's scope
// (spec §1 lists the sketcher as an external collaborator); this package
// exists so the core is runnable and testable end to end.
package sketch

import (
	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/bio/mapper"
)

// Minimizer is one entry of a sketch, in query-position order. It is the
// named-field equivalent of spec §3's bit-packed (hash_and_span,
// qpos_and_strand) record.
type Minimizer struct {
	Hash   uint64
	Span   uint8         // k-mer span in bases, <= 255
	QPos   int32         // 0-based end coordinate of the k-mer on the query
	Strand mapper.Strand // strand of the k-mer that produced the minimal hash
}

// Sketcher computes the (w,k)-minimizer sequence of a query, in
// query-position order (spec §6, "Sketcher (consumed)").
type Sketcher interface {
	Sketch(seq []byte, w, k int, isHPC bool) []Minimizer
}

var baseCode [256]int8

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	baseCode['A'], baseCode['a'] = 0, 0
	baseCode['C'], baseCode['c'] = 1, 1
	baseCode['G'], baseCode['g'] = 2, 2
	baseCode['T'], baseCode['t'] = 3, 3
}

type kmerHash struct {
	hash   uint64
	span   uint8
	qpos   int32
	strand mapper.Strand
	idx    int32 // sequential k-mer index, used to evict stale deque entries
}

// FarmSketcher is the default Sketcher: a windowed-minimum minimizer scan
// over both strands, hashed with FarmHash-64 (spec §3's "hash" field). It
// supports homopolymer-compressed (HPC) k-mers when isHPC is set, matching
// spec's (w,k,is_hpc) parameterization.
type FarmSketcher struct{}

// Sketch implements Sketcher.
func (FarmSketcher) Sketch(seq []byte, w, k int, isHPC bool) []Minimizer {
	if k <= 0 || w <= 0 || len(seq) < k {
		return nil
	}

	var (
		out          []Minimizer
		fwd, rev     uint64
		shift        = uint(2 * (k - 1))
		mask         = (uint64(1) << uint(2*k)) - 1
		l            int // valid bases accumulated since the last ambiguous base / HPC reset
		kmerIdx      int32
		lastHPCBase  int8 = -1
		hpcSpan      uint8
		deque        []kmerHash // monotonic increasing by hash; front is the window minimum
		lastEmitIdx  int32 = -1
	)

	push := func(k kmerHash) {
		for len(deque) > 0 && deque[len(deque)-1].hash >= k.hash {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, k)
	}
	evictBefore := func(minIdx int32) {
		i := 0
		for i < len(deque) && deque[i].idx < minIdx {
			i++
		}
		deque = deque[i:]
	}

	for i := 0; i < len(seq); i++ {
		c := baseCode[seq[i]]
		if c < 0 {
			l = 0
			fwd, rev = 0, 0
			lastHPCBase = -1
			hpcSpan = 0
			continue
		}
		if isHPC {
			if int8(c) == lastHPCBase {
				if hpcSpan < 255 {
					hpcSpan++
				}
				continue
			}
			lastHPCBase = int8(c)
			hpcSpan = 1
		}
		fwd = ((fwd << 2) | uint64(c)) & mask
		rev = (rev >> 2) | (uint64(3-c) << shift)
		l++
		if l < k {
			continue
		}
		span := uint8(k)
		if isHPC {
			span = hpcSpan
		}

		var h uint64
		var strand mapper.Strand
		switch {
		case fwd < rev:
			h, strand = farm.Hash64WithSeed(nil, fwd), mapper.Forward
		case rev < fwd:
			h, strand = farm.Hash64WithSeed(nil, rev), mapper.Reverse
		default:
			kmerIdx++
			continue // palindromic k-mer: uninformative, as in minimap2
		}

		push(kmerHash{hash: h, span: span, qpos: int32(i), strand: strand, idx: kmerIdx})
		evictBefore(kmerIdx - int32(w) + 1)

		if kmerIdx >= int32(w)-1 {
			min := deque[0]
			if min.idx != lastEmitIdx {
				out = append(out, Minimizer{Hash: min.hash, Span: min.span, QPos: min.qpos, Strand: min.strand})
				lastEmitIdx = min.idx
			}
		}
		kmerIdx++
	}
	return out
}
