// Package index defines the Index collaborator (spec §6): a read-only
// structure mapping a minimizer hash to the set of reference occurrences,
// plus reference metadata and the indexing parameters the sketch was built
// with.
//
// Index *construction* (building this structure from a reference sequence
// collection) is explicitly out of scope (spec §1 Non-goals); mapper/index
// only specifies the read path the core depends on, plus
// mapper/index/memindex, a minimal in-memory implementation fed pre-built
// tables for tests and small inputs.
package index

import "github.com/grailbio/bio/mapper"

// Hit is one reference occurrence of a minimizer, the named-field
// equivalent of spec §3's packed IndexHit (`ref_id<<32 | (ref_pos<<1) |
// ref_strand`).
type Hit struct {
	RefID int32
	// RefPos is the 0-based *end* coordinate (last base, inclusive) of the
	// k-mer on the reference, the same end-inclusive convention
	// mapper/sketch.Minimizer.QPos uses on the query: both come from
	// sketching the identical k-mer window, just on different sequences.
	// mapper/anchor copies it unchanged; mapper/chain converts it to a
	// half-open start via RefPos-span+1, mirroring mapper/seed/filter.go's
	// QPos conversion.
	RefPos int32
	Strand mapper.Strand
}

// Index is the read-only structure the mapping core looks seeds up
// against. It must support concurrent Lookup calls without locking (spec
// §5, "Shared resources"): all methods are called concurrently by every
// BatchPipeline worker against a single shared Index.
type Index interface {
	// Lookup returns every occurrence of the minimizer with the given hash,
	// plus the total occurrence count (which can exceed len(hits) if the
	// implementation chooses to cap how many it materializes). Order within
	// the returned slice is unspecified; callers re-sort. The returned slice
	// must not be mutated or retained past the caller's use of it: ownership
	// stays with the Index (spec §3, "IndexHit... Order within the slice is
	// unspecified; anchors re-sort").
	Lookup(hash uint64) (hits []Hit, total int)

	// CalibrateOccurrence returns the occurrence-count cutoff at the given
	// distribution quantile, e.g. CalibrateOccurrence(2e-4) for mid_occ_frac
	// (spec §6).
	CalibrateOccurrence(fraction float64) int

	// RefName and RefLen give reference metadata by 0-based reference id.
	// NumRefs is the number of references ids 0..NumRefs-1 are valid for.
	RefName(refID int32) string
	RefLen(refID int32) int32
	NumRefs() int

	// W, K and IsHPC are the sketch parameters the index was built with; a
	// query must be sketched with the same parameters (spec §7,
	// "IndexMismatch").
	W() int
	K() int
	IsHPC() bool
}
