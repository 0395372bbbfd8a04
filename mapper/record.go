package mapper

// Strand is the orientation of a mapping relative to the reference.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

func (s Strand) Byte() byte {
	if s == Reverse {
		return '-'
	}
	return '+'
}

// MappingRecord is the user-visible result of mapping one query against the
// reference collection (spec §3, "MappingRecord (region)").
type MappingRecord struct {
	RefID  int32
	RStart int32
	REnd   int32

	QStart int32
	QEnd   int32
	QLen   int32

	Strand Strand

	Score     int32
	NAnchors  int32
	Parent    int32 // index of this chain's parent within the query's record slice; self if primary
	MapQ      uint8
	Secondary bool // true when this record is a non-primary member of its parent family

	// CIGAR/edit distance are populated only when Options.Flags has CIGAR or
	// ExtEnd set and the Aligner collaborator accepted the chain. Nil
	// otherwise.
	CIGAR []CigarOp
	NM    int32 // edit distance; -1 if not computed
}

// CigarOp is one run-length-encoded CIGAR operation.
type CigarOp struct {
	Len int32
	Op  byte // one of MIDNSHP=X, matching SAM conventions
}

// Unmapped reports whether r represents the "no mapping found" condition.
// QueryPipeline never appends an unmapped placeholder to its result slice;
// callers (e.g. a SAM writer) synthesize one from the query length when the
// slice is empty.
func (r *MappingRecord) Unmapped() bool { return r == nil }
