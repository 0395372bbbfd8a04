package mapper

// Flag is a bitset of mapping modes, matching the "flags" field of the
// CLI/config surface.
type Flag uint32

const (
	// NoSelf drops anchors on the query/target self diagonal. Used for
	// all-vs-all overlap computation where the query collection is also the
	// reference collection.
	NoSelf Flag = 1 << iota
	// AVA puts the pipeline in all-vs-all mode: every chain is reported as
	// an overlap and primary/secondary selection is skipped.
	AVA
	// CIGAR asks the aligner to extend every selected chain and attach a
	// CIGAR string to its mapping record.
	CIGAR
	// ExtEnd asks the aligner to extend chain ends without computing a full
	// base-level CIGAR (used to refine mapping quality only).
	ExtEnd
	// OutSAM selects SAM output instead of PAF.
	OutSAM
	// NoQual skips quality-string I/O (SAM output without base qualities).
	NoQual
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Options is the single configuration record for the mapping core,
// corresponding to spec §6's "CLI/config surface". It is read-only once
// constructed and is safe to share by reference across worker goroutines.
type Options struct {
	// Seed selection.
	MaxOccFrac float64 // occurrence-quantile cutoff above which a minimizer is dropped entirely
	MidOccFrac float64 // occurrence-quantile cutoff above which a minimizer contributes no anchors
	SdustThres int     // low-complexity masking threshold; 0 disables masking

	// Chaining.
	MinCnt        int // minimum anchors per emitted chain
	MinChainScore int // minimum chain score
	Bw            int // bandwidth: |dr-dq| must not exceed this
	MaxGap        int // maximum reference or query gap between consecutive anchors
	MaxChainSkip  int // lookback budget after consecutive scoring failures

	// Primary/secondary selection.
	MaskLevel float64 // query-interval overlap fraction (of the shorter chain) that makes a chain a child
	PriRatio  float64 // minimum score ratio (to the parent) for a chain to be kept as secondary
	BestN     int     // maximum number of chains kept per parent family

	// Long-chain joining.
	MaxJoinLong    int // max allowed gap when both flanking chains are well supported
	MaxJoinShort   int // max allowed gap unconditionally
	MinJoinFlankSc int // flanking score threshold that unlocks MaxJoinLong

	// Alignment gateway (consumed by the Aligner collaborator; mapper
	// itself only uses MinDPMax to decide whether to invoke alignment).
	MatchScore   int // a
	MismatchPen  int // b
	GapOpen      int // q
	GapExtend    int // e
	GapOpen2     int // q2
	GapExtend2   int // e2
	ZDrop        int // zdrop
	MinDPMax     int // min_dp_max
	MinKSWLen    int // min_ksw_len

	Flags Flag

	// BatchPipeline knobs (not part of spec §6's table, but required to run
	// the pipeline; defaulted by DefaultOptions).
	MiniBatchSize int // queries read into one batch
	NThreads      int // stage-1 parallelism
}

// DefaultOptions returns the documented defaults from spec §6.
func DefaultOptions() Options {
	return Options{
		MaxOccFrac: 1e-5,
		MidOccFrac: 2e-4,
		SdustThres: 0,

		MinCnt:        3,
		MinChainScore: 40,
		Bw:            500,
		MaxGap:        5000,
		MaxChainSkip:  25,

		MaskLevel: 0.5,
		PriRatio:  0.8,
		BestN:     5,

		MaxJoinLong:    20000,
		MaxJoinShort:   2000,
		MinJoinFlankSc: 1000,

		MatchScore:  2,
		MismatchPen: 4,
		GapOpen:     4,
		GapExtend:   2,
		GapOpen2:    24,
		GapExtend2:  1,
		ZDrop:       400,
		MinDPMax:    40,
		MinKSWLen:   200,

		MiniBatchSize: 200,
		NThreads:      1,
	}
}
