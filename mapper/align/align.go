// Package align defines the Aligner collaborator (spec §6): base-level CIGAR
// extension of a selected chain. Base-level alignment (striped Smith-Waterman
// / banded DP) is an explicit non-goal of the mapping core (spec §1), so this
// package carries only the interface the rest of mapper needs plus a
// passthrough stand-in that lets QueryPipeline run end to end without one.
package align

import (
	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/chain"
	"github.com/grailbio/bio/mapper/index"
)

// Aligner extends a chain to a base-level CIGAR against the reference (spec
// §6, "Aligner (consumed, optional)"). Implementations consume
// Options.MatchScore/MismatchPen/GapOpen.../ZDrop/MinDPMax/MinKSWLen; a real
// aligner would also zdrop-truncate extensions that drift too far from the
// anchor diagonal, which is why those knobs live on mapper.Options rather
// than on this package.
type Aligner interface {
	// Align extends c against idx's reference sequence for the strand/region
	// it covers and returns the CIGAR plus edit distance. seq is the query
	// in its original (forward) orientation; Align is responsible for
	// reverse-complementing when c.Strand is Reverse.
	Align(c chain.Chain, seq []byte, idx index.Index, opts mapper.Options) (cigar []mapper.CigarOp, nm int32, ok bool)
}

// Passthrough is a no-op Aligner: it reports every chain as accepted with no
// CIGAR and an unknown (-1) edit distance. It exists so CIGAR/ExtEnd can be
// exercised by tests and by a deployment that has not wired in a real
// base-level aligner yet.
type Passthrough struct{}

// Align implements Aligner.
func (Passthrough) Align(chain.Chain, []byte, index.Index, mapper.Options) ([]mapper.CigarOp, int32, bool) {
	return nil, -1, true
}
