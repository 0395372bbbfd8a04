// Package chain implements Chainer (spec §4.4: sparse colinear DP chaining)
// and ChainPostproc (spec §4.5: parent/child assignment, primary/secondary
// selection, long-chain joining, and mapping quality).
package chain

import (
	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/anchor"
)

// Chain is a colinear, gap-bounded sub-sequence of anchors sharing strand
// and reference id (spec §3, "Chain").
type Chain struct {
	Anchors []anchor.Anchor // ascending by QPos; Anchors[0]..Anchors[len-1] is the chain in order

	RefID  int32
	Strand mapper.Strand

	QStart, QEnd int32
	RStart, REnd int32

	Score int32

	// Parent is the index, within the slice this Chain lives in, of the
	// chain it was assigned as a child of (spec §4.5.1); a primary chain is
	// its own parent. Set by Postprocess, zero before that.
	Parent int
	// Primary/Secondary are set by Postprocess (spec §4.5.2).
	Primary   bool
	Secondary bool

	// NSub and SubScore are the number of sibling chains competing for the
	// same parent family and the best sibling score, tracked for MapQ (spec
	// §4.5.4, supplemented per SPEC_FULL.md §3 "n_sub / sub_score tracking").
	NSub     int
	SubScore int32

	MapQ uint8
}
