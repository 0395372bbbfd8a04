package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/anchor"
)

func opts() mapper.Options {
	o := mapper.DefaultOptions()
	o.MinCnt = 2
	o.MinChainScore = 1
	return o
}

func fwd(refPos, qpos int32, span uint32) anchor.Anchor {
	return anchor.Anchor{RevStrand: false, RefID: 0, RefPos: refPos, QPos: qpos, Span: span}
}

func TestChainAllJoinsColinearAnchors(t *testing.T) {
	anchors := []anchor.Anchor{
		fwd(100, 100, 15),
		fwd(120, 120, 15),
		fwd(140, 140, 15),
	}
	chains := ChainAll(anchors, opts())
	require.Len(t, chains, 1)
	assert.Len(t, chains[0].Anchors, 3)
	// RefPos/QPos are end-inclusive (spec §3): the first anchor's span-15
	// k-mer ending at 100 starts at 86, and the last one ending at 140 makes
	// the chain's half-open end 141.
	assert.EqualValues(t, 86, chains[0].RStart)
	assert.EqualValues(t, 141, chains[0].REnd)
	assert.EqualValues(t, 86, chains[0].QStart)
	assert.EqualValues(t, 141, chains[0].QEnd)
	assert.Equal(t, mapper.Forward, chains[0].Strand)
}

func TestChainAllSplitsOnBandwidthViolation(t *testing.T) {
	o := opts()
	o.Bw = 5
	anchors := []anchor.Anchor{
		fwd(100, 100, 15),
		fwd(120, 220, 15), // dr=20, dq=120, |dr-dq|=100 > bw: not chainable
	}
	chains := ChainAll(anchors, o)
	// Neither anchor alone reaches min_cnt=2, so both singleton "chains" are
	// dropped and the set is empty.
	assert.Empty(t, chains)
}

func TestChainAllRespectsMaxGap(t *testing.T) {
	o := opts()
	o.MaxGap = 50
	anchors := []anchor.Anchor{
		fwd(100, 100, 15),
		fwd(200, 200, 15), // dr=dq=100 > max_gap=50
	}
	chains := ChainAll(anchors, o)
	assert.Empty(t, chains)
}

func TestChainAllSeparatesStrandAndRefGroups(t *testing.T) {
	anchors := []anchor.Anchor{
		fwd(100, 100, 15),
		fwd(120, 120, 15),
		{RevStrand: true, RefID: 0, RefPos: 300, QPos: 10, Span: 15},
		{RevStrand: true, RefID: 0, RefPos: 320, QPos: 30, Span: 15},
	}
	chains := ChainAll(anchors, opts())
	require.Len(t, chains, 2)
	for _, c := range chains {
		assert.Len(t, c.Anchors, 2)
	}
}

func TestChainAllSortedByScoreDescending(t *testing.T) {
	anchors := []anchor.Anchor{
		fwd(100, 100, 30), fwd(130, 130, 30), fwd(160, 160, 30), // long chain, higher score
		{RevStrand: true, RefID: 1, RefPos: 1000, QPos: 10, Span: 15},
		{RevStrand: true, RefID: 1, RefPos: 1020, QPos: 30, Span: 15},
	}
	chains := ChainAll(anchors, opts())
	require.Len(t, chains, 2)
	assert.GreaterOrEqual(t, chains[0].Score, chains[1].Score)
}
