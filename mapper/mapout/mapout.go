// Package mapout implements the mapout collaborator (spec §6): serializing
// QueryPipeline's MappingRecords to PAF or SAM. Both writers implement
// mapper/pipeline.Writer so a BatchPipeline can write straight to either
// format. The SAM writer is built on github.com/biogo/hts/sam, the same
// package encoding/bam uses for in-memory SAM/BAM records.
package mapout

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/index"
	"github.com/grailbio/bio/mapper/pipeline"
)

// PAFWriter writes mapping results in minimap2's PAF text format. Queries
// with no mapping records produce no output line (PAF has no "unmapped"
// representation).
type PAFWriter struct {
	w   *bufio.Writer
	idx index.Index
}

// NewPAFWriter returns a PAFWriter over w, resolving reference names and
// lengths from idx.
func NewPAFWriter(w io.Writer, idx index.Index) *PAFWriter {
	return &PAFWriter{w: bufio.NewWriter(w), idx: idx}
}

// WriteBatch implements pipeline.Writer.
func (p *PAFWriter) WriteBatch(results []pipeline.Result) error {
	for _, r := range results {
		for i := range r.Records {
			if err := p.writeOne(r.Query.Name, &r.Records[i]); err != nil {
				return err
			}
		}
	}
	return p.w.Flush()
}

func (p *PAFWriter) writeOne(qname string, rec *mapper.MappingRecord) error {
	alnLen := rec.REnd - rec.RStart
	if q := rec.QEnd - rec.QStart; q > alnLen {
		alnLen = q
	}
	nMatch := alnLen
	if rec.NM >= 0 && alnLen-rec.NM >= 0 {
		nMatch = alnLen - rec.NM
	}
	tp := byte('P')
	if rec.Secondary {
		tp = 'S'
	}
	_, err := fmt.Fprintf(p.w, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%d\t%d\t%d\t%d\ttp:A:%c\tcm:i:%d\ts1:i:%d\n",
		qname, rec.QLen, rec.QStart, rec.QEnd,
		rec.Strand.Byte(),
		p.idx.RefName(rec.RefID), p.idx.RefLen(rec.RefID), rec.RStart, rec.REnd,
		nMatch, alnLen, rec.MapQ,
		tp, rec.NAnchors, rec.Score)
	return err
}

// SAMWriter writes mapping results as SAM records. Queries with no mapping
// records get a single unmapped SAM line, matching the convention
// encoding/bam expects of an unmapped read.
type SAMWriter struct {
	sw    *sam.Writer
	idx   index.Index
	refs  []*sam.Reference // header.Refs(), indexed the same as idx's ref_ids
	flags mapper.Flag
}

// NewSAMWriter returns a SAMWriter over w. refs must be in the same order as
// idx's ref_ids. flags' NoQual bit, when set, omits base qualities.
func NewSAMWriter(w io.Writer, idx index.Index, refs []*sam.Reference, flags mapper.Flag) (*SAMWriter, error) {
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, err
	}
	sw, err := sam.NewWriter(w, header, sam.FlagDecimal)
	if err != nil {
		return nil, err
	}
	// header.Refs() assigns each *sam.Reference its id; records must point at
	// these, not at freshly-built ones (encoding/bam.NewRecord rejects a
	// *sam.Reference whose id wasn't set by a header it was added to).
	return &SAMWriter{sw: sw, idx: idx, refs: header.Refs(), flags: flags}, nil
}

// WriteBatch implements pipeline.Writer.
func (s *SAMWriter) WriteBatch(results []pipeline.Result) error {
	for _, r := range results {
		if len(r.Records) == 0 {
			if err := s.writeUnmapped(r.Query); err != nil {
				return err
			}
			continue
		}
		for i := range r.Records {
			if err := s.writeOne(r.Query, &r.Records[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SAMWriter) writeUnmapped(q pipeline.Query) error {
	sr := &sam.Record{Name: q.Name, Pos: -1, MatePos: -1, Flags: sam.Unmapped}
	s.fillSeq(sr, q, s.flags.Has(mapper.NoQual))
	return s.sw.Write(sr)
}

func (s *SAMWriter) writeOne(q pipeline.Query, rec *mapper.MappingRecord) error {
	sr := &sam.Record{Name: q.Name, Ref: s.refs[rec.RefID], Pos: int(rec.RStart), MapQ: rec.MapQ, MatePos: -1}
	if rec.Strand == mapper.Reverse {
		sr.Flags |= sam.Reverse
	}
	if rec.Secondary {
		sr.Flags |= sam.Secondary
	}
	sr.Cigar = toSAMCigar(rec.CIGAR)
	s.fillSeq(sr, q, s.flags.Has(mapper.NoQual))
	if rec.NM >= 0 {
		if aux, err := sam.NewAux(samNMTag, int(rec.NM)); err == nil {
			sr.AuxFields = append(sr.AuxFields, aux)
		}
	}
	return s.sw.Write(sr)
}

func (s *SAMWriter) fillSeq(sr *sam.Record, q pipeline.Query, noQual bool) {
	sr.Seq = sam.NewSeq(q.Seq)
	if !noQual {
		qual := make([]byte, len(q.Seq))
		for i := range qual {
			qual[i] = 0xff // no base-quality source is wired in yet
		}
		sr.Qual = qual
	}
}

var samNMTag = sam.NewTag("NM")

func toSAMCigar(cigar []mapper.CigarOp) sam.Cigar {
	if len(cigar) == 0 {
		return nil
	}
	out := make(sam.Cigar, len(cigar))
	for i, op := range cigar {
		out[i] = sam.NewCigarOp(samOpType(op.Op), int(op.Len))
	}
	return out
}

func samOpType(op byte) sam.CigarOpType {
	switch op {
	case 'M':
		return sam.CigarMatch
	case 'I':
		return sam.CigarInsertion
	case 'D':
		return sam.CigarDeletion
	case 'N':
		return sam.CigarSkipped
	case 'S':
		return sam.CigarSoftClipped
	case 'H':
		return sam.CigarHardClipped
	case 'P':
		return sam.CigarPadded
	case '=':
		return sam.CigarEqual
	case 'X':
		return sam.CigarMismatch
	default:
		return sam.CigarMatch
	}
}
