// Package mapperpb defines the wire format for BatchPipeline's optional
// debug batch log (SPEC_FULL.md §3, "-debug-log"): one gogo-protobuf
// message per processed mini-batch, giving github.com/gogo/protobuf a role
// in this tree the way biopb.Coord gives it one for encoding/pam. This is
// new scaffolding, not part of the mapping algorithm itself; disabling
// -debug-log removes it from the data path entirely.
package mapperpb

import (
	"github.com/gogo/protobuf/proto"
)

// CigarOp is one run-length-encoded CIGAR operation, the wire twin of
// mapper.CigarOp.
type CigarOp struct {
	Len int32 `protobuf:"varint,1,opt,name=len"`
	Op  int32 `protobuf:"varint,2,opt,name=op"` // ASCII code of one of MIDNSHP=X
}

func (m *CigarOp) Reset()         { *m = CigarOp{} }
func (m *CigarOp) String() string { return proto.CompactTextString(m) }
func (*CigarOp) ProtoMessage()    {}

// MappingRecord mirrors mapper.MappingRecord for the debug log: every field
// a batch log reader needs to reconstruct what QueryPipeline produced for
// one query, without depending on the mapper package's Go types.
type MappingRecord struct {
	RefId     int32      `protobuf:"varint,1,opt,name=ref_id,json=refId"`
	RStart    int32      `protobuf:"varint,2,opt,name=r_start,json=rStart"`
	REnd      int32      `protobuf:"varint,3,opt,name=r_end,json=rEnd"`
	QStart    int32      `protobuf:"varint,4,opt,name=q_start,json=qStart"`
	QEnd      int32      `protobuf:"varint,5,opt,name=q_end,json=qEnd"`
	QLen      int32      `protobuf:"varint,6,opt,name=q_len,json=qLen"`
	Strand    int32      `protobuf:"zigzag32,7,opt,name=strand"`
	Score     int32      `protobuf:"varint,8,opt,name=score"`
	NAnchors  int32      `protobuf:"varint,9,opt,name=n_anchors,json=nAnchors"`
	Parent    int32      `protobuf:"varint,10,opt,name=parent"`
	MapQ      uint32     `protobuf:"varint,11,opt,name=map_q,json=mapQ"`
	Secondary bool       `protobuf:"varint,12,opt,name=secondary"`
	Cigar     []*CigarOp `protobuf:"bytes,13,rep,name=cigar"`
	Nm        int32      `protobuf:"varint,14,opt,name=nm"`
}

func (m *MappingRecord) Reset()         { *m = MappingRecord{} }
func (m *MappingRecord) String() string { return proto.CompactTextString(m) }
func (*MappingRecord) ProtoMessage()    {}

// QueryResult is one mapped query's records, keyed by name so a batch log
// reader can line results back up with the input FASTA/FASTQ.
type QueryResult struct {
	Name    string           `protobuf:"bytes,1,opt,name=name"`
	Records []*MappingRecord `protobuf:"bytes,2,rep,name=records"`
}

func (m *QueryResult) Reset()         { *m = QueryResult{} }
func (m *QueryResult) String() string { return proto.CompactTextString(m) }
func (*QueryResult) ProtoMessage()    {}

// Batch is one BatchPipeline mini-batch, the unit the debug log writes one
// length-prefixed message per.
type Batch struct {
	Seq     int64          `protobuf:"varint,1,opt,name=seq"`
	Results []*QueryResult `protobuf:"bytes,2,rep,name=results"`
}

func (m *Batch) Reset()         { *m = Batch{} }
func (m *Batch) String() string { return proto.CompactTextString(m) }
func (*Batch) ProtoMessage()    {}

func init() {
	proto.RegisterType((*CigarOp)(nil), "mapperpb.CigarOp")
	proto.RegisterType((*MappingRecord)(nil), "mapperpb.MappingRecord")
	proto.RegisterType((*QueryResult)(nil), "mapperpb.QueryResult")
	proto.RegisterType((*Batch)(nil), "mapperpb.Batch")
}
