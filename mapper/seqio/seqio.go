// Package seqio implements the seqio collaborator (spec §6): streaming
// FASTA/FASTQ readers that feed BatchPipeline mini-batches of queries. It
// adapts encoding/fastq's Scanner-over-bufio.Scanner shape to FASTA records
// as well, and cleans every sequence with cleanASCIISeqInplace before it
// reaches Sketcher, the same normalization fasta.New applies when OptClean
// is set.
package seqio

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/bio/encoding/fastq"
	"github.com/grailbio/bio/mapper/pipeline"
)

const maxRecordBytes = 1 << 30 // generous enough for the longest ultra-long nanopore reads

// cleanASCIISeqTable capitalizes 'a'/'c'/'g'/'t' and replaces everything
// else with 'N', table-driven the same way biosimd.CleanASCIISeqInplace is;
// extracted directly into seqio since it is the only caller of that
// function in this tree.
var cleanASCIISeqTable = [256]byte{
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'A', 'N', 'C', 'N', 'N', 'N', 'G', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'T', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'A', 'N', 'C', 'N', 'N', 'N', 'G', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'T', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
}

func cleanASCIISeqInplace(seq []byte) {
	for i, b := range seq {
		seq[i] = cleanASCIISeqTable[b]
	}
}

// FASTAReader implements pipeline.Reader over FASTA-formatted input.
// Scanners are not thread-safe; each BatchPipeline uses exactly one,
// owned by its reader goroutine.
type FASTAReader struct {
	sc          *bufio.Scanner
	pendingName string
	started     bool
	done        bool
}

// NewFASTAReader returns a FASTAReader over r.
func NewFASTAReader(r io.Reader) *FASTAReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	return &FASTAReader{sc: sc}
}

// ReadBatch implements pipeline.Reader.
func (f *FASTAReader) ReadBatch(n int) ([]pipeline.Query, error) {
	var out []pipeline.Query
	for len(out) < n {
		q, err := f.next()
		if q != nil {
			out = append(out, *q)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (f *FASTAReader) next() (*pipeline.Query, error) {
	if f.done {
		return nil, io.EOF
	}
	name := f.pendingName
	f.pendingName = ""
	if !f.started {
		f.started = true
		for name == "" {
			if !f.sc.Scan() {
				f.done = true
				return nil, f.eofOrErr()
			}
			if line := f.sc.Bytes(); len(line) > 0 && line[0] == '>' {
				name = parseFASTAName(line)
			}
		}
	}

	var seq bytes.Buffer
	for f.sc.Scan() {
		line := f.sc.Bytes()
		if len(line) > 0 && line[0] == '>' {
			f.pendingName = parseFASTAName(line)
			break
		}
		seq.Write(line)
	}
	if err := f.sc.Err(); err != nil {
		f.done = true
		return nil, err
	}
	var err error
	if f.pendingName == "" {
		f.done = true
		err = io.EOF
	}
	clean := append([]byte(nil), seq.Bytes()...)
	cleanASCIISeqInplace(clean)
	return &pipeline.Query{Name: name, Seq: clean}, err
}

func (f *FASTAReader) eofOrErr() error {
	if err := f.sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func parseFASTAName(headerLine []byte) string {
	s := string(headerLine[1:])
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	return s
}

// FASTQReader implements pipeline.Reader over FASTQ-formatted input, built
// on encoding/fastq.Scanner.
type FASTQReader struct {
	sc *fastq.Scanner
}

// NewFASTQReader returns a FASTQReader over r.
func NewFASTQReader(r io.Reader) *FASTQReader {
	return &FASTQReader{sc: fastq.NewScanner(r, fastq.ID|fastq.Seq)}
}

// ReadBatch implements pipeline.Reader.
func (f *FASTQReader) ReadBatch(n int) ([]pipeline.Query, error) {
	var out []pipeline.Query
	var rd fastq.Read
	for len(out) < n {
		if !f.sc.Scan(&rd) {
			if err := f.sc.Err(); err != nil {
				return out, err
			}
			return out, io.EOF
		}
		seq := []byte(rd.Seq)
		cleanASCIISeqInplace(seq)
		out = append(out, pipeline.Query{Name: parseFASTQName(rd.ID), Seq: seq})
	}
	return out, nil
}

func parseFASTQName(id string) string {
	id = strings.TrimPrefix(id, "@")
	if i := strings.IndexByte(id, ' '); i >= 0 {
		id = id[:i]
	}
	return id
}
