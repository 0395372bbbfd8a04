package mapperpb

import (
	"encoding/binary"
	"io"

	"github.com/gogo/protobuf/proto"
)

// LogWriter appends length-prefixed Batch messages to an underlying
// io.Writer (a plain file opened with -debug-log; rotation and compression
// are left to the caller, the same division markduplicates leaves to
// base/file for its outputs).
type LogWriter struct {
	w io.Writer
}

// NewLogWriter returns a LogWriter over w.
func NewLogWriter(w io.Writer) *LogWriter { return &LogWriter{w: w} }

// WriteBatch marshals b and appends it as one varint-length-prefixed
// protobuf record.
func (l *LogWriter) WriteBatch(b *Batch) error {
	buf, err := proto.Marshal(b)
	if err != nil {
		return err
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(buf)))
	if _, err := l.w.Write(lenBuf[:n]); err != nil {
		return err
	}
	_, err = l.w.Write(buf)
	return err
}

// LogReader reads Batch messages written by LogWriter, for offline
// inspection of a -debug-log file.
type LogReader struct {
	r *countingByteReader
}

// NewLogReader returns a LogReader over r.
func NewLogReader(r io.Reader) *LogReader {
	return &LogReader{r: &countingByteReader{r: r}}
}

// ReadBatch reads the next Batch, returning io.EOF once the log is
// exhausted.
func (l *LogReader) ReadBatch() (*Batch, error) {
	n, err := binary.ReadUvarint(l.r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(l.r, buf); err != nil {
		return nil, err
	}
	b := &Batch{}
	if err := proto.Unmarshal(buf, b); err != nil {
		return nil, err
	}
	return b, nil
}

// countingByteReader adapts an io.Reader to io.ByteReader, which
// binary.ReadUvarint requires.
type countingByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (c *countingByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(c.r, c.buf[:]); err != nil {
		return 0, err
	}
	return c.buf[0], nil
}
