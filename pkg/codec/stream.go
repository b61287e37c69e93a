package codec

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// StreamWriter is a forward-only Sink over an io.Writer. It counts every
// byte handed to it so frame sizes can be checked without seeking.
type StreamWriter struct {
	writer  *bufio.Writer
	scratch [8]byte
	count   int64
}

// NewStreamWriter wraps w in a buffered, byte-counting sink. Call Flush
// before handing the underlying writer to anything else.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{writer: bufio.NewWriter(w)}
}

// Flush writes any buffered data to the underlying writer.
func (s *StreamWriter) Flush() error {
	return s.writer.Flush()
}

// Written implements Sink.
func (s *StreamWriter) Written() int64 { return s.count }

// ResetCount zeroes the byte counter. It must not be called while a value
// is being written.
func (s *StreamWriter) ResetCount() { s.count = 0 }

func (s *StreamWriter) write(p []byte) error {
	n, err := s.writer.Write(p)
	s.count += int64(n)
	return err
}

func (s *StreamWriter) WriteByte(v byte) error {
	if err := s.writer.WriteByte(v); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *StreamWriter) WriteBool(v bool) error {
	if v {
		return s.WriteByte(1)
	}
	return s.WriteByte(0)
}

func (s *StreamWriter) WriteChar(c rune) error {
	if err := checkChar(c); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(s.scratch[:2], uint16(c))
	return s.write(s.scratch[:2])
}

func (s *StreamWriter) WriteInt16(v int16) error {
	binary.BigEndian.PutUint16(s.scratch[:2], uint16(v))
	return s.write(s.scratch[:2])
}

func (s *StreamWriter) WriteInt32(v int32) error {
	binary.BigEndian.PutUint32(s.scratch[:4], uint32(v))
	return s.write(s.scratch[:4])
}

func (s *StreamWriter) WriteInt64(v int64) error {
	binary.BigEndian.PutUint64(s.scratch[:8], uint64(v))
	return s.write(s.scratch[:8])
}

func (s *StreamWriter) WriteFloat32(v float32) error {
	return s.WriteInt32(int32(math.Float32bits(v)))
}

func (s *StreamWriter) WriteFloat64(v float64) error {
	return s.WriteInt64(int64(math.Float64bits(v)))
}

func (s *StreamWriter) WriteUTF(str string) error {
	if err := checkUTF(str); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(s.scratch[:2], uint16(len(str)))
	if err := s.write(s.scratch[:2]); err != nil {
		return err
	}
	n, err := s.writer.WriteString(str)
	s.count += int64(n)
	return err
}

func (s *StreamWriter) WriteBytes(p []byte) error {
	return s.write(p)
}

// StreamReader is a forward-only Source over an io.Reader.
type StreamReader struct {
	reader  *bufio.Reader
	scratch [8]byte
	count   int64
}

// NewStreamReader wraps r in a buffered, byte-counting source.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Consumed implements Source.
func (s *StreamReader) Consumed() int64 { return s.count }

// ResetCount zeroes the byte counter. It must not be called while a value
// is being read.
func (s *StreamReader) ResetCount() { s.count = 0 }

// AtEOF reports whether the underlying reader has no more data.
func (s *StreamReader) AtEOF() bool {
	_, err := s.reader.Peek(1)
	return err != nil
}

func (s *StreamReader) fill(p []byte) error {
	n, err := io.ReadFull(s.reader, p)
	s.count += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrapf(ErrBounds, "stream ended after %d of %d bytes", n, len(p))
		}
		return err
	}
	return nil
}

func (s *StreamReader) ReadByte() (byte, error) {
	if err := s.fill(s.scratch[:1]); err != nil {
		return 0, err
	}
	return s.scratch[0], nil
}

func (s *StreamReader) ReadBool() (bool, error) {
	v, err := s.ReadByte()
	return v != 0, err
}

func (s *StreamReader) ReadChar() (rune, error) {
	if err := s.fill(s.scratch[:2]); err != nil {
		return 0, err
	}
	return rune(binary.BigEndian.Uint16(s.scratch[:2])), nil
}

func (s *StreamReader) ReadInt16() (int16, error) {
	if err := s.fill(s.scratch[:2]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(s.scratch[:2])), nil
}

func (s *StreamReader) ReadInt32() (int32, error) {
	if err := s.fill(s.scratch[:4]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(s.scratch[:4])), nil
}

func (s *StreamReader) ReadInt64() (int64, error) {
	if err := s.fill(s.scratch[:8]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(s.scratch[:8])), nil
}

func (s *StreamReader) ReadFloat32() (float32, error) {
	v, err := s.ReadInt32()
	return math.Float32frombits(uint32(v)), err
}

func (s *StreamReader) ReadFloat64() (float64, error) {
	v, err := s.ReadInt64()
	return math.Float64frombits(uint64(v)), err
}

func (s *StreamReader) ReadUTF() (string, error) {
	if err := s.fill(s.scratch[:2]); err != nil {
		return "", err
	}
	p := make([]byte, binary.BigEndian.Uint16(s.scratch[:2]))
	if err := s.fill(p); err != nil {
		return "", err
	}
	return string(p), nil
}

func (s *StreamReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrBounds, "negative read length %d", n)
	}
	p := make([]byte, n)
	if err := s.fill(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *StreamReader) Skip(n int64) error {
	if n < 0 {
		return errors.Wrapf(ErrBounds, "negative skip %d", n)
	}
	skipped, err := io.CopyN(io.Discard, s.reader, n)
	s.count += skipped
	if err != nil {
		if err == io.EOF {
			return errors.Wrapf(ErrBounds, "stream ended after skipping %d of %d bytes", skipped, n)
		}
		return err
	}
	return nil
}
