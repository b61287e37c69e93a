package codec

import (
	"encoding/binary"
	"math"
)

// Buffer is a bounded, randomly addressable byte carrier. Writes and reads
// advance a shared position that may not pass the limit.
//
// A freshly created buffer is ready for writing up to its capacity. Flip
// turns the written region into the readable region.
type Buffer struct {
	data  []byte
	pos   int
	limit int
}

// NewBuffer returns an empty buffer that can hold capacity bytes.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity), limit: capacity}
}

// WrapBuffer returns a buffer positioned at the start of b. The buffer
// shares b's memory.
func WrapBuffer(b []byte) *Buffer {
	return &Buffer{data: b, limit: len(b)}
}

// Flip sets the limit to the current position and rewinds to zero.
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
}

// Rewind moves the position back to zero, keeping the limit.
func (b *Buffer) Rewind() {
	b.pos = 0
}

// Reset rewinds and restores the limit to the full capacity.
func (b *Buffer) Reset() {
	b.pos = 0
	b.limit = len(b.data)
}

// Seek moves the position to pos.
func (b *Buffer) Seek(pos int64) error {
	if pos < 0 || pos > int64(b.limit) {
		return boundsf("seek to %d outside [0,%d]", pos, b.limit)
	}
	b.pos = int(pos)
	return nil
}

// Position returns the current offset.
func (b *Buffer) Position() int64 { return int64(b.pos) }

// Limit returns the current limit.
func (b *Buffer) Limit() int64 { return int64(b.limit) }

// Capacity returns the size of the backing array.
func (b *Buffer) Capacity() int { return len(b.data) }

// Remaining returns the bytes between the position and the limit.
func (b *Buffer) Remaining() int64 { return int64(b.limit - b.pos) }

// Bytes returns the unread region between the position and the limit.
func (b *Buffer) Bytes() []byte { return b.data[b.pos:b.limit] }

// Written implements Sink.
func (b *Buffer) Written() int64 { return int64(b.pos) }

// Consumed implements Source.
func (b *Buffer) Consumed() int64 { return int64(b.pos) }

// take reserves n bytes at the position and advances past them.
func (b *Buffer) take(n int) ([]byte, error) {
	if n < 0 || n > b.limit-b.pos {
		return nil, boundsf("need %d bytes at %d, limit %d", n, b.pos, b.limit)
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

func (b *Buffer) WriteByte(v byte) error {
	p, err := b.take(1)
	if err != nil {
		return err
	}
	p[0] = v
	return nil
}

func (b *Buffer) WriteBool(v bool) error {
	if v {
		return b.WriteByte(1)
	}
	return b.WriteByte(0)
}

func (b *Buffer) WriteChar(c rune) error {
	if err := checkChar(c); err != nil {
		return err
	}
	p, err := b.take(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p, uint16(c))
	return nil
}

func (b *Buffer) WriteInt16(v int16) error {
	p, err := b.take(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p, uint16(v))
	return nil
}

func (b *Buffer) WriteInt32(v int32) error {
	p, err := b.take(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p, uint32(v))
	return nil
}

func (b *Buffer) WriteInt64(v int64) error {
	p, err := b.take(8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(p, uint64(v))
	return nil
}

func (b *Buffer) WriteFloat32(v float32) error {
	return b.WriteInt32(int32(math.Float32bits(v)))
}

func (b *Buffer) WriteFloat64(v float64) error {
	return b.WriteInt64(int64(math.Float64bits(v)))
}

func (b *Buffer) WriteUTF(s string) error {
	if err := checkUTF(s); err != nil {
		return err
	}
	p, err := b.take(2 + len(s))
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p, uint16(len(s)))
	copy(p[2:], s)
	return nil
}

func (b *Buffer) WriteBytes(v []byte) error {
	p, err := b.take(len(v))
	if err != nil {
		return err
	}
	copy(p, v)
	return nil
}

func (b *Buffer) ReadByte() (byte, error) {
	p, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadByte()
	return v != 0, err
}

func (b *Buffer) ReadChar() (rune, error) {
	p, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return rune(binary.BigEndian.Uint16(p)), nil
}

func (b *Buffer) ReadInt16() (int16, error) {
	p, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(p)), nil
}

func (b *Buffer) ReadInt32() (int32, error) {
	p, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p)), nil
}

func (b *Buffer) ReadInt64() (int64, error) {
	p, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(p)), nil
}

func (b *Buffer) ReadFloat32() (float32, error) {
	v, err := b.ReadInt32()
	return math.Float32frombits(uint32(v)), err
}

func (b *Buffer) ReadFloat64() (float64, error) {
	v, err := b.ReadInt64()
	return math.Float64frombits(uint64(v)), err
}

func (b *Buffer) ReadUTF() (string, error) {
	p, err := b.take(2)
	if err != nil {
		return "", err
	}
	s, err := b.take(int(binary.BigEndian.Uint16(p)))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// ReadBytes returns a copy of the next n bytes.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	p, err := b.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, p)
	return out, nil
}

func (b *Buffer) Skip(n int64) error {
	if n < 0 || n > b.Remaining() {
		return boundsf("skip %d with %d remaining", n, b.Remaining())
	}
	b.pos += int(n)
	return nil
}
