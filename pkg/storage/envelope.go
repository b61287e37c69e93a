package storage

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// envelopeHeaderSize is CRC32(4) + Code(2) + Timestamp(8) + FrameSize(4).
const envelopeHeaderSize = 18

// Entry is a stored frame with integrity metadata.
// Format: [CRC32(4)][Code(2)][Timestamp(8)][FrameSize(4)][Frame]
type Entry struct {
	CRC32     uint32
	Code      codec.Discriminator
	Timestamp uint64
	Frame     []byte
}

// NewEntry wraps an encoded frame, stamped with now.
func NewEntry(frame []byte, now time.Time) (*Entry, error) {
	if len(frame) < codec.CodeSize {
		return nil, errors.Wrapf(ErrCorrupted, "frame of %d bytes has no discriminator", len(frame))
	}
	if uint64(len(frame)) > uint64(^uint32(0)) {
		return nil, errors.Newf("storage: frame of %d bytes is too large", len(frame))
	}
	e := &Entry{
		Code:      codec.Discriminator(binary.BigEndian.Uint16(frame)),
		Timestamp: uint64(now.UnixNano()),
		Frame:     frame,
	}
	e.CRC32 = e.checksum()
	return e, nil
}

// Size returns the encoded size of the entry.
func (e *Entry) Size() int {
	return envelopeHeaderSize + len(e.Frame)
}

// Time returns the entry timestamp.
func (e *Entry) Time() time.Time {
	return time.Unix(0, int64(e.Timestamp))
}

// MarshalBinary encodes the entry.
func (e *Entry) MarshalBinary() ([]byte, error) {
	buf := make([]byte, e.Size())
	binary.BigEndian.PutUint32(buf[0:], e.CRC32)
	binary.BigEndian.PutUint16(buf[4:], uint16(e.Code))
	binary.BigEndian.PutUint64(buf[6:], e.Timestamp)
	binary.BigEndian.PutUint32(buf[14:], uint32(len(e.Frame)))
	copy(buf[envelopeHeaderSize:], e.Frame)
	return buf, nil
}

// UnmarshalEntry decodes an entry and verifies its checksum. The frame is
// copied out of data.
func UnmarshalEntry(data []byte) (*Entry, error) {
	if len(data) < envelopeHeaderSize {
		return nil, errors.Wrapf(ErrCorrupted, "entry of %d bytes is shorter than its header", len(data))
	}

	e := &Entry{
		CRC32:     binary.BigEndian.Uint32(data[0:4]),
		Code:      codec.Discriminator(binary.BigEndian.Uint16(data[4:6])),
		Timestamp: binary.BigEndian.Uint64(data[6:14]),
	}
	size := binary.BigEndian.Uint32(data[14:18])
	if uint64(len(data)-envelopeHeaderSize) != uint64(size) {
		return nil, errors.Wrapf(ErrCorrupted, "entry declares %d frame bytes, has %d", size, len(data)-envelopeHeaderSize)
	}
	e.Frame = append([]byte(nil), data[envelopeHeaderSize:]...)

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the entry checksum.
func (e *Entry) Validate() error {
	if sum := e.checksum(); e.CRC32 != sum {
		return errors.Wrapf(ErrCorrupted, "CRC32 mismatch: %d != %d", e.CRC32, sum)
	}
	return nil
}

// checksum covers every field but the CRC itself.
func (e *Entry) checksum() uint32 {
	var header [14]byte
	binary.BigEndian.PutUint16(header[0:], uint16(e.Code))
	binary.BigEndian.PutUint64(header[2:], e.Timestamp)
	binary.BigEndian.PutUint32(header[10:], uint32(len(e.Frame)))

	crc := crc32.NewIEEE()
	_, _ = crc.Write(header[:])
	_, _ = crc.Write(e.Frame)
	return crc.Sum32()
}
