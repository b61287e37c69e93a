package codec

// MaxUTFLength is the largest encoded string a UTF field can hold.
const MaxUTFLength = 1<<16 - 1

// Sink is a byte carrier that values are written to. All multi-byte
// primitives are big-endian.
type Sink interface {
	WriteByte(b byte) error
	WriteBool(v bool) error
	WriteChar(c rune) error
	WriteInt16(v int16) error
	WriteInt32(v int32) error
	WriteInt64(v int64) error
	WriteFloat32(v float32) error
	WriteFloat64(v float64) error
	WriteUTF(s string) error
	WriteBytes(p []byte) error
	// Written returns the number of bytes written so far. It never
	// decreases within one session.
	Written() int64
}

// Source is a byte carrier that values are read from.
type Source interface {
	ReadByte() (byte, error)
	ReadBool() (bool, error)
	ReadChar() (rune, error)
	ReadInt16() (int16, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
	ReadUTF() (string, error)
	ReadBytes(n int) ([]byte, error)
	Skip(n int64) error
	// Consumed returns the number of bytes read or skipped so far.
	Consumed() int64
}

// bounded is implemented by sources that know how many bytes remain.
type bounded interface {
	Remaining() int64
}

func checkUTF(s string) error {
	if len(s) > MaxUTFLength {
		return ErrStringTooLong
	}
	return nil
}

func checkChar(c rune) error {
	if c < 0 || c > 0xFFFF {
		return ErrCharRange
	}
	return nil
}
