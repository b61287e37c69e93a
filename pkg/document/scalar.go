package document

import (
	"github.com/ssargent/cerberus/pkg/codec"
)

// Int is a 32-bit integer.
type Int int32

func (v Int) WritePayload(w *codec.Writer) error { return w.WriteInt32(int32(v)) }
func (v Int) ByteSize() int64                    { return 4 }
func (v Int) FinalSize() int64                   { return 4 }

// Long is a 64-bit integer.
type Long int64

func (v Long) WritePayload(w *codec.Writer) error { return w.WriteInt64(int64(v)) }
func (v Long) ByteSize() int64                    { return 8 }
func (v Long) FinalSize() int64                   { return 8 }

// Double is a 64-bit IEEE float.
type Double float64

func (v Double) WritePayload(w *codec.Writer) error { return w.WriteFloat64(float64(v)) }
func (v Double) ByteSize() int64                    { return 8 }
func (v Double) FinalSize() int64                   { return 8 }

// Bool is a boolean.
type Bool bool

func (v Bool) WritePayload(w *codec.Writer) error { return w.WriteBool(bool(v)) }
func (v Bool) ByteSize() int64                    { return 1 }
func (v Bool) FinalSize() int64                   { return 1 }

// Text is a string, limited to codec.MaxUTFLength encoded bytes.
type Text string

func (v Text) WritePayload(w *codec.Writer) error { return w.WriteUTF(string(v)) }
func (v Text) ByteSize() int64                    { return codec.UTFSize(string(v)) }
func (v Text) FinalSize() int64                   { return -1 }

// Bytes is an opaque byte string. A nil Bytes is absent on the wire.
type Bytes []byte

func (v Bytes) WritePayload(w *codec.Writer) error {
	if err := w.WriteInt32(int32(len(v))); err != nil {
		return err
	}
	return w.WriteBytes(v)
}

func (v Bytes) ByteSize() int64  { return 4 + int64(len(v)) }
func (v Bytes) FinalSize() int64 { return -1 }

var (
	intBuilder = codec.NewBuilder("document.int", false, 4, func(r *codec.Reader, _ string) (codec.Value, error) {
		n, err := r.ReadInt32()
		return Int(n), err
	})

	longBuilder = codec.NewBuilder("document.long", false, 8, func(r *codec.Reader, _ string) (codec.Value, error) {
		n, err := r.ReadInt64()
		return Long(n), err
	})

	doubleBuilder = codec.NewBuilder("document.double", false, 8, func(r *codec.Reader, _ string) (codec.Value, error) {
		f, err := r.ReadFloat64()
		return Double(f), err
	})

	boolBuilder = codec.NewBuilder("document.bool", false, 1, func(r *codec.Reader, _ string) (codec.Value, error) {
		b, err := r.ReadBool()
		return Bool(b), err
	})

	textBuilder = codec.NewBuilder("document.text", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		s, err := r.ReadUTF()
		return Text(s), err
	})

	bytesBuilder = codec.NewBuilder("document.bytes", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		n, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, boundsf("negative byte string length %d", n)
		}
		p, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		return Bytes(p), nil
	})
)
