package codec

import (
	"reflect"
)

// testRegistry is a minimal Registry for exercising the framing layer
// without the discriminator package.
type testRegistry struct {
	byCode map[Discriminator]Builder
	byType map[reflect.Type]Discriminator
}

func newTestRegistry() *testRegistry {
	r := &testRegistry{
		byCode: make(map[Discriminator]Builder),
		byType: make(map[reflect.Type]Discriminator),
	}
	r.add(&counter{}, 7, counterBuilder)
	r.add(&note{}, 8, noteBuilder)
	r.add(&label{}, 9, labelBuilder)
	r.add(&badge{}, 10, badgeBuilder)
	r.add(&pair{}, 11, pairBuilder)
	return r
}

func (r *testRegistry) add(proto Value, code Discriminator, b Builder) {
	r.byCode[code] = b
	r.byType[reflect.TypeOf(proto)] = code
}

func (r *testRegistry) Builder(code Discriminator) (Builder, error) {
	b, ok := r.byCode[code]
	if !ok {
		return nil, &UnknownDiscriminatorError{Code: code}
	}
	return b, nil
}

func (r *testRegistry) Code(v Value) Discriminator {
	code, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return Absent
	}
	return code
}

// counter has a fixed 4-byte payload.
type counter struct {
	N int32
}

func (c *counter) WritePayload(w *Writer) error { return w.WriteInt32(c.N) }
func (c *counter) ByteSize() int64              { return 4 }
func (c *counter) FinalSize() int64             { return 4 }

var counterBuilder = NewBuilder("counter", false, 4, func(r *Reader, _ string) (Value, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return &counter{N: n}, nil
})

// note has a variable UTF payload.
type note struct {
	Text string
}

func (n *note) WritePayload(w *Writer) error { return w.WriteUTF(n.Text) }
func (n *note) ByteSize() int64              { return UTFSize(n.Text) }
func (n *note) FinalSize() int64             { return -1 }

var noteBuilder = NewBuilder("note", false, -1, func(r *Reader, _ string) (Value, error) {
	s, err := r.ReadUTF()
	if err != nil {
		return nil, err
	}
	return &note{Text: s}, nil
})

// label is tag-bearing with a variable size.
type label struct {
	Name  string
	Count int32
}

func (l *label) Tag() string                  { return l.Name }
func (l *label) WritePayload(w *Writer) error { return w.WriteInt32(l.Count) }
func (l *label) ByteSize() int64              { return 4 }
func (l *label) FinalSize() int64             { return -1 }

var labelBuilder = NewBuilder("label", true, -1, func(r *Reader, tag string) (Value, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return &label{Name: tag, Count: n}, nil
})

// badge is tag-bearing with a fixed size.
type badge struct {
	Name  string
	Level int16
}

func (b *badge) Tag() string                  { return b.Name }
func (b *badge) WritePayload(w *Writer) error { return w.WriteInt16(b.Level) }
func (b *badge) ByteSize() int64              { return 2 }
func (b *badge) FinalSize() int64             { return 2 }

var badgeBuilder = NewBuilder("badge", true, 2, func(r *Reader, tag string) (Value, error) {
	n, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	return &badge{Name: tag, Level: n}, nil
})

// pair nests two framed values.
type pair struct {
	Left, Right Value
}

func (p *pair) WritePayload(w *Writer) error {
	if err := w.WriteValue(p.Left); err != nil {
		return err
	}
	return w.WriteValue(p.Right)
}
func (p *pair) ByteSize() int64  { return TotalSize(p.Left) + TotalSize(p.Right) }
func (p *pair) FinalSize() int64 { return -1 }

var pairBuilder = NewBuilder("pair", false, -1, func(r *Reader, _ string) (Value, error) {
	left, err := r.ReadValue()
	if err != nil {
		return nil, err
	}
	right, err := r.ReadValue()
	if err != nil {
		return nil, err
	}
	return &pair{Left: left, Right: right}, nil
})

// versioned writes two fields; versionedV1Builder only knows the first.
type versioned struct {
	A int32
	B int16
}

func (v *versioned) WritePayload(w *Writer) error {
	if err := w.WriteInt32(v.A); err != nil {
		return err
	}
	return w.WriteInt16(v.B)
}
func (v *versioned) ByteSize() int64  { return 6 }
func (v *versioned) FinalSize() int64 { return -1 }

var versionedV1Builder = NewBuilder("versioned.v1", false, -1, func(r *Reader, _ string) (Value, error) {
	a, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return &versioned{A: a}, nil
})

// liar reports a size it does not write.
type liar struct{}

func (l *liar) WritePayload(w *Writer) error { return w.WriteInt32(1) }
func (l *liar) ByteSize() int64              { return 8 }
func (l *liar) FinalSize() int64             { return -1 }

// unregistered has no discriminator in testRegistry.
type unregistered struct{}

func (u *unregistered) WritePayload(w *Writer) error { return nil }
func (u *unregistered) ByteSize() int64              { return 0 }
func (u *unregistered) FinalSize() int64             { return 0 }
