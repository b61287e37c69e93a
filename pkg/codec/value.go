package codec

import (
	"reflect"
)

// Discriminator identifies the concrete type of a value on the wire.
type Discriminator int16

// Absent is the reserved discriminator written in place of a missing value.
const Absent Discriminator = -1

// Frame header sizes in bytes.
const (
	CodeSize   = 2
	LengthSize = 8
)

// Value is anything that can be framed by the codec.
type Value interface {
	// WritePayload writes the value's payload, excluding the frame header.
	WritePayload(w *Writer) error
	// ByteSize returns the exact number of payload bytes WritePayload emits.
	ByteSize() int64
	// FinalSize returns the static payload size of the type, or -1 when
	// the payload is variable and needs an explicit length prefix.
	FinalSize() int64
}

// TaggedValue is a value that also carries a name among its siblings.
type TaggedValue interface {
	Value
	Tag() string
}

// Builder materializes values of one registered type.
type Builder interface {
	Name() string
	Tagged() bool
	FixedSize() int64
	Build(r *Reader, tag string) (Value, error)
}

// BuildFunc reads a payload from r. tag is empty for types that are not
// tag-bearing.
type BuildFunc func(r *Reader, tag string) (Value, error)

type funcBuilder struct {
	name   string
	tagged bool
	size   int64
	fn     BuildFunc
}

// NewBuilder returns a Builder backed by fn.
func NewBuilder(name string, tagged bool, fixedSize int64, fn BuildFunc) Builder {
	return &funcBuilder{name: name, tagged: tagged, size: fixedSize, fn: fn}
}

func (b *funcBuilder) Name() string { return b.name }

func (b *funcBuilder) Tagged() bool { return b.tagged }

func (b *funcBuilder) FixedSize() int64 { return b.size }

func (b *funcBuilder) Build(r *Reader, tag string) (Value, error) {
	return b.fn(r, tag)
}

// Registry resolves discriminators for the codec.
type Registry interface {
	// Builder returns the builder bound to code or an *UnknownDiscriminatorError.
	Builder(code Discriminator) (Builder, error)
	// Code returns the discriminator of v's type, or Absent.
	Code(v Value) Discriminator
}

// IsAbsent reports whether v is nil or a typed nil pointer.
func IsAbsent(v Value) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// UTFSize returns the encoded size of s as a UTF string.
func UTFSize(s string) int64 {
	return 2 + int64(len(s))
}

// TotalSize returns the full frame size of v: discriminator, optional length
// prefix, optional tag and payload.
func TotalSize(v Value) int64 {
	if IsAbsent(v) {
		return CodeSize
	}
	size := int64(CodeSize) + v.ByteSize()
	if v.FinalSize() < 0 {
		size += LengthSize
	}
	if tv, ok := v.(TaggedValue); ok {
		size += UTFSize(tv.Tag())
	}
	return size
}

// TypeName returns the registry name of v's dynamic type.
func TypeName(v Value) string {
	return TypeNameOf(reflect.TypeOf(v))
}

// TypeNameOf returns pkgpath.Name for t, dereferencing pointers.
func TypeNameOf(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
