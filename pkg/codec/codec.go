package codec

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Limits constrains the lengths a reader accepts from the wire.
type Limits struct {
	// MaxFrameBytes caps any declared frame length. Zero disables the cap.
	MaxFrameBytes int64
	// MaxDepth caps how deeply frames may nest inside one another while
	// reading. Zero disables the cap.
	MaxDepth int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 64 * 1024 * 1024,
		MaxDepth:      1024,
	}
}

// Codec frames polymorphic values using a discriminator registry. A Codec
// is immutable once built and may be shared; the Readers and Writers it
// hands out are bound to a single carrier and are not.
type Codec struct {
	registry Registry
	limits   Limits
	log      zerolog.Logger
	metrics  *Metrics
}

// Option configures a Codec.
type Option func(*Codec)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(c *Codec) { c.limits = l }
}

// WithLogger sets the logger used for data-loss warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Codec) { c.log = l }
}

// WithMetrics sets the collectors updated on every frame.
func WithMetrics(m *Metrics) Option {
	return func(c *Codec) { c.metrics = m }
}

// New creates a codec that resolves discriminators through reg.
func New(reg Registry, opts ...Option) *Codec {
	c := &Codec{
		registry: reg,
		limits:   DefaultLimits(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the codec dispatches through.
func (c *Codec) Registry() Registry {
	return c.registry
}

// NewWriter binds the codec to s.
func (c *Codec) NewWriter(s Sink) *Writer {
	return &Writer{Sink: s, codec: c}
}

// NewReader binds the codec to s.
func (c *Codec) NewReader(s Source) *Reader {
	return &Reader{Source: s, codec: c}
}

// Encode returns the frame of v in a freshly sized buffer.
func (c *Codec) Encode(v Value) ([]byte, error) {
	buf := NewBuffer(int(TotalSize(v)))
	if err := c.NewWriter(buf).WriteValue(v); err != nil {
		return nil, err
	}
	buf.Flip()
	return buf.Bytes(), nil
}

// Decode reads a single frame from data.
func (c *Codec) Decode(data []byte) (Value, error) {
	return c.NewReader(WrapBuffer(data)).ReadValue()
}

// Writer writes primitives and framed values to one Sink.
type Writer struct {
	Sink
	codec *Codec
}

// WriteValue writes v as a frame:
//
//	[2B code] [8B length, variable types only] [UTF tag, tag-bearing only] [payload]
//
// An absent v is written as the Absent code alone. Nothing is written when
// v's type has no discriminator.
func (w *Writer) WriteValue(v Value) error {
	if IsAbsent(v) {
		return w.WriteInt16(int16(Absent))
	}

	reg := w.codec.registry
	code := reg.Code(v)
	if code == Absent {
		return &NoMatchingDiscriminatorError{Type: TypeName(v)}
	}
	b, err := reg.Builder(code)
	if err != nil {
		return err
	}

	tv, tagged := v.(TaggedValue)
	if tagged != b.Tagged() {
		return errors.Wrapf(ErrTagMismatch, "%s", TypeName(v))
	}
	if tagged {
		if err := checkUTF(tv.Tag()); err != nil {
			return err
		}
	}
	// ByteSize walks the whole subtree, so it is computed once per frame.
	size := v.ByteSize()
	fixed := v.FinalSize()
	if fixed >= 0 && fixed != size {
		return errors.Wrapf(ErrSizeMismatch, "%s: final size %d, byte size %d", TypeName(v), fixed, size)
	}

	if err := w.WriteInt16(int16(code)); err != nil {
		return err
	}
	if fixed < 0 {
		length := size
		if tagged {
			length += UTFSize(tv.Tag())
		}
		if err := w.WriteInt64(length); err != nil {
			return err
		}
	}
	if tagged {
		if err := w.WriteUTF(tv.Tag()); err != nil {
			return err
		}
	}

	start := w.Written()
	if err := v.WritePayload(w); err != nil {
		return err
	}
	if n := w.Written() - start; n != size {
		return errors.Wrapf(ErrSizeMismatch, "%s wrote %d bytes, reported %d", TypeName(v), n, size)
	}

	w.codec.metrics.recordWrite(code)
	return nil
}

// FrameInfo describes a frame header.
type FrameInfo struct {
	Code Discriminator
	// Size is the full frame size including the header.
	Size int64
	// Declared is the length the frame accounts for after the code and
	// the optional length field.
	Declared int64
	Tag      string
	Builder  string
}

// Reader reads primitives and framed values from one Source.
type Reader struct {
	Source
	codec *Codec
	depth int
}

// ReadValue reads one frame and materializes its value. An Absent code
// yields a nil Value. When the builder consumes less than the frame
// declares, the remainder is skipped and a warning is logged; this is not
// an error.
func (r *Reader) ReadValue() (Value, error) {
	r.depth++
	defer func() { r.depth-- }()
	if limit := r.codec.limits.MaxDepth; limit > 0 && r.depth > limit {
		return nil, boundsf("nesting depth %d exceeds limit %d", r.depth, limit)
	}

	start := r.Consumed()
	info, b, err := r.readHeader()
	if err != nil || info.Code == Absent {
		return nil, err
	}

	v, err := b.Build(r, info.Tag)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s (code %d)", b.Name(), info.Code)
	}

	end := start + info.Size
	consumed := r.Consumed()
	switch {
	case consumed > end:
		return nil, boundsf("%s consumed %d bytes of a %d byte frame", b.Name(), consumed-start, info.Size)
	case consumed < end:
		missing := end - consumed
		r.codec.log.Warn().
			Int16("code", int16(info.Code)).
			Str("builder", b.Name()).
			Int64("frame_size", info.Size).
			Int64("consumed", consumed-start).
			Int64("skipped", missing).
			Msg("frame not fully consumed, skipping remainder; trailing data is lost")
		r.codec.metrics.recordShortfall(missing)
		if err := r.Skip(missing); err != nil {
			return nil, err
		}
	}

	r.codec.metrics.recordRead(info.Code)
	return v, nil
}

// SkipValue moves past one frame without materializing it.
func (r *Reader) SkipValue() error {
	_, err := r.SkipFrame()
	return err
}

// SkipFrame moves past one frame and reports its header. Frames with an
// unbound code are skipped too, and their *UnknownDiscriminatorError is
// returned alongside the header.
func (r *Reader) SkipFrame() (FrameInfo, error) {
	start := r.Consumed()
	info, _, err := r.readHeader()
	if err != nil || info.Code == Absent {
		return info, err
	}
	rest := start + info.Size - r.Consumed()
	if rest < 0 {
		return info, boundsf("frame header overran declared size %d", info.Size)
	}
	if err := r.Skip(rest); err != nil {
		return info, err
	}
	r.codec.metrics.recordSkip()
	return info, nil
}

func (r *Reader) readHeader() (FrameInfo, Builder, error) {
	raw, err := r.ReadInt16()
	if err != nil {
		return FrameInfo{}, nil, err
	}
	info := FrameInfo{Code: Discriminator(raw), Size: CodeSize}
	if info.Code == Absent {
		return info, nil, nil
	}

	b, err := r.codec.registry.Builder(info.Code)
	if err != nil {
		if !IsUnknownDiscriminator(err) {
			return info, nil, err
		}
		r.codec.metrics.recordUnknown(info.Code)
		n, lerr := r.readLength()
		if lerr != nil {
			return info, nil, lerr
		}
		info.Declared = n
		info.Size += LengthSize + n
		if serr := r.Skip(n); serr != nil {
			return info, nil, serr
		}
		return info, nil, err
	}
	info.Builder = b.Name()

	fixed := b.FixedSize()
	if fixed >= 0 {
		info.Declared = fixed
	} else {
		n, err := r.readLength()
		if err != nil {
			return info, nil, err
		}
		info.Declared = n
		info.Size += LengthSize
	}

	if b.Tagged() {
		tag, err := r.ReadUTF()
		if err != nil {
			return info, nil, err
		}
		info.Tag = tag
		if fixed >= 0 {
			info.Declared += UTFSize(tag)
		}
	}
	info.Size += info.Declared
	return info, b, nil
}

func (r *Reader) readLength() (int64, error) {
	n, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, boundsf("negative frame length %d", n)
	}
	if limit := r.codec.limits.MaxFrameBytes; limit > 0 && n > limit {
		return 0, boundsf("frame length %d exceeds limit %d", n, limit)
	}
	if src, ok := r.Source.(bounded); ok && n > src.Remaining() {
		return 0, boundsf("frame length %d exceeds %d remaining bytes", n, src.Remaining())
	}
	return n, nil
}
