// Package codec implements the cerberus wire format: big-endian primitives
// over two interchangeable byte carriers, and a self-describing frame that
// lets any registered value type be written and read back without the
// reader knowing the concrete type in advance.
//
// # Carriers
//
// Two carriers implement the same primitive operations:
//
//   - Buffer: a bounded, randomly addressable buffer with Flip, Rewind,
//     Reset and Seek. Reads and writes past the limit fail with ErrBounds.
//   - StreamWriter / StreamReader: forward-only carriers over an io.Writer
//     or io.Reader that count every byte they move.
//
// Primitives are fixed width and big-endian: byte, bool (1 byte, nonzero is
// true), char (2 bytes), int16, int32, int64, float32 and float64 (IEEE 754).
// Strings are written as a 2-byte unsigned length followed by the UTF-8
// bytes, which limits them to 65535 encoded bytes.
//
// # Frame Format
//
// Every polymorphic value is written as a frame:
//
//	[Code(2)][Length(8)][Tag(2+n)][Payload]
//
// Fields:
//   - Code: the discriminator bound to the value's type. Absent (-1) stands
//     for a missing value and is the whole frame.
//   - Length: present only when the type has no static payload size. It
//     counts the tag and the payload.
//   - Tag: present only for tag-bearing types (TaggedValue).
//   - Payload: written by the value itself.
//
// The discriminator is resolved through a Registry; see package
// discriminator for the standard implementation.
//
// # Usage
//
//	c := codec.New(registry)
//
//	// Encode a value
//	data, err := c.Encode(value)
//	if err != nil {
//	    return err
//	}
//
//	// Decode it again
//	decoded, err := c.Decode(data)
//	if err != nil {
//	    return err
//	}
//
// For streams, bind a Writer or Reader to a carrier:
//
//	w := c.NewWriter(codec.NewStreamWriter(file))
//	if err := w.WriteValue(value); err != nil {
//	    return err
//	}
//
// # Error Handling
//
//   - *NoMatchingDiscriminatorError: the value's type is not registered.
//     Raised before any byte is written.
//   - *UnknownDiscriminatorError: the frame carries a code with no builder.
//     The reader skips the declared length first, so the cursor is left on
//     the next frame boundary.
//   - ErrBounds: the carrier ran out or a declared length is negative or
//     implausible. Treat the source as corrupt.
//
// A builder that consumes fewer bytes than its frame declares is not an
// error: the remainder is skipped and a warning is logged, so newer writers
// can append trailing fields.
//
// Readers refuse frames nested deeper than Limits.MaxDepth with ErrBounds,
// so corrupt input cannot exhaust the goroutine stack.
//
// # Performance
//
// Composite values report their size by walking their children, and every
// nested frame needs its own length. WriteValue asks each value for its size
// once, but writing a value nested d levels deep still costs O(d²) size
// computations. Long trace chains pay this on every encode.
//
// # Thread Safety
//
// A Codec may be shared. Readers, Writers and carriers are bound to one
// byte session and must not be used from several goroutines at once.
package codec
