package codec

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	// ErrBounds signals that a carrier was exhausted or that a declared length
	// is negative or larger than the data that can back it. It always means
	// the byte source is corrupt or truncated.
	ErrBounds = errors.New("codec: bounds fault")

	ErrStringTooLong = errors.New("codec: string exceeds 65535 encoded bytes")
	ErrCharRange     = errors.New("codec: char outside the 16-bit range")
	ErrSizeMismatch  = errors.New("codec: payload size differs from reported size")
	ErrTagMismatch   = errors.New("codec: value and builder disagree on tag-bearing")
)

// UnknownDiscriminatorError is returned when a code has no bound builder.
// On the read path the cursor has already been moved past the frame.
type UnknownDiscriminatorError struct {
	Code Discriminator
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("codec: unknown discriminator %d", e.Code)
}

// NoMatchingDiscriminatorError is returned when a value of an unregistered
// type is written.
type NoMatchingDiscriminatorError struct {
	Type string
}

func (e *NoMatchingDiscriminatorError) Error() string {
	return fmt.Sprintf("codec: no discriminator registered for %s", e.Type)
}

// IsUnknownDiscriminator reports whether err carries an UnknownDiscriminatorError.
func IsUnknownDiscriminator(err error) bool {
	var target *UnknownDiscriminatorError
	return errors.As(err, &target)
}

func boundsf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrBounds, format, args...)
}
