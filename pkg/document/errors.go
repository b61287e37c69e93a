package document

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// ErrNotTagged is returned when a value that must carry a tag does not.
var ErrNotTagged = errors.New("document: child is not tag-bearing")

func boundsf(format string, args ...interface{}) error {
	return errors.Wrapf(codec.ErrBounds, format, args...)
}
