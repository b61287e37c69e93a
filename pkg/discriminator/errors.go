package discriminator

import "github.com/cockroachdb/errors"

// Errors
var (
	ErrCodeInUse      = errors.New("discriminator: code already bound")
	ErrTypeRegistered = errors.New("discriminator: type already bound")
	ErrReservedCode   = errors.New("discriminator: code is reserved for absent values")
	ErrInvalidBinding = errors.New("discriminator: invalid binding")
	ErrUnresolved     = errors.New("discriminator: name not resolvable")
)
