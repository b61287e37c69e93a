package framelog

import (
	"time"

	"github.com/cockroachdb/errors"
)

// WriterConfig holds configuration for the log writer
type WriterConfig struct {
	Path          string        // Path to the log file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	Truncate      bool          // Discard existing contents on open
}

// ReaderConfig holds configuration for the log reader
type ReaderConfig struct {
	Path        string // Path to the log file
	StartOffset int64  // Offset of the first frame to read
}

// RecoveryResult reports what Recover found in a log file
type RecoveryResult struct {
	Frames         int   // Complete frames kept
	ValidSize      int64 // Bytes covered by those frames
	TruncatedBytes int64 // Bytes cut from the tail
	UnknownFrames  int   // Frames with an unbound discriminator, kept as is
}

// Errors
var (
	ErrTruncated = errors.New("framelog: log ends inside a frame")
	ErrClosed    = errors.New("framelog: writer closed")
)
