package framelog

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// Reader provides sequential access to the frames of a log file
type Reader struct {
	file   *os.File
	stream *codec.StreamReader
	frames *codec.Reader
	start  int64
}

// OpenReader opens the log at config.Path
func OpenReader(config ReaderConfig, c *codec.Codec) (*Reader, error) {
	file, err := os.Open(config.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log %s", config.Path)
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	stream := codec.NewStreamReader(file)
	return &Reader{
		file:   file,
		stream: stream,
		frames: c.NewReader(stream),
		start:  config.StartOffset,
	}, nil
}

// Next reads the next value. It returns io.EOF at the clean end of the
// log and ErrTruncated when the log ends inside a frame. A frame with an
// unknown discriminator yields an UnknownDiscriminatorError; the reader
// has moved past it and Next may be called again.
func (r *Reader) Next() (codec.Value, error) {
	if r.stream.AtEOF() {
		return nil, io.EOF
	}
	offset := r.Offset()
	v, err := r.frames.ReadValue()
	if errors.Is(err, codec.ErrBounds) && r.stream.AtEOF() {
		return nil, errors.Wrapf(ErrTruncated, "frame at offset %d", offset)
	}
	return v, err
}

// Offset returns the offset of the next frame
func (r *Reader) Offset() int64 {
	return r.start + r.stream.Consumed()
}

// Close closes the log file
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns every value in the log at path.
func ReadAll(path string, c *codec.Codec) ([]codec.Value, error) {
	r, err := OpenReader(ReaderConfig{Path: path}, c)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var values []codec.Value
	for {
		v, err := r.Next()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
}

// Recover scans the log at path and cuts it at the first frame that cannot
// be walked, usually a partial frame left by a crash. Frames are skipped,
// not decoded, so frames with unknown discriminators survive recovery.
func Recover(path string, c *codec.Codec) (RecoveryResult, error) {
	var res RecoveryResult

	file, err := os.Open(path)
	if err != nil {
		return res, errors.Wrapf(err, "open log %s", path)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return res, err
	}

	stream := codec.NewStreamReader(file)
	frames := c.NewReader(stream)
	for !stream.AtEOF() {
		_, err := frames.SkipFrame()
		if codec.IsUnknownDiscriminator(err) {
			res.UnknownFrames++
		} else if err != nil {
			if !errors.Is(err, codec.ErrBounds) {
				_ = file.Close()
				return res, err
			}
			break
		}
		res.Frames++
		res.ValidSize = stream.Consumed()
	}
	if err := file.Close(); err != nil {
		return res, err
	}

	res.TruncatedBytes = stat.Size() - res.ValidSize
	if res.TruncatedBytes > 0 {
		if err := os.Truncate(path, res.ValidSize); err != nil {
			return res, errors.Wrapf(err, "truncate log %s", path)
		}
	}
	return res, nil
}
