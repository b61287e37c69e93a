// Package framelog keeps append-only files of concatenated frames, the
// format the decode and inspect commands read.
package framelog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// Writer appends framed values to a log file
type Writer struct {
	file       *os.File
	stream     *codec.StreamWriter
	codec      *codec.Codec
	fsyncTimer *time.Timer
	config     WriterConfig
	mutex      sync.Mutex
	base       int64 // File size when the writer was opened
	closed     bool
}

// OpenWriter opens or creates the log at config.Path for appending
func OpenWriter(config WriterConfig, c *codec.Codec) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if config.Truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(config.Path, flags, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open log %s", config.Path)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "stat log %s", config.Path)
	}

	stream := codec.NewStreamWriter(file)
	w := &Writer{
		file:   file,
		stream: stream,
		codec:  c,
		config: config,
		base:   stat.Size(),
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			if !w.closed {
				_ = w.sync()
			}
		})
	}
	return w, nil
}

// Append writes v as one frame and returns the offset the frame starts at.
// A value that fails to encode leaves the log untouched.
func (w *Writer) Append(v codec.Value) (int64, error) {
	frame, err := w.codec.Encode(v)
	if err != nil {
		return 0, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	offset := w.base + w.stream.Written()
	if err := w.stream.WriteBytes(frame); err != nil {
		return 0, errors.Wrapf(err, "append frame at offset %d", offset)
	}

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}
	return offset, nil
}

// Sync forces buffered frames to disk
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.stream.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the log
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}
	if err := w.sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the size of the log including buffered frames
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.base + w.stream.Written()
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.Path
}
