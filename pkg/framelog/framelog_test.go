package framelog

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/discriminator"
	"github.com/ssargent/cerberus/pkg/document"
	"github.com/ssargent/cerberus/pkg/wire"
)

func newCodec(t *testing.T) *codec.Codec {
	t.Helper()
	reg, err := wire.NewRegistry()
	require.NoError(t, err)
	return codec.New(reg)
}

func writeLog(t *testing.T, path string, c *codec.Codec, values ...codec.Value) []int64 {
	t.Helper()
	w, err := OpenWriter(WriterConfig{Path: path}, c)
	require.NoError(t, err)
	offsets := make([]int64, 0, len(values))
	for _, v := range values {
		off, err := w.Append(v)
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	require.NoError(t, w.Close())
	return offsets
}

func TestWriter_AppendOffsets(t *testing.T) {
	c := newCodec(t)
	path := filepath.Join(t.TempDir(), "nested", "frames.log")

	offsets := writeLog(t, path, c, document.Int(1), document.Text("ab"), nil)
	// Int: 2+4, Text: 2+8+4, Absent: 2
	assert.Equal(t, []int64{0, 6, 20}, offsets)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(22), info.Size())
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Run("reopen appends", func(t *testing.T) {
		more := writeLog(t, path, c, document.Bool(true))
		assert.Equal(t, []int64{22}, more)
	})

	t.Run("truncate discards", func(t *testing.T) {
		w, err := OpenWriter(WriterConfig{Path: path, Truncate: true}, c)
		require.NoError(t, err)
		assert.Zero(t, w.Size())
		require.NoError(t, w.Close())
	})
}

func TestWriter_FsyncInterval(t *testing.T) {
	c := newCodec(t)
	path := filepath.Join(t.TempDir(), "frames.log")

	w, err := OpenWriter(WriterConfig{Path: path, FsyncInterval: time.Hour}, c)
	require.NoError(t, err)
	_, err = w.Append(document.Long(9))
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Size())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "frame stays buffered until sync")

	require.NoError(t, w.Sync())
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Append(document.Int(1))
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestReader_Next(t *testing.T) {
	c := newCodec(t)
	path := filepath.Join(t.TempDir(), "frames.log")
	doc := document.NewDoc("d", document.NewTag("k", document.Int(3)))
	offsets := writeLog(t, path, c, document.Int(1), doc, document.Text("z"))

	values, err := ReadAll(path, c)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, doc, values[1])

	t.Run("start offset", func(t *testing.T) {
		r, err := OpenReader(ReaderConfig{Path: path, StartOffset: offsets[2]}, c)
		require.NoError(t, err)
		defer r.Close()

		v, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, document.Text("z"), v)
		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})
}

type stray struct{}

func (stray) WritePayload(*codec.Writer) error { return nil }
func (stray) ByteSize() int64                  { return 0 }
func (stray) FinalSize() int64                 { return 0 }

func TestWriter_FailedAppendWritesNothing(t *testing.T) {
	c := newCodec(t)
	path := filepath.Join(t.TempDir(), "frames.log")

	w, err := OpenWriter(WriterConfig{Path: path}, c)
	require.NoError(t, err)

	// The list header is valid; its second element has no discriminator
	_, err = w.Append(document.NewList(document.Int(1), stray{}))
	var noMatch *codec.NoMatchingDiscriminatorError
	require.True(t, errors.As(err, &noMatch), "got %v", err)
	assert.Zero(t, w.Size())

	off, err := w.Append(document.Int(7))
	require.NoError(t, err)
	assert.Zero(t, off)
	require.NoError(t, w.Close())

	values, err := ReadAll(path, c)
	require.NoError(t, err)
	assert.Equal(t, []codec.Value{document.Int(7)}, values)
}

func TestReader_UnknownDiscriminator(t *testing.T) {
	full := newCodec(t)
	path := filepath.Join(t.TempDir(), "frames.log")
	writeLog(t, path, full, document.Text("skip me"), document.Int(5))

	// A reader that only knows ints
	reg := discriminator.New()
	require.NoError(t, reg.RegisterAll(document.Bindings()[0]))
	c := codec.New(reg)

	r, err := OpenReader(ReaderConfig{Path: path}, c)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.True(t, codec.IsUnknownDiscriminator(err))
	v, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, document.Int(5), v)

	res, err := Recover(path, c)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 1, res.UnknownFrames)
	assert.Zero(t, res.TruncatedBytes)
}

func TestRecover_TruncatesPartialTail(t *testing.T) {
	c := newCodec(t)
	path := filepath.Join(t.TempDir(), "frames.log")
	writeLog(t, path, c, document.Int(1), document.Text("hello"))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x00, 0x05, 0x00, 0x00}) // half a Text header
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadAll(path, c)
	assert.True(t, errors.Is(err, ErrTruncated), "got %v", err)

	res, err := Recover(path, c)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, int64(4), res.TruncatedBytes)

	values, err := ReadAll(path, c)
	require.NoError(t, err)
	assert.Equal(t, []codec.Value{document.Int(1), document.Text("hello")}, values)
}
