package discriminator

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cerberus/pkg/codec"
)

type alpha struct{ N int32 }

func (a *alpha) WritePayload(w *codec.Writer) error { return w.WriteInt32(a.N) }
func (a *alpha) ByteSize() int64                    { return 4 }
func (a *alpha) FinalSize() int64                   { return 4 }

type beta struct{ S string }

func (b *beta) WritePayload(w *codec.Writer) error { return w.WriteUTF(b.S) }
func (b *beta) ByteSize() int64                    { return codec.UTFSize(b.S) }
func (b *beta) FinalSize() int64                   { return -1 }

type gamma struct{}

func (g *gamma) WritePayload(w *codec.Writer) error { return nil }
func (g *gamma) ByteSize() int64                    { return 0 }
func (g *gamma) FinalSize() int64                   { return 0 }

var (
	alphaBuilder = codec.NewBuilder("alpha", false, 4, func(r *codec.Reader, _ string) (codec.Value, error) {
		n, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		return &alpha{N: n}, nil
	})
	betaBuilder = codec.NewBuilder("beta", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		s, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		return &beta{S: s}, nil
	})
	gammaBuilder = codec.NewBuilder("gamma", false, 0, func(*codec.Reader, string) (codec.Value, error) {
		return &gamma{}, nil
	})
)

func testResolver() *ResolverTable {
	return NewResolverTable().
		Add(&alpha{}, alphaBuilder).
		Add(&beta{}, betaBuilder).
		Add(&gamma{}, gammaBuilder)
}

func populated(t *testing.T) *Registry {
	t.Helper()
	reg := New()
	require.NoError(t, reg.Register(&beta{}, betaBuilder, 12))
	require.NoError(t, reg.Register(&alpha{}, alphaBuilder, 3))
	return reg
}

func TestRegistry_Bijection(t *testing.T) {
	reg := populated(t)

	assert.Equal(t, codec.Discriminator(3), reg.Code(&alpha{}))
	assert.Equal(t, codec.Discriminator(12), reg.Code(&beta{}))
	assert.Equal(t, codec.Absent, reg.Code(&gamma{}))
	assert.Equal(t, codec.Absent, reg.Code(nil))
	assert.Equal(t, codec.Discriminator(3), reg.CodeOf(reflect.TypeOf(&alpha{})))

	b, err := reg.Builder(3)
	require.NoError(t, err)
	assert.Equal(t, "alpha", b.Name())

	_, err = reg.Builder(99)
	var unknown *codec.UnknownDiscriminatorError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, codec.Discriminator(99), unknown.Code)

	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_RejectsConflicts(t *testing.T) {
	tests := []struct {
		name    string
		proto   codec.Value
		builder codec.Builder
		code    codec.Discriminator
		wantErr error
	}{
		{"code in use", &gamma{}, gammaBuilder, 3, ErrCodeInUse},
		{"type registered", &alpha{}, alphaBuilder, 4, ErrTypeRegistered},
		{"sentinel", &gamma{}, gammaBuilder, codec.Absent, ErrReservedCode},
		{"nil prototype", nil, gammaBuilder, 5, ErrInvalidBinding},
		{"nil builder", &gamma{}, nil, 5, ErrInvalidBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := populated(t)
			err := reg.Register(tt.proto, tt.builder, tt.code)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, 2, reg.Len(), "a rejected binding must not be partially applied")
			assert.Equal(t, codec.Absent, reg.Code(&gamma{}))
		})
	}
}

func TestRegistry_RecordsAndLookup(t *testing.T) {
	reg := populated(t)

	records := reg.Records()
	require.Len(t, records, 2)
	assert.Equal(t, codec.Discriminator(3), records[0].Code)
	assert.Equal(t, "alpha", records[0].BuilderName)
	assert.True(t, strings.HasSuffix(records[0].TypeName, "discriminator.alpha"))
	assert.Equal(t, codec.Discriminator(12), records[1].Code)

	rec, ok := reg.Lookup(records[1].TypeName)
	require.True(t, ok)
	assert.Equal(t, records[1], rec)

	_, ok = reg.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_DrivesCodec(t *testing.T) {
	c := codec.New(populated(t))

	data, err := c.Encode(&beta{S: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x0C, 0, 0, 0, 0, 0, 0, 0, 0x04, 0x00, 0x02, 'h', 'i'}, data)

	v, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, &beta{S: "hi"}, v)
}

func TestRecords_RoundTrip(t *testing.T) {
	reg := populated(t)

	var buf bytes.Buffer
	n, err := reg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := Load(&buf, testResolver())
	require.NoError(t, err)
	assert.Equal(t, reg.Records(), loaded.Records())

	for _, proto := range []codec.Value{&alpha{}, &beta{}} {
		assert.Equal(t, reg.Code(proto), loaded.Code(proto))
	}
}

func TestReadRecords_StopsAtMalformed(t *testing.T) {
	full := []Record{
		{TypeName: "a.One", BuilderName: "one", Code: 1},
		{TypeName: "a.Two", BuilderName: "two", Code: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, full))
	data := buf.Bytes()

	t.Run("truncated", func(t *testing.T) {
		got, err := ReadRecords(bytes.NewReader(data[:len(data)-1]))
		require.NoError(t, err)
		assert.Equal(t, full[:1], got)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := ReadRecords(bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty name", func(t *testing.T) {
		var bad bytes.Buffer
		require.NoError(t, WriteRecords(&bad, []Record{full[0], {TypeName: "", BuilderName: "x", Code: 9}, full[1]}))
		got, err := ReadRecords(&bad)
		require.NoError(t, err)
		assert.Equal(t, full[:1], got)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		raw := append([]byte{}, data...)
		raw = append(raw, 0x00, 0x01, 0xFF, 0x00, 0x01, 'b', 0x00, 0x03)
		got, err := ReadRecords(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, full, got)
	})
}

func TestLoad_SkipsUnresolvable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, []Record{
		{TypeName: codec.TypeNameOf(reflect.TypeOf(&alpha{})), BuilderName: "alpha", Code: 1},
		{TypeName: "gone.Type", BuilderName: "gone", Code: 2},
		{TypeName: codec.TypeNameOf(reflect.TypeOf(&beta{})), BuilderName: "beta.v0", Code: 3},
		{TypeName: codec.TypeNameOf(reflect.TypeOf(&gamma{})), BuilderName: "gamma", Code: 1},
		{TypeName: codec.TypeNameOf(reflect.TypeOf(&beta{})), BuilderName: "beta", Code: 4},
	}))

	var logs bytes.Buffer
	reg := New(WithLogger(zerolog.New(&logs)))
	loaded, skipped, err := reg.LoadFrom(&buf, testResolver())
	require.NoError(t, err)

	assert.Equal(t, 2, loaded)
	require.Len(t, skipped, 3)
	assert.Equal(t, "gone.Type", skipped[0].TypeName)
	assert.Equal(t, "beta.v0", skipped[1].BuilderName)
	assert.Equal(t, codec.Discriminator(1), skipped[2].Code)

	assert.Equal(t, codec.Discriminator(1), reg.Code(&alpha{}))
	assert.Equal(t, codec.Discriminator(4), reg.Code(&beta{}))
	assert.Equal(t, codec.Absent, reg.Code(&gamma{}))
	assert.Contains(t, logs.String(), "skipping discriminator record")
}

func TestFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.bin")
	reg := populated(t)
	require.NoError(t, reg.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path, testResolver())
	require.NoError(t, err)
	assert.Equal(t, reg.Records(), loaded.Records())

	require.NoError(t, New().SaveFile(path))
	empty, err := LoadFile(path, testResolver())
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.bin"), testResolver())
	assert.Error(t, err)
}

func TestResolverTable(t *testing.T) {
	res := testResolver()

	typ, b, err := res.Resolve(codec.TypeNameOf(reflect.TypeOf(&beta{})), "beta")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(&beta{}), typ)
	assert.Equal(t, "beta", b.Name())

	_, _, err = res.Resolve("x.Y", "beta")
	assert.True(t, errors.Is(err, ErrUnresolved))
	_, _, err = res.Resolve(codec.TypeNameOf(reflect.TypeOf(&beta{})), "alpha")
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestRegistry_RegisterAll(t *testing.T) {
	reg := New()
	err := reg.RegisterAll(
		Binding{Proto: &alpha{}, Builder: alphaBuilder, Code: 1},
		Binding{Proto: &beta{}, Builder: betaBuilder, Code: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	err = reg.RegisterAll(
		Binding{Proto: &gamma{}, Builder: gammaBuilder, Code: 3},
		Binding{Proto: &gamma{}, Builder: gammaBuilder, Code: 4},
	)
	assert.True(t, errors.Is(err, ErrTypeRegistered))
	assert.Equal(t, codec.Discriminator(3), reg.Code(&gamma{}))

	res := NewResolverTable().AddBindings(Binding{Proto: &alpha{}, Builder: alphaBuilder, Code: 1})
	_, b, err := res.Resolve(codec.TypeName(&alpha{}), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", b.Name())
}
