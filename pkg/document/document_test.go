package document

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/discriminator"
)

func newCodec(t *testing.T) *codec.Codec {
	t.Helper()
	reg := discriminator.New()
	require.NoError(t, Register(reg))
	return codec.New(reg)
}

func sampleDoc() *Doc {
	tags := NewMap()
	tags.Put("env", Text("prod"))
	tags.Put("tier", Int(2))

	return NewDoc("root",
		NewTag("count", Int(3)),
		NewTag("ratio", Double(0.25)),
		NewTag("enabled", Bool(true)),
		NewTag("blob", Bytes{0xDE, 0xAD}),
		NewTag("missing", nil),
		NewTag("tags", tags),
		NewTag("hosts", NewList(Text("a"), Text("b"), Long(1<<40))),
		NewTag("ports", NewSet(Int(80), Int(443))),
		NewDoc("meta", NewTag("owner", Text("ann"))),
	)
}

func TestDocument_RoundTrip(t *testing.T) {
	c := newCodec(t)

	tests := []struct {
		name  string
		value codec.Value
	}{
		{"int", Int(-7)},
		{"long", Long(1 << 50)},
		{"double", Double(3.5)},
		{"bool", Bool(true)},
		{"text", Text("héllo")},
		{"bytes", Bytes{1, 2, 3}},
		{"empty bytes", Bytes{}},
		{"empty map", NewMap()},
		{"empty list", NewList()},
		{"empty set", NewSet()},
		{"empty doc", NewDoc("e")},
		{"tag", NewTag("t", Text("v"))},
		{"nested", sampleDoc()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Encode(tt.value)
			require.NoError(t, err)
			assert.Equal(t, codec.TotalSize(tt.value), int64(len(data)))

			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)

			again, err := c.Encode(got)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestDocument_WireLayout(t *testing.T) {
	c := newCodec(t)

	data, err := c.Encode(Int(42))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x2A}, data)

	data, err = c.Encode(NewTag("k", Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x14, // tag code
		0, 0, 0, 0, 0, 0, 0, 0x06, // tag UTF + inner frame
		0x00, 0x01, 'k',
		0x00, 0x04, 0x01,
	}, data)
}

func TestMap_Capabilities(t *testing.T) {
	m := NewMap()
	assert.True(t, m.Put("b", Int(1)))
	assert.True(t, m.Put("a", Int(2)))
	assert.True(t, m.Put("b", Int(3)))
	assert.Equal(t, []string{"b", "a"}, m.Keys())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, Int(3), v)

	assert.False(t, m.Replace("zz", Int(0)))
	assert.True(t, m.Replace("a", Text("x")))
	assert.True(t, m.Remove("b"))
	assert.False(t, m.Remove("b"))
	assert.Equal(t, []string{"a"}, m.Keys())
	assert.Equal(t, 1, m.Len())

	var _ Keyed = m
	var _ KeyPutter = m
	var _ KeyReplacer = m
	var _ KeyRemover = m
}

func TestList_Capabilities(t *testing.T) {
	l := NewList(Int(1), Int(2))

	assert.True(t, l.Insert(0, Int(0)))
	assert.True(t, l.Insert(3, Int(3)))
	assert.False(t, l.Insert(5, Int(5)))
	assert.Equal(t, []codec.Value{Int(0), Int(1), Int(2), Int(3)}, l.Values())

	assert.True(t, l.Set(1, Text("one")))
	assert.False(t, l.Set(4, Int(4)))
	assert.True(t, l.RemoveAt(0))
	assert.False(t, l.RemoveAt(-1))

	v, ok := l.At(0)
	require.True(t, ok)
	assert.Equal(t, Text("one"), v)
	_, ok = l.At(3)
	assert.False(t, ok)

	var c codec.Value = l
	_, keyed := c.(KeyRemover)
	assert.False(t, keyed)
}

func TestSet_Uniqueness(t *testing.T) {
	s := NewSet(Int(1), Int(1), Text("1"), NewList(Int(1)))
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Add(NewList(Int(1))), "deeply equal containers are duplicates")
	assert.True(t, s.Contains(Text("1")))
	assert.True(t, s.RemoveAt(0))
	assert.False(t, s.Contains(Int(1)))
}

func TestSet_EmptiedContainersAreDuplicates(t *testing.T) {
	emptied := NewMap()
	emptied.Put("k", Int(1))
	emptied.Remove("k")

	shrunk := NewList(Int(1))
	shrunk.RemoveAt(0)

	s := NewSet(NewMap(), NewList())
	assert.False(t, s.Add(emptied), "an emptied map encodes like a new one")
	assert.False(t, s.Add(shrunk), "an emptied list encodes like a new one")
	assert.Equal(t, 2, s.Len())

	c := newCodec(t)
	data, err := c.Encode(s)
	require.NoError(t, err)
	got, err := c.Decode(data)
	require.NoError(t, err)
	again, err := c.Encode(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, s.Len(), got.(*Set).Len())
}

func TestMap_ZeroValue(t *testing.T) {
	var m Map
	assert.True(t, m.Put("a", Int(1)))
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestDoc_Capabilities(t *testing.T) {
	d := sampleDoc()

	child, ok := d.Tagged("meta")
	require.True(t, ok)
	assert.Equal(t, "meta", child.Tag())

	assert.False(t, d.InsertTagged(NewTag("count", Int(9))), "tags are unique")
	assert.True(t, d.ReplaceTagged(NewTag("count", Int(9))))
	count, _ := d.Tagged("count")
	assert.Equal(t, Int(9), Unwrap(count))

	assert.False(t, d.ReplaceTagged(NewTag("nope", Int(0))))
	assert.True(t, d.RemoveTag("blob"))
	assert.False(t, d.RemoveTag("blob"))
	assert.False(t, d.InsertTagged(nil))
	assert.True(t, d.InsertTagged(NewTag("new", Int(1))))

	last, ok := d.At(d.Len() - 1)
	require.True(t, ok)
	assert.Equal(t, NewTag("new", Int(1)), last)
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, Int(1), Unwrap(NewTag("a", NewTag("b", Int(1)))))
	assert.Equal(t, Int(1), Unwrap(Int(1)))
	assert.Nil(t, Unwrap(NewTag("a", nil)))
}

func TestDocument_DecodeFaults(t *testing.T) {
	c := newCodec(t)

	t.Run("untagged doc child", func(t *testing.T) {
		// doc "d" holding one Int frame
		data := []byte{
			0x00, 0x13,
			0, 0, 0, 0, 0, 0, 0, 0x0D,
			0x00, 0x01, 'd',
			0x00, 0x00, 0x00, 0x01,
			0x00, 0x01, 0x00, 0x00, 0x00, 0x05,
		}
		_, err := c.Decode(data)
		assert.True(t, errors.Is(err, ErrNotTagged), "got %v", err)
	})

	t.Run("negative count", func(t *testing.T) {
		data := []byte{
			0x00, 0x11,
			0, 0, 0, 0, 0, 0, 0, 0x04,
			0xFF, 0xFF, 0xFF, 0xFF,
		}
		_, err := c.Decode(data)
		assert.True(t, errors.Is(err, codec.ErrBounds), "got %v", err)
	})

	t.Run("negative bytes length", func(t *testing.T) {
		data := []byte{
			0x00, 0x06,
			0, 0, 0, 0, 0, 0, 0, 0x04,
			0x80, 0x00, 0x00, 0x00,
		}
		_, err := c.Decode(data)
		assert.True(t, errors.Is(err, codec.ErrBounds), "got %v", err)
	})
}
