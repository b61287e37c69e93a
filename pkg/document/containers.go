package document

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ssargent/cerberus/pkg/codec"
)

// equalOptions compare values the way they encode: nil and empty
// containers write the same bytes, so they are equal.
var equalOptions = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// Equal reports whether two values are deeply equal.
func Equal(a, b codec.Value) bool {
	return cmp.Equal(a, b, equalOptions...)
}

// Map is a string-keyed container that keeps insertion order.
type Map struct {
	keys   []string
	values map[string]codec.Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]codec.Value)}
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *Map) Get(key string) (codec.Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Put adds key or overwrites its value in place.
func (m *Map) Put(key string, v codec.Value) bool {
	if m.values == nil {
		m.values = make(map[string]codec.Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return true
}

func (m *Map) Replace(key string, v codec.Value) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	m.values[key] = v
	return true
}

func (m *Map) Remove(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *Map) WritePayload(w *codec.Writer) error {
	if err := w.WriteInt32(int32(len(m.keys))); err != nil {
		return err
	}
	for _, k := range m.keys {
		if err := w.WriteUTF(k); err != nil {
			return err
		}
		if err := w.WriteValue(m.values[k]); err != nil {
			return errors.Wrapf(err, "map key %q", k)
		}
	}
	return nil
}

func (m *Map) ByteSize() int64 {
	size := int64(4)
	for _, k := range m.keys {
		size += codec.UTFSize(k) + codec.TotalSize(m.values[k])
	}
	return size
}

func (m *Map) FinalSize() int64 { return -1 }

// List is an ordered sequence of values.
type List struct {
	items []codec.Value
}

// NewList returns a list holding values.
func NewList(values ...codec.Value) *List {
	l := &List{}
	for _, v := range values {
		l.Add(v)
	}
	return l
}

func (l *List) Len() int { return len(l.items) }

// Values returns a copy of the elements.
func (l *List) Values() []codec.Value {
	return append([]codec.Value(nil), l.items...)
}

func (l *List) At(i int) (codec.Value, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

func (l *List) Set(i int, v codec.Value) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i] = v
	return true
}

func (l *List) Insert(i int, v codec.Value) bool {
	if i < 0 || i > len(l.items) {
		return false
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return true
}

func (l *List) RemoveAt(i int) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

func (l *List) Add(v codec.Value) bool {
	l.items = append(l.items, v)
	return true
}

func (l *List) WritePayload(w *codec.Writer) error { return writeSeq(w, l.items) }
func (l *List) ByteSize() int64                    { return seqSize(l.items) }
func (l *List) FinalSize() int64                   { return -1 }

// Set is an ordered collection without deeply equal duplicates.
type Set struct {
	items []codec.Value
}

// NewSet returns a set holding the distinct values.
func NewSet(values ...codec.Value) *Set {
	s := &Set{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s *Set) Len() int { return len(s.items) }

func (s *Set) At(i int) (codec.Value, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

func (s *Set) Contains(v codec.Value) bool {
	for _, item := range s.items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// Add inserts v unless an equal value is already present.
func (s *Set) Add(v codec.Value) bool {
	if s.Contains(v) {
		return false
	}
	s.items = append(s.items, v)
	return true
}

func (s *Set) RemoveAt(i int) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *Set) WritePayload(w *codec.Writer) error { return writeSeq(w, s.items) }
func (s *Set) ByteSize() int64                    { return seqSize(s.items) }
func (s *Set) FinalSize() int64                   { return -1 }

// Doc is a named container of tagged children. Tags are unique among the
// children of one Doc.
type Doc struct {
	name     string
	children []codec.TaggedValue
}

// NewDoc returns a document called name. Children whose tag is already
// taken are dropped.
func NewDoc(name string, children ...codec.TaggedValue) *Doc {
	d := &Doc{name: name}
	for _, c := range children {
		d.InsertTagged(c)
	}
	return d
}

func (d *Doc) Tag() string { return d.name }

func (d *Doc) Len() int { return len(d.children) }

func (d *Doc) At(i int) (codec.Value, bool) {
	if i < 0 || i >= len(d.children) {
		return nil, false
	}
	return d.children[i], true
}

// Children returns a copy of the children in insertion order.
func (d *Doc) Children() []codec.TaggedValue {
	return append([]codec.TaggedValue(nil), d.children...)
}

func (d *Doc) index(tag string) int {
	for i, c := range d.children {
		if c.Tag() == tag {
			return i
		}
	}
	return -1
}

func (d *Doc) Tagged(tag string) (codec.TaggedValue, bool) {
	i := d.index(tag)
	if i < 0 {
		return nil, false
	}
	return d.children[i], true
}

func (d *Doc) InsertTagged(v codec.TaggedValue) bool {
	if codec.IsAbsent(v) || d.index(v.Tag()) >= 0 {
		return false
	}
	d.children = append(d.children, v)
	return true
}

func (d *Doc) RemoveTag(tag string) bool {
	i := d.index(tag)
	if i < 0 {
		return false
	}
	d.children = append(d.children[:i], d.children[i+1:]...)
	return true
}

func (d *Doc) ReplaceTagged(v codec.TaggedValue) bool {
	if codec.IsAbsent(v) {
		return false
	}
	i := d.index(v.Tag())
	if i < 0 {
		return false
	}
	d.children[i] = v
	return true
}

func (d *Doc) WritePayload(w *codec.Writer) error {
	if err := w.WriteInt32(int32(len(d.children))); err != nil {
		return err
	}
	for _, c := range d.children {
		if err := w.WriteValue(c); err != nil {
			return errors.Wrapf(err, "doc %q child %q", d.name, c.Tag())
		}
	}
	return nil
}

func (d *Doc) ByteSize() int64 {
	size := int64(4)
	for _, c := range d.children {
		size += codec.TotalSize(c)
	}
	return size
}

func (d *Doc) FinalSize() int64 { return -1 }

// Tag names a single value so it can live among a Doc's children.
type Tag struct {
	Name  string
	Value codec.Value
}

// NewTag wraps v under name.
func NewTag(name string, v codec.Value) *Tag {
	return &Tag{Name: name, Value: v}
}

func (t *Tag) Tag() string { return t.Name }

func (t *Tag) Unwrap() codec.Value { return t.Value }

func (t *Tag) WritePayload(w *codec.Writer) error { return w.WriteValue(t.Value) }
func (t *Tag) ByteSize() int64                    { return codec.TotalSize(t.Value) }
func (t *Tag) FinalSize() int64                   { return -1 }

func writeSeq(w *codec.Writer, items []codec.Value) error {
	if err := w.WriteInt32(int32(len(items))); err != nil {
		return err
	}
	for i, v := range items {
		if err := w.WriteValue(v); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func seqSize(items []codec.Value) int64 {
	size := int64(4)
	for _, v := range items {
		size += codec.TotalSize(v)
	}
	return size
}

func readCount(r *codec.Reader) (int, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, boundsf("negative element count %d", n)
	}
	return int(n), nil
}

var (
	mapBuilder = codec.NewBuilder("document.map", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		n, err := readCount(r)
		if err != nil {
			return nil, err
		}
		m := NewMap()
		for i := 0; i < n; i++ {
			k, err := r.ReadUTF()
			if err != nil {
				return nil, err
			}
			v, err := r.ReadValue()
			if err != nil {
				return nil, errors.Wrapf(err, "map key %q", k)
			}
			m.Put(k, v)
		}
		return m, nil
	})

	listBuilder = codec.NewBuilder("document.list", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		items, err := readSeq(r)
		if err != nil {
			return nil, err
		}
		return &List{items: items}, nil
	})

	setBuilder = codec.NewBuilder("document.set", false, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		items, err := readSeq(r)
		if err != nil {
			return nil, err
		}
		return NewSet(items...), nil
	})

	docBuilder = codec.NewBuilder("document.doc", true, -1, func(r *codec.Reader, tag string) (codec.Value, error) {
		n, err := readCount(r)
		if err != nil {
			return nil, err
		}
		d := &Doc{name: tag}
		for i := 0; i < n; i++ {
			v, err := r.ReadValue()
			if err != nil {
				return nil, errors.Wrapf(err, "doc %q child %d", tag, i)
			}
			tv, ok := v.(codec.TaggedValue)
			if !ok || codec.IsAbsent(tv) {
				return nil, errors.Wrapf(ErrNotTagged, "doc %q child %d", tag, i)
			}
			d.InsertTagged(tv)
		}
		return d, nil
	})

	tagBuilder = codec.NewBuilder("document.tag", true, -1, func(r *codec.Reader, tag string) (codec.Value, error) {
		v, err := r.ReadValue()
		if err != nil {
			return nil, errors.Wrapf(err, "tag %q", tag)
		}
		return &Tag{Name: tag, Value: v}, nil
	})
)

func readSeq(r *codec.Reader) ([]codec.Value, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var items []codec.Value
	for i := 0; i < n; i++ {
		v, err := r.ReadValue()
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		items = append(items, v)
	}
	return items, nil
}
