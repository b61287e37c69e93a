package query

import (
	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/document"
)

// RemoveByIndex removes the element at Index.
type RemoveByIndex struct {
	Index int32
}

func (n *RemoveByIndex) Kind() Kind { return KindRemoveByIndex }
func (n *RemoveByIndex) sealed()    {}

func (n *RemoveByIndex) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.IndexRemover)
	return result(ok && con.RemoveAt(int(n.Index)))
}

func (n *RemoveByIndex) WritePayload(w *codec.Writer) error { return w.WriteInt32(n.Index) }
func (n *RemoveByIndex) ByteSize() int64                    { return 4 }
func (n *RemoveByIndex) FinalSize() int64                   { return 4 }

// InsertAtIndex inserts Value before Index.
type InsertAtIndex struct {
	Index int32
	Value codec.Value
}

func (n *InsertAtIndex) Kind() Kind { return KindInsertAtIndex }
func (n *InsertAtIndex) sealed()    {}

func (n *InsertAtIndex) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.IndexInserter)
	return result(ok && con.Insert(int(n.Index), n.Value))
}

func (n *InsertAtIndex) WritePayload(w *codec.Writer) error { return writeIndexed(w, n.Index, n.Value) }
func (n *InsertAtIndex) ByteSize() int64                    { return 4 + codec.TotalSize(n.Value) }
func (n *InsertAtIndex) FinalSize() int64                   { return -1 }

// ReplaceAtIndex overwrites the element at Index with Value.
type ReplaceAtIndex struct {
	Index int32
	Value codec.Value
}

func (n *ReplaceAtIndex) Kind() Kind { return KindReplaceAtIndex }
func (n *ReplaceAtIndex) sealed()    {}

func (n *ReplaceAtIndex) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.IndexSetter)
	return result(ok && con.Set(int(n.Index), n.Value))
}

func (n *ReplaceAtIndex) WritePayload(w *codec.Writer) error { return writeIndexed(w, n.Index, n.Value) }
func (n *ReplaceAtIndex) ByteSize() int64                    { return 4 + codec.TotalSize(n.Value) }
func (n *ReplaceAtIndex) FinalSize() int64                   { return -1 }

// RemoveByKey removes Key from a keyed container.
type RemoveByKey struct {
	Key string
}

func (n *RemoveByKey) Kind() Kind { return KindRemoveByKey }
func (n *RemoveByKey) sealed()    {}

func (n *RemoveByKey) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.KeyRemover)
	return result(ok && con.Remove(n.Key))
}

func (n *RemoveByKey) WritePayload(w *codec.Writer) error { return w.WriteUTF(n.Key) }
func (n *RemoveByKey) ByteSize() int64                    { return codec.UTFSize(n.Key) }
func (n *RemoveByKey) FinalSize() int64                   { return -1 }

// ReplaceByKey overwrites the value under an existing Key.
type ReplaceByKey struct {
	Key   string
	Value codec.Value
}

func (n *ReplaceByKey) Kind() Kind { return KindReplaceByKey }
func (n *ReplaceByKey) sealed()    {}

func (n *ReplaceByKey) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.KeyReplacer)
	return result(ok && con.Replace(n.Key, n.Value))
}

func (n *ReplaceByKey) WritePayload(w *codec.Writer) error { return writeKeyed(w, n.Key, n.Value) }
func (n *ReplaceByKey) ByteSize() int64                    { return codec.UTFSize(n.Key) + codec.TotalSize(n.Value) }
func (n *ReplaceByKey) FinalSize() int64                   { return -1 }

// RemoveByTag removes the child carrying Tag.
type RemoveByTag struct {
	Tag string
}

func (n *RemoveByTag) Kind() Kind { return KindRemoveByTag }
func (n *RemoveByTag) sealed()    {}

func (n *RemoveByTag) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.TagRemover)
	return result(ok && con.RemoveTag(n.Tag))
}

func (n *RemoveByTag) WritePayload(w *codec.Writer) error { return w.WriteUTF(n.Tag) }
func (n *RemoveByTag) ByteSize() int64                    { return codec.UTFSize(n.Tag) }
func (n *RemoveByTag) FinalSize() int64                   { return -1 }

// ReplaceTag swaps the child that carries Value's tag for Value.
type ReplaceTag struct {
	Value codec.TaggedValue
}

func (n *ReplaceTag) Kind() Kind { return KindReplaceTag }
func (n *ReplaceTag) sealed()    {}

func (n *ReplaceTag) Apply(c *Cursor) QueryResult {
	if codec.IsAbsent(n.Value) {
		return Failed
	}
	con, ok := c.Value().(document.TagReplacer)
	return result(ok && con.ReplaceTagged(n.Value))
}

func (n *ReplaceTag) WritePayload(w *codec.Writer) error { return w.WriteValue(n.Value) }
func (n *ReplaceTag) ByteSize() int64                    { return codec.TotalSize(n.Value) }
func (n *ReplaceTag) FinalSize() int64                   { return -1 }

// AppendValue adds Value to the end of a container.
type AppendValue struct {
	Value codec.Value
}

func (n *AppendValue) Kind() Kind { return KindAppendValue }
func (n *AppendValue) sealed()    {}

func (n *AppendValue) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.Appender)
	return result(ok && con.Add(n.Value))
}

func (n *AppendValue) WritePayload(w *codec.Writer) error { return w.WriteValue(n.Value) }
func (n *AppendValue) ByteSize() int64                    { return codec.TotalSize(n.Value) }
func (n *AppendValue) FinalSize() int64                   { return -1 }

// AppendKeyed puts Value under Key, adding the key when it is new.
type AppendKeyed struct {
	Key   string
	Value codec.Value
}

func (n *AppendKeyed) Kind() Kind { return KindAppendKeyed }
func (n *AppendKeyed) sealed()    {}

func (n *AppendKeyed) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.KeyPutter)
	return result(ok && con.Put(n.Key, n.Value))
}

func (n *AppendKeyed) WritePayload(w *codec.Writer) error { return writeKeyed(w, n.Key, n.Value) }
func (n *AppendKeyed) ByteSize() int64                    { return codec.UTFSize(n.Key) + codec.TotalSize(n.Value) }
func (n *AppendKeyed) FinalSize() int64                   { return -1 }

// AppendTagged adds Value as a new tagged child.
type AppendTagged struct {
	Value codec.TaggedValue
}

func (n *AppendTagged) Kind() Kind { return KindAppendTagged }
func (n *AppendTagged) sealed()    {}

func (n *AppendTagged) Apply(c *Cursor) QueryResult {
	if codec.IsAbsent(n.Value) {
		return Failed
	}
	con, ok := c.Value().(document.TagInserter)
	return result(ok && con.InsertTagged(n.Value))
}

func (n *AppendTagged) WritePayload(w *codec.Writer) error { return w.WriteValue(n.Value) }
func (n *AppendTagged) ByteSize() int64                    { return codec.TotalSize(n.Value) }
func (n *AppendTagged) FinalSize() int64                   { return -1 }

func writeIndexed(w *codec.Writer, i int32, v codec.Value) error {
	if err := w.WriteInt32(i); err != nil {
		return err
	}
	return w.WriteValue(v)
}

func writeKeyed(w *codec.Writer, key string, v codec.Value) error {
	if err := w.WriteUTF(key); err != nil {
		return err
	}
	return w.WriteValue(v)
}
