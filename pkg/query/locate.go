package query

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/document"
)

// link is the successor slot shared by the locate variants.
type link struct {
	next Node
}

func (l *link) writeNext(w *codec.Writer) error { return w.WriteValue(l.next) }

func (l *link) nextSize() int64 { return codec.TotalSize(l.next) }

// successor returns the successor slot of n, or nil when n's variant is
// terminal.
func successor(n Node) *link {
	switch n := n.(type) {
	case *LocateByIndex:
		return &n.link
	case *LocateByKey:
		return &n.link
	case *LocateByTag:
		return &n.link
	case *LocateByDocPath:
		return &n.link
	default:
		return nil
	}
}

// Next returns the node after n, or nil at the end of the chain.
func Next(n Node) Node {
	if l := successor(n); l != nil {
		return l.next
	}
	return nil
}

// Extensible reports whether another node may follow n.
func Extensible(n Node) bool {
	return successor(n) != nil
}

// LocateByIndex moves the cursor to the element at Index.
type LocateByIndex struct {
	link
	Index int32
}

func (n *LocateByIndex) Kind() Kind { return KindLocateByIndex }
func (n *LocateByIndex) sealed()    {}

func (n *LocateByIndex) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.Indexed)
	if !ok {
		return Failed
	}
	v, ok := con.At(int(n.Index))
	if !ok {
		return Failed
	}
	c.descend(v, indexSegment(n.Index))
	return Succeeded
}

func (n *LocateByIndex) WritePayload(w *codec.Writer) error {
	if err := w.WriteInt32(n.Index); err != nil {
		return err
	}
	return n.writeNext(w)
}

func (n *LocateByIndex) ByteSize() int64  { return 4 + n.nextSize() }
func (n *LocateByIndex) FinalSize() int64 { return -1 }

// LocateByKey moves the cursor to the value stored under Key.
type LocateByKey struct {
	link
	Key string
}

func (n *LocateByKey) Kind() Kind { return KindLocateByKey }
func (n *LocateByKey) sealed()    {}

func (n *LocateByKey) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.Keyed)
	if !ok {
		return Failed
	}
	v, ok := con.Get(n.Key)
	if !ok {
		return Failed
	}
	c.descend(v, n.Key)
	return Succeeded
}

func (n *LocateByKey) WritePayload(w *codec.Writer) error {
	if err := w.WriteUTF(n.Key); err != nil {
		return err
	}
	return n.writeNext(w)
}

func (n *LocateByKey) ByteSize() int64  { return codec.UTFSize(n.Key) + n.nextSize() }
func (n *LocateByKey) FinalSize() int64 { return -1 }

// LocateByTag moves the cursor to the child carrying Tag.
type LocateByTag struct {
	link
	Tag string
}

func (n *LocateByTag) Kind() Kind { return KindLocateByTag }
func (n *LocateByTag) sealed()    {}

func (n *LocateByTag) Apply(c *Cursor) QueryResult {
	con, ok := c.Value().(document.TagHolder)
	if !ok {
		return Failed
	}
	v, ok := con.Tagged(n.Tag)
	if !ok {
		return Failed
	}
	c.descend(v, tagSegment(n.Tag))
	return Succeeded
}

func (n *LocateByTag) WritePayload(w *codec.Writer) error {
	if err := w.WriteUTF(n.Tag); err != nil {
		return err
	}
	return n.writeNext(w)
}

func (n *LocateByTag) ByteSize() int64  { return codec.UTFSize(n.Tag) + n.nextSize() }
func (n *LocateByTag) FinalSize() int64 { return -1 }

// LocateByDocPath follows a sequence of tags through nested documents.
// It moves the cursor only when every tag resolves.
type LocateByDocPath struct {
	link
	Path []string
}

func (n *LocateByDocPath) Kind() Kind { return KindLocateByDocPath }
func (n *LocateByDocPath) sealed()    {}

func (n *LocateByDocPath) Apply(c *Cursor) QueryResult {
	cur := c.Value()
	for _, tag := range n.Path {
		con, ok := cur.(document.TagHolder)
		if !ok {
			return Failed
		}
		v, ok := con.Tagged(tag)
		if !ok {
			return Failed
		}
		cur = document.Unwrap(v)
	}
	if len(n.Path) == 0 {
		return Succeeded
	}
	last := len(n.Path) - 1
	for _, tag := range n.Path[:last] {
		c.path = append(c.path, tagSegment(tag))
	}
	c.descend(cur, tagSegment(n.Path[last]))
	return Succeeded
}

func (n *LocateByDocPath) WritePayload(w *codec.Writer) error {
	if err := w.WriteInt32(int32(len(n.Path))); err != nil {
		return err
	}
	for _, tag := range n.Path {
		if err := w.WriteUTF(tag); err != nil {
			return err
		}
	}
	return n.writeNext(w)
}

func (n *LocateByDocPath) ByteSize() int64 {
	size := int64(4)
	for _, tag := range n.Path {
		size += codec.UTFSize(tag)
	}
	return size + n.nextSize()
}

func (n *LocateByDocPath) FinalSize() int64 { return -1 }

// readNext reads the successor frame of a locate node.
func readNext(r *codec.Reader, l *link) error {
	v, err := r.ReadValue()
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	next, ok := v.(Node)
	if !ok {
		return errors.Wrapf(ErrNotNode, "%s", codec.TypeName(v))
	}
	l.next = next
	return nil
}
