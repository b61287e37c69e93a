package query

import (
	"strconv"
	"strings"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/document"
)

// Cursor tracks the value a chain is positioned on. Locate steps move it
// down the document tree; every other step acts on the value under it.
type Cursor struct {
	root  codec.Value
	value codec.Value
	path  []string
}

// NewCursor positions a cursor on root.
func NewCursor(root codec.Value) *Cursor {
	return &Cursor{root: root, value: root}
}

// Value returns the value under the cursor.
func (c *Cursor) Value() codec.Value { return c.value }

// Root returns the value the cursor started on.
func (c *Cursor) Root() codec.Value { return c.root }

// Path describes the locate steps taken so far, e.g. "/[2]/users/#name".
func (c *Cursor) Path() string {
	return "/" + strings.Join(c.path, "/")
}

// Reset moves the cursor back to its root.
func (c *Cursor) Reset() {
	c.value = c.root
	c.path = c.path[:0]
}

// descend moves onto v. Tag wrappers are unwrapped so that the step after
// a locate acts on the wrapped value.
func (c *Cursor) descend(v codec.Value, segment string) {
	c.value = document.Unwrap(v)
	c.path = append(c.path, segment)
}

func indexSegment(i int32) string { return "[" + strconv.Itoa(int(i)) + "]" }

func tagSegment(tag string) string { return "#" + tag }
