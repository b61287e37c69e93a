package document

import "github.com/ssargent/cerberus/pkg/codec"

// Indexed is a container whose elements are addressed by position.
type Indexed interface {
	Len() int
	At(i int) (codec.Value, bool)
}

// IndexSetter overwrites the element at a position.
type IndexSetter interface {
	Set(i int, v codec.Value) bool
}

// IndexInserter inserts before a position; i == Len() appends.
type IndexInserter interface {
	Insert(i int, v codec.Value) bool
}

// IndexRemover removes the element at a position.
type IndexRemover interface {
	RemoveAt(i int) bool
}

// Keyed is a container whose elements are addressed by string key.
type Keyed interface {
	Get(key string) (codec.Value, bool)
}

// KeyPutter adds or overwrites the value under a key.
type KeyPutter interface {
	Put(key string, v codec.Value) bool
}

// KeyReplacer overwrites the value under an existing key only.
type KeyReplacer interface {
	Replace(key string, v codec.Value) bool
}

// KeyRemover removes a key.
type KeyRemover interface {
	Remove(key string) bool
}

// Appender adds a value at the end of the container.
type Appender interface {
	Add(v codec.Value) bool
}

// TagHolder is a container whose children are addressed by tag.
type TagHolder interface {
	Tagged(tag string) (codec.TaggedValue, bool)
}

// TagInserter adds a tagged child.
type TagInserter interface {
	InsertTagged(v codec.TaggedValue) bool
}

// TagRemover removes the child carrying a tag.
type TagRemover interface {
	RemoveTag(tag string) bool
}

// TagReplacer swaps the child that carries v's tag for v.
type TagReplacer interface {
	ReplaceTagged(v codec.TaggedValue) bool
}

// Unwrapper is implemented by wrappers that hold exactly one value.
type Unwrapper interface {
	Unwrap() codec.Value
}

// Unwrap strips every wrapper around v.
func Unwrap(v codec.Value) codec.Value {
	for {
		u, ok := v.(Unwrapper)
		if !ok {
			return v
		}
		v = u.Unwrap()
	}
}
