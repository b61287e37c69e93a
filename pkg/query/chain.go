package query

import "github.com/ssargent/cerberus/pkg/codec"

// Builder assembles a trace chain one node at a time. The zero value is an
// empty builder ready to use.
type Builder struct {
	head Node
	tail Node
	size int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Stack appends n to the chain, or starts the chain when it is empty.
// The tail must be a locate variant, and n must not already be part of a
// chain.
func (b *Builder) Stack(n Node) error {
	if codec.IsAbsent(n) {
		return &InvalidChainStateError{Tail: b.tailKind(), Reason: "nil node"}
	}
	if Next(n) != nil {
		return &InvalidChainStateError{Tail: b.tailKind(), Reason: "node " + n.Kind().String() + " already has a successor"}
	}
	if b.contains(n) {
		return &InvalidChainStateError{Tail: b.tailKind(), Reason: "node " + n.Kind().String() + " is already in the chain"}
	}

	if b.head == nil {
		b.head, b.tail, b.size = n, n, 1
		return nil
	}

	slot := successor(b.tail)
	if slot == nil {
		return &InvalidChainStateError{Tail: b.tail.Kind(), Reason: "terminal node cannot be extended"}
	}
	slot.next = n
	b.tail = n
	b.size++
	return nil
}

// MustStack stacks every node and panics on misuse. It is meant for
// chains written out as literals.
func (b *Builder) MustStack(nodes ...Node) *Builder {
	for _, n := range nodes {
		if err := b.Stack(n); err != nil {
			panic(err)
		}
	}
	return b
}

// Build returns the head of the chain, or nil when nothing was stacked.
func (b *Builder) Build() Node {
	return b.head
}

// Len returns the number of stacked nodes.
func (b *Builder) Len() int {
	return b.size
}

// Reset severs every successor link in the chain and empties the builder.
func (b *Builder) Reset() {
	Release(b.head)
	b.head, b.tail, b.size = nil, nil, 0
}

func (b *Builder) tailKind() Kind {
	if b.tail == nil {
		return 0
	}
	return b.tail.Kind()
}

func (b *Builder) contains(n Node) bool {
	for cur := b.head; cur != nil; cur = Next(cur) {
		if cur == n {
			return true
		}
	}
	return false
}

// Release severs every successor link reachable from head.
func Release(head Node) {
	for cur := head; cur != nil; {
		slot := successor(cur)
		if slot == nil {
			return
		}
		cur, slot.next = slot.next, nil
	}
}

// Walk calls fn for every node from head to the terminal node, stopping
// early when fn returns false.
func Walk(head Node, fn func(i int, n Node) bool) {
	for i, cur := 0, head; cur != nil; i, cur = i+1, Next(cur) {
		if !fn(i, cur) {
			return
		}
	}
}

// Nodes returns the chain starting at head in traversal order.
func Nodes(head Node) []Node {
	var nodes []Node
	Walk(head, func(_ int, n Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Len returns the number of nodes in the chain starting at head.
func Len(head Node) int {
	n := 0
	Walk(head, func(int, Node) bool {
		n++
		return true
	})
	return n
}
