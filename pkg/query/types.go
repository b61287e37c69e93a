package query

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// QueryResult is the outcome of one trace step. A step that does not apply
// to the value under the cursor fails; it does not return an error.
type QueryResult struct {
	OK bool
}

// Shared results.
var (
	Succeeded = QueryResult{OK: true}
	Failed    = QueryResult{OK: false}
)

func result(ok bool) QueryResult {
	return QueryResult{OK: ok}
}

func (r QueryResult) WritePayload(w *codec.Writer) error { return w.WriteBool(r.OK) }
func (r QueryResult) ByteSize() int64                    { return 1 }
func (r QueryResult) FinalSize() int64                   { return 1 }

func (r QueryResult) String() string {
	if r.OK {
		return "ok"
	}
	return "failed"
}

var resultBuilder = codec.NewBuilder("query.result", false, 1, func(r *codec.Reader, _ string) (codec.Value, error) {
	ok, err := r.ReadBool()
	return QueryResult{OK: ok}, err
})

// Kind identifies a trace node variant.
type Kind uint8

// Trace node variants.
const (
	KindLocateByIndex Kind = iota + 1
	KindRemoveByIndex
	KindInsertAtIndex
	KindReplaceAtIndex
	KindLocateByKey
	KindRemoveByKey
	KindReplaceByKey
	KindLocateByTag
	KindLocateByDocPath
	KindRemoveByTag
	KindReplaceTag
	KindAppendValue
	KindAppendKeyed
	KindAppendTagged
)

var kindNames = map[Kind]string{
	KindLocateByIndex:   "locate_by_index",
	KindRemoveByIndex:   "remove_by_index",
	KindInsertAtIndex:   "insert_at_index",
	KindReplaceAtIndex:  "replace_at_index",
	KindLocateByKey:     "locate_by_key",
	KindRemoveByKey:     "remove_by_key",
	KindReplaceByKey:    "replace_by_key",
	KindLocateByTag:     "locate_by_tag",
	KindLocateByDocPath: "locate_by_doc_path",
	KindRemoveByTag:     "remove_by_tag",
	KindReplaceTag:      "replace_tag",
	KindAppendValue:     "append_value",
	KindAppendKeyed:     "append_keyed",
	KindAppendTagged:    "append_tagged",
}

// ParseKind returns the kind named name, as printed by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is one step of a trace chain. It is also a wire value, so a whole
// chain encodes as the frame of its head node.
//
// The set of variants is closed. Locate variants carry a successor slot
// and may be extended; every other variant ends the chain.
type Node interface {
	codec.Value
	Kind() Kind
	// Apply runs the step against the value under c.
	Apply(c *Cursor) QueryResult
	sealed()
}

// Errors
var (
	ErrEmptyChain = errors.New("query: empty chain")
	ErrNotNode    = errors.New("query: successor frame is not a trace node")
)

// InvalidChainStateError reports misuse of a Builder.
type InvalidChainStateError struct {
	// Tail is the kind of the node at the end of the chain, if any.
	Tail   Kind
	Reason string
}

func (e *InvalidChainStateError) Error() string {
	if e.Tail == 0 {
		return "query: invalid chain state: " + e.Reason
	}
	return "query: invalid chain state at " + e.Tail.String() + ": " + e.Reason
}
