package wire

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/document"
	"github.com/ssargent/cerberus/pkg/query"
)

// YAML tags for values plain YAML cannot tell apart.
const (
	tagLong   = "!long"
	tagSet    = "!set"
	tagDoc    = "!doc"
	tagTag    = "!tag"
	tagResult = "!result"
	tagChain  = "!chain"
)

// ErrText is returned for YAML that does not describe a value.
var ErrText = errors.New("wire: invalid value text")

// ParseYAML reads one value from its YAML text form. Plain YAML maps to
// the document types: mappings are maps, sequences are lists, integers are
// ints (longs when they overflow 32 bits). The local tags !long, !set,
// !doc, !tag, !result and !chain select the remaining types.
func ParseYAML(data []byte) (codec.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(ErrText, err.Error())
	}
	return fromNode(&root)
}

// ParseChainYAML reads a trace chain. The top level may be a !chain or a
// plain sequence of steps.
func ParseChainYAML(data []byte) (query.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(ErrText, err.Error())
	}
	n := &root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.SequenceNode {
		return nil, textf(n, "a chain is a sequence of steps")
	}
	return chainFromNode(n)
}

// MarshalYAML renders v in the form ParseYAML reads.
func MarshalYAML(v codec.Value) ([]byte, error) {
	n, err := toNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func textf(n *yaml.Node, format string, args ...interface{}) error {
	return errors.Wrapf(ErrText, "line %d: "+format, append([]interface{}{n.Line}, args...)...)
}

func fromNode(n *yaml.Node) (codec.Value, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(n)
	case yaml.SequenceNode:
		switch n.Tag {
		case tagChain:
			return chainFromNode(n)
		case tagSet:
			items, err := itemsFromNode(n)
			if err != nil {
				return nil, err
			}
			return document.NewSet(items...), nil
		default:
			items, err := itemsFromNode(n)
			if err != nil {
				return nil, err
			}
			return document.NewList(items...), nil
		}
	case yaml.MappingNode:
		switch n.Tag {
		case tagDoc:
			return docFromNode(n)
		case tagTag:
			f, err := fields(n, "name", "value")
			if err != nil {
				return nil, err
			}
			v, err := fromNode(f["value"])
			if err != nil {
				return nil, err
			}
			return document.NewTag(f["name"].Value, v), nil
		default:
			return mapFromNode(n)
		}
	}
	return nil, textf(n, "unsupported YAML node")
}

func scalarFromNode(n *yaml.Node) (codec.Value, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, textf(n, "%v", err)
		}
		return document.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, textf(n, "%v", err)
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return document.Long(i), nil
		}
		return document.Int(int32(i)), nil
	case tagLong:
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, textf(n, "%v", err)
		}
		return document.Long(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, textf(n, "%v", err)
		}
		return document.Double(f), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, textf(n, "%v", err)
		}
		return document.Bytes(b), nil
	case tagResult:
		ok, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, textf(n, "%v", err)
		}
		if ok {
			return query.Succeeded, nil
		}
		return query.Failed, nil
	case "!!str", "!":
		return document.Text(n.Value), nil
	}
	return nil, textf(n, "unsupported scalar tag %s", n.Tag)
}

func itemsFromNode(n *yaml.Node) ([]codec.Value, error) {
	items := make([]codec.Value, 0, len(n.Content))
	for _, c := range n.Content {
		v, err := fromNode(c)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func mapFromNode(n *yaml.Node) (*document.Map, error) {
	m := document.NewMap()
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := fromNode(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		m.Put(n.Content[i].Value, v)
	}
	return m, nil
}

func docFromNode(n *yaml.Node) (*document.Doc, error) {
	f, err := fields(n, "name", "children")
	if err != nil {
		return nil, err
	}
	children := f["children"]
	if children.Kind != yaml.MappingNode {
		return nil, textf(children, "doc children must be a mapping")
	}

	d := document.NewDoc(f["name"].Value)
	for i := 0; i+1 < len(children.Content); i += 2 {
		tag := children.Content[i].Value
		v, err := fromNode(children.Content[i+1])
		if err != nil {
			return nil, err
		}
		if !d.InsertTagged(tagged(tag, v)) {
			return nil, textf(children.Content[i], "duplicate tag %q", tag)
		}
	}
	return d, nil
}

// tagged returns v when it already carries tag, otherwise a Tag wrapper.
func tagged(tag string, v codec.Value) codec.TaggedValue {
	if tv, ok := v.(codec.TaggedValue); ok && !codec.IsAbsent(tv) && tv.Tag() == tag {
		return tv
	}
	return document.NewTag(tag, v)
}

// fields indexes a mapping by key and requires every name in want.
func fields(n *yaml.Node, want ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, textf(n, "expected a mapping with %s", strings.Join(want, ", "))
	}
	f := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		f[n.Content[i].Value] = n.Content[i+1]
	}
	for _, name := range want {
		if _, ok := f[name]; !ok {
			return nil, textf(n, "missing %q", name)
		}
	}
	return f, nil
}

func chainFromNode(n *yaml.Node) (query.Node, error) {
	if len(n.Content) == 0 {
		return nil, textf(n, "empty chain")
	}
	b := query.NewBuilder()
	for _, step := range n.Content {
		if step.Kind != yaml.MappingNode || len(step.Content) != 2 {
			return nil, textf(step, "a step is a mapping with a single kind")
		}
		node, err := stepFromNode(step.Content[0].Value, step.Content[1])
		if err != nil {
			return nil, err
		}
		if err := b.Stack(node); err != nil {
			return nil, textf(step, "%v", err)
		}
	}
	return b.Build(), nil
}

func stepFromNode(name string, arg *yaml.Node) (query.Node, error) {
	kind, ok := query.ParseKind(name)
	if !ok {
		return nil, textf(arg, "unknown step %q", name)
	}

	switch kind {
	case query.KindLocateByIndex, query.KindRemoveByIndex:
		var i int32
		if err := arg.Decode(&i); err != nil {
			return nil, textf(arg, "%s: %v", name, err)
		}
		if kind == query.KindLocateByIndex {
			return &query.LocateByIndex{Index: i}, nil
		}
		return &query.RemoveByIndex{Index: i}, nil
	case query.KindLocateByKey, query.KindRemoveByKey, query.KindLocateByTag, query.KindRemoveByTag:
		if arg.Kind != yaml.ScalarNode {
			return nil, textf(arg, "%s takes a single name", name)
		}
		switch kind {
		case query.KindLocateByKey:
			return &query.LocateByKey{Key: arg.Value}, nil
		case query.KindRemoveByKey:
			return &query.RemoveByKey{Key: arg.Value}, nil
		case query.KindLocateByTag:
			return &query.LocateByTag{Tag: arg.Value}, nil
		default:
			return &query.RemoveByTag{Tag: arg.Value}, nil
		}
	case query.KindLocateByDocPath:
		var path []string
		if err := arg.Decode(&path); err != nil {
			return nil, textf(arg, "%s: %v", name, err)
		}
		return &query.LocateByDocPath{Path: path}, nil
	case query.KindAppendValue:
		v, err := fromNode(arg)
		if err != nil {
			return nil, err
		}
		return &query.AppendValue{Value: v}, nil
	case query.KindInsertAtIndex, query.KindReplaceAtIndex:
		f, err := fields(arg, "index", "value")
		if err != nil {
			return nil, err
		}
		var i int32
		if err := f["index"].Decode(&i); err != nil {
			return nil, textf(arg, "%s: %v", name, err)
		}
		v, err := fromNode(f["value"])
		if err != nil {
			return nil, err
		}
		if kind == query.KindInsertAtIndex {
			return &query.InsertAtIndex{Index: i, Value: v}, nil
		}
		return &query.ReplaceAtIndex{Index: i, Value: v}, nil
	case query.KindReplaceByKey, query.KindAppendKeyed:
		f, err := fields(arg, "key", "value")
		if err != nil {
			return nil, err
		}
		v, err := fromNode(f["value"])
		if err != nil {
			return nil, err
		}
		if kind == query.KindReplaceByKey {
			return &query.ReplaceByKey{Key: f["key"].Value, Value: v}, nil
		}
		return &query.AppendKeyed{Key: f["key"].Value, Value: v}, nil
	case query.KindReplaceTag, query.KindAppendTagged:
		f, err := fields(arg, "tag", "value")
		if err != nil {
			return nil, err
		}
		v, err := fromNode(f["value"])
		if err != nil {
			return nil, err
		}
		tv := tagged(f["tag"].Value, v)
		if kind == query.KindReplaceTag {
			return &query.ReplaceTag{Value: tv}, nil
		}
		return &query.AppendTagged{Value: tv}, nil
	}
	return nil, textf(arg, "unhandled step %q", name)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func mapping(tag string, kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: tag, Content: kv}
}

func toNode(v codec.Value) (*yaml.Node, error) {
	if codec.IsAbsent(v) {
		return scalar("!!null", "null"), nil
	}

	switch t := v.(type) {
	case document.Int:
		return scalar("!!int", strconv.FormatInt(int64(t), 10)), nil
	case document.Long:
		return scalar(tagLong, strconv.FormatInt(int64(t), 10)), nil
	case document.Double:
		return scalar("!!float", formatFloat(float64(t))), nil
	case document.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(t))), nil
	case document.Text:
		return scalar("!!str", string(t)), nil
	case document.Bytes:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(t)), nil
	case query.QueryResult:
		return scalar(tagResult, strconv.FormatBool(t.OK)), nil
	case *document.Map:
		n := mapping("")
		for _, k := range t.Keys() {
			item, _ := t.Get(k)
			c, err := toNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, scalar("!!str", k), c)
		}
		return n, nil
	case *document.List:
		return seqNode("", t.Values())
	case *document.Set:
		items := make([]codec.Value, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			item, _ := t.At(i)
			items = append(items, item)
		}
		return seqNode(tagSet, items)
	case *document.Doc:
		children := mapping("")
		for _, child := range t.Children() {
			c, err := childNode(child)
			if err != nil {
				return nil, err
			}
			children.Content = append(children.Content, scalar("!!str", child.Tag()), c)
		}
		return mapping(tagDoc, scalar("!!str", "name"), scalar("!!str", t.Tag()),
			scalar("!!str", "children"), children), nil
	case *document.Tag:
		c, err := toNode(t.Value)
		if err != nil {
			return nil, err
		}
		return mapping(tagTag, scalar("!!str", "name"), scalar("!!str", t.Name),
			scalar("!!str", "value"), c), nil
	case query.Node:
		return chainNode(t)
	}
	return nil, errors.Wrapf(ErrText, "no text form for %s", codec.TypeName(v))
}

// childNode renders a doc child; Tag wrappers collapse into their value.
func childNode(child codec.TaggedValue) (*yaml.Node, error) {
	if t, ok := child.(*document.Tag); ok {
		return toNode(t.Value)
	}
	return toNode(child)
}

func seqNode(tag string, items []codec.Value) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag}
	for _, item := range items {
		c, err := toNode(item)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, c)
	}
	return n, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func chainNode(head query.Node) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: tagChain}
	var err error
	query.Walk(head, func(_ int, n query.Node) bool {
		var arg *yaml.Node
		arg, err = stepNode(n)
		if err != nil {
			return false
		}
		seq.Content = append(seq.Content, mapping("", scalar("!!str", n.Kind().String()), arg))
		return true
	})
	return seq, err
}

func stepNode(n query.Node) (*yaml.Node, error) {
	index := func(i int32) *yaml.Node { return scalar("!!int", strconv.FormatInt(int64(i), 10)) }
	withValue := func(field string, arg *yaml.Node, v codec.Value) (*yaml.Node, error) {
		c, err := toNode(v)
		if err != nil {
			return nil, err
		}
		return mapping("", scalar("!!str", field), arg, scalar("!!str", "value"), c), nil
	}
	taggedValue := func(v codec.TaggedValue) (*yaml.Node, error) {
		if codec.IsAbsent(v) {
			return nil, errors.Wrap(ErrText, "tagged step without a value")
		}
		c, err := childNode(v)
		if err != nil {
			return nil, err
		}
		return mapping("", scalar("!!str", "tag"), scalar("!!str", v.Tag()), scalar("!!str", "value"), c), nil
	}

	switch t := n.(type) {
	case *query.LocateByIndex:
		return index(t.Index), nil
	case *query.RemoveByIndex:
		return index(t.Index), nil
	case *query.LocateByKey:
		return scalar("!!str", t.Key), nil
	case *query.RemoveByKey:
		return scalar("!!str", t.Key), nil
	case *query.LocateByTag:
		return scalar("!!str", t.Tag), nil
	case *query.RemoveByTag:
		return scalar("!!str", t.Tag), nil
	case *query.LocateByDocPath:
		path := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, seg := range t.Path {
			path.Content = append(path.Content, scalar("!!str", seg))
		}
		return path, nil
	case *query.InsertAtIndex:
		return withValue("index", index(t.Index), t.Value)
	case *query.ReplaceAtIndex:
		return withValue("index", index(t.Index), t.Value)
	case *query.ReplaceByKey:
		return withValue("key", scalar("!!str", t.Key), t.Value)
	case *query.AppendKeyed:
		return withValue("key", scalar("!!str", t.Key), t.Value)
	case *query.AppendValue:
		return toNode(t.Value)
	case *query.ReplaceTag:
		return taggedValue(t.Value)
	case *query.AppendTagged:
		return taggedValue(t.Value)
	}
	return nil, errors.Wrapf(ErrText, "no text form for step %s", n.Kind())
}
