package query

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/discriminator"
)

// ResultCode is the discriminator of QueryResult.
const ResultCode codec.Discriminator = 32

// nodeCodeBase + Kind is the discriminator of each node variant.
const nodeCodeBase codec.Discriminator = 39

// Code returns the discriminator of a node kind.
func (k Kind) Code() codec.Discriminator {
	return nodeCodeBase + codec.Discriminator(k)
}

func readIndex(r *codec.Reader) (int32, error) {
	return r.ReadInt32()
}

func readTagged(r *codec.Reader) (codec.TaggedValue, error) {
	v, err := r.ReadValue()
	if err != nil || v == nil {
		return nil, err
	}
	tv, ok := v.(codec.TaggedValue)
	if !ok {
		return nil, errors.Newf("query: operand %s is not tag-bearing", codec.TypeName(v))
	}
	return tv, nil
}

func nodeBuilder(k Kind, fixed int64, fn codec.BuildFunc) codec.Builder {
	return codec.NewBuilder("query."+k.String(), false, fixed, fn)
}

var nodeBuilders = map[Kind]codec.Builder{
	KindLocateByIndex: nodeBuilder(KindLocateByIndex, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		i, err := readIndex(r)
		if err != nil {
			return nil, err
		}
		n := &LocateByIndex{Index: i}
		return n, readNext(r, &n.link)
	}),

	KindRemoveByIndex: nodeBuilder(KindRemoveByIndex, 4, func(r *codec.Reader, _ string) (codec.Value, error) {
		i, err := readIndex(r)
		if err != nil {
			return nil, err
		}
		return &RemoveByIndex{Index: i}, nil
	}),

	KindInsertAtIndex: nodeBuilder(KindInsertAtIndex, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		i, err := readIndex(r)
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		return &InsertAtIndex{Index: i, Value: v}, nil
	}),

	KindReplaceAtIndex: nodeBuilder(KindReplaceAtIndex, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		i, err := readIndex(r)
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		return &ReplaceAtIndex{Index: i, Value: v}, nil
	}),

	KindLocateByKey: nodeBuilder(KindLocateByKey, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		key, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		n := &LocateByKey{Key: key}
		return n, readNext(r, &n.link)
	}),

	KindRemoveByKey: nodeBuilder(KindRemoveByKey, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		key, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		return &RemoveByKey{Key: key}, nil
	}),

	KindReplaceByKey: nodeBuilder(KindReplaceByKey, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		key, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		return &ReplaceByKey{Key: key, Value: v}, nil
	}),

	KindLocateByTag: nodeBuilder(KindLocateByTag, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		tag, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		n := &LocateByTag{Tag: tag}
		return n, readNext(r, &n.link)
	}),

	KindLocateByDocPath: nodeBuilder(KindLocateByDocPath, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		count, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, errors.Wrapf(codec.ErrBounds, "negative path length %d", count)
		}
		n := &LocateByDocPath{}
		for i := int32(0); i < count; i++ {
			tag, err := r.ReadUTF()
			if err != nil {
				return nil, err
			}
			n.Path = append(n.Path, tag)
		}
		return n, readNext(r, &n.link)
	}),

	KindRemoveByTag: nodeBuilder(KindRemoveByTag, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		tag, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		return &RemoveByTag{Tag: tag}, nil
	}),

	KindReplaceTag: nodeBuilder(KindReplaceTag, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		tv, err := readTagged(r)
		if err != nil {
			return nil, err
		}
		return &ReplaceTag{Value: tv}, nil
	}),

	KindAppendValue: nodeBuilder(KindAppendValue, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		return &AppendValue{Value: v}, nil
	}),

	KindAppendKeyed: nodeBuilder(KindAppendKeyed, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		key, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		return &AppendKeyed{Key: key, Value: v}, nil
	}),

	KindAppendTagged: nodeBuilder(KindAppendTagged, -1, func(r *codec.Reader, _ string) (codec.Value, error) {
		tv, err := readTagged(r)
		if err != nil {
			return nil, err
		}
		return &AppendTagged{Value: tv}, nil
	}),
}

var nodePrototypes = map[Kind]Node{
	KindLocateByIndex:   &LocateByIndex{},
	KindRemoveByIndex:   &RemoveByIndex{},
	KindInsertAtIndex:   &InsertAtIndex{},
	KindReplaceAtIndex:  &ReplaceAtIndex{},
	KindLocateByKey:     &LocateByKey{},
	KindRemoveByKey:     &RemoveByKey{},
	KindReplaceByKey:    &ReplaceByKey{},
	KindLocateByTag:     &LocateByTag{},
	KindLocateByDocPath: &LocateByDocPath{},
	KindRemoveByTag:     &RemoveByTag{},
	KindReplaceTag:      &ReplaceTag{},
	KindAppendValue:     &AppendValue{},
	KindAppendKeyed:     &AppendKeyed{},
	KindAppendTagged:    &AppendTagged{},
}

// Bindings returns the registrations of QueryResult and every node
// variant, ordered by code.
func Bindings() []discriminator.Binding {
	bindings := []discriminator.Binding{{Proto: Failed, Builder: resultBuilder, Code: ResultCode}}
	for k := KindLocateByIndex; k <= KindAppendTagged; k++ {
		bindings = append(bindings, discriminator.Binding{
			Proto:   nodePrototypes[k],
			Builder: nodeBuilders[k],
			Code:    k.Code(),
		})
	}
	return bindings
}

// RegisterNodes binds QueryResult and every node variant in reg.
func RegisterNodes(reg *discriminator.Registry) error {
	return reg.RegisterAll(Bindings()...)
}
