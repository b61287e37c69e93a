package discriminator

import (
	"io"
	"reflect"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/codec"
)

// Record file format, repeated until the end of the data:
//
//	[UTF TypeName][UTF BuilderName][Code(2)]
//
// There is no record count and no terminator.

// Resolver maps persisted names back to a type and a builder. The host
// supplies it; the registry file only stores names.
type Resolver interface {
	Resolve(typeName, builderName string) (reflect.Type, codec.Builder, error)
}

// ResolverTable is a Resolver backed by an explicit table.
type ResolverTable struct {
	types map[string]resolverEntry
}

type resolverEntry struct {
	typ      reflect.Type
	builders map[string]codec.Builder
}

// NewResolverTable returns an empty table.
func NewResolverTable() *ResolverTable {
	return &ResolverTable{types: make(map[string]resolverEntry)}
}

// Add makes proto's type and b resolvable by their names.
func (t *ResolverTable) Add(proto codec.Value, b codec.Builder) *ResolverTable {
	typ := reflect.TypeOf(proto)
	name := codec.TypeNameOf(typ)
	e, ok := t.types[name]
	if !ok {
		e = resolverEntry{typ: typ, builders: make(map[string]codec.Builder)}
		t.types[name] = e
	}
	e.builders[b.Name()] = b
	return t
}

// AddBindings adds every binding's prototype and builder.
func (t *ResolverTable) AddBindings(bindings ...Binding) *ResolverTable {
	for _, b := range bindings {
		t.Add(b.Proto, b.Builder)
	}
	return t
}

// Resolve implements Resolver.
func (t *ResolverTable) Resolve(typeName, builderName string) (reflect.Type, codec.Builder, error) {
	e, ok := t.types[typeName]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnresolved, "type %q", typeName)
	}
	b, ok := e.builders[builderName]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnresolved, "builder %q for type %q", builderName, typeName)
	}
	return e.typ, b, nil
}

// WriteTo writes every binding as a record, ordered by code.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	sw := codec.NewStreamWriter(w)
	err := writeRecords(sw, r.Records())
	return sw.Written(), err
}

// WriteRecords writes records in the record file format.
func WriteRecords(w io.Writer, records []Record) error {
	return writeRecords(codec.NewStreamWriter(w), records)
}

func writeRecords(sw *codec.StreamWriter, records []Record) error {
	for _, rec := range records {
		if err := sw.WriteUTF(rec.TypeName); err != nil {
			return errors.Wrapf(err, "write type name of code %d", rec.Code)
		}
		if err := sw.WriteUTF(rec.BuilderName); err != nil {
			return errors.Wrapf(err, "write builder name of code %d", rec.Code)
		}
		if err := sw.WriteInt16(int16(rec.Code)); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// ReadRecords reads records until the data ends. A short or malformed
// record ends the scan; the records before it are returned without error.
// Only I/O failures of the underlying reader are reported.
func ReadRecords(rd io.Reader) ([]Record, error) {
	sr := codec.NewStreamReader(rd)
	var records []Record
	for !sr.AtEOF() {
		rec, err := readRecord(sr)
		if err != nil {
			if errors.Is(err, codec.ErrBounds) || errors.Is(err, errMalformed) {
				break
			}
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

var errMalformed = errors.New("discriminator: malformed record")

func readRecord(sr *codec.StreamReader) (Record, error) {
	typeName, err := sr.ReadUTF()
	if err != nil {
		return Record{}, err
	}
	builderName, err := sr.ReadUTF()
	if err != nil {
		return Record{}, err
	}
	code, err := sr.ReadInt16()
	if err != nil {
		return Record{}, err
	}
	if typeName == "" || builderName == "" || !utf8.ValidString(typeName) || !utf8.ValidString(builderName) {
		return Record{}, errMalformed
	}
	return Record{TypeName: typeName, BuilderName: builderName, Code: codec.Discriminator(code)}, nil
}

// Load builds a registry from a record file.
func Load(rd io.Reader, res Resolver, opts ...Option) (*Registry, error) {
	reg := New(opts...)
	if _, _, err := reg.LoadFrom(rd, res); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFrom adds the bindings of a record file to r. Records whose names
// cannot be resolved, or that conflict with an existing binding, are
// logged, returned in skipped, and the scan continues with the next
// record.
func (r *Registry) LoadFrom(rd io.Reader, res Resolver) (loaded int, skipped []Record, err error) {
	records, err := ReadRecords(rd)
	if err != nil {
		return 0, nil, errors.Wrap(err, "read discriminator records")
	}

	for _, rec := range records {
		typ, b, err := res.Resolve(rec.TypeName, rec.BuilderName)
		if err == nil {
			err = r.RegisterType(typ, b, rec.Code)
		}
		if err != nil {
			r.log.Warn().
				Err(err).
				Int16("code", int16(rec.Code)).
				Str("type", rec.TypeName).
				Str("builder", rec.BuilderName).
				Msg("skipping discriminator record")
			skipped = append(skipped, rec)
			continue
		}
		loaded++
	}

	r.log.Debug().Int("loaded", loaded).Int("skipped", len(skipped)).Msg("discriminator records loaded")
	return loaded, skipped, nil
}
