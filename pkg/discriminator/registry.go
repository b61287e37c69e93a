// Package discriminator maps value types to the small integer codes that
// identify them on the wire, and persists that mapping as a flat record
// file.
package discriminator

import (
	"reflect"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/ssargent/cerberus/pkg/codec"
)

// Record is one persisted binding.
type Record struct {
	TypeName    string
	BuilderName string
	Code        codec.Discriminator
}

type entry struct {
	typ     reflect.Type
	name    string
	builder codec.Builder
	code    codec.Discriminator
}

func (e *entry) record() Record {
	return Record{TypeName: e.name, BuilderName: e.builder.Name(), Code: e.code}
}

// Registry is a bijective table between Go types and discriminators, with
// one builder per code. It is meant to be filled once during start-up and
// read afterwards; the lock only keeps it memory safe.
type Registry struct {
	mu     sync.RWMutex
	byCode map[codec.Discriminator]*entry
	byType map[reflect.Type]*entry
	log    zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used while loading record files.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byCode: make(map[codec.Discriminator]*entry),
		byType: make(map[reflect.Type]*entry),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds proto's dynamic type to code and code to b. Either both
// bindings are made or neither is.
func (r *Registry) Register(proto codec.Value, b codec.Builder, code codec.Discriminator) error {
	if proto == nil {
		return errors.Wrap(ErrInvalidBinding, "nil prototype")
	}
	return r.RegisterType(reflect.TypeOf(proto), b, code)
}

// RegisterType is Register for callers that hold a reflect.Type.
func (r *Registry) RegisterType(typ reflect.Type, b codec.Builder, code codec.Discriminator) error {
	if typ == nil || b == nil {
		return errors.Wrap(ErrInvalidBinding, "nil type or builder")
	}
	if code == codec.Absent {
		return errors.Wrapf(ErrReservedCode, "code %d", code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byCode[code]; ok {
		return errors.Wrapf(ErrCodeInUse, "code %d is bound to %s", code, existing.name)
	}
	if existing, ok := r.byType[typ]; ok {
		return errors.Wrapf(ErrTypeRegistered, "%s is bound to code %d", existing.name, existing.code)
	}

	e := &entry{typ: typ, name: codec.TypeNameOf(typ), builder: b, code: code}
	r.byCode[code] = e
	r.byType[typ] = e
	return nil
}

// Binding is a registration waiting to be applied.
type Binding struct {
	Proto   codec.Value
	Builder codec.Builder
	Code    codec.Discriminator
}

// RegisterAll registers every binding in order and stops at the first
// failure.
func (r *Registry) RegisterAll(bindings ...Binding) error {
	for _, b := range bindings {
		if err := r.Register(b.Proto, b.Builder, b.Code); err != nil {
			return errors.Wrapf(err, "register %s", codec.TypeName(b.Proto))
		}
	}
	return nil
}

// Builder returns the builder bound to code.
func (r *Registry) Builder(code codec.Discriminator) (codec.Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byCode[code]
	if !ok {
		return nil, &codec.UnknownDiscriminatorError{Code: code}
	}
	return e.builder, nil
}

// Code returns the discriminator of v's type, or codec.Absent when the
// type was never registered.
func (r *Registry) Code(v codec.Value) codec.Discriminator {
	if v == nil {
		return codec.Absent
	}
	return r.CodeOf(reflect.TypeOf(v))
}

// CodeOf returns the discriminator bound to typ, or codec.Absent.
func (r *Registry) CodeOf(typ reflect.Type) codec.Discriminator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byType[typ]
	if !ok {
		return codec.Absent
	}
	return e.code
}

// Lookup finds the binding of a type by its registry name.
func (r *Registry) Lookup(typeName string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.byCode {
		if e.name == typeName {
			return e.record(), true
		}
	}
	return Record{}, false
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCode)
}

// Records returns every binding ordered by code.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	records := make([]Record, 0, len(r.byCode))
	for _, e := range r.byCode {
		records = append(records, e.record())
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Code < records[j].Code })
	return records
}
