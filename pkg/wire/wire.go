// Package wire assembles the registry that knows every built-in value type:
// the document values and containers, QueryResult, and the trace nodes.
package wire

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/cerberus/pkg/discriminator"
	"github.com/ssargent/cerberus/pkg/document"
	"github.com/ssargent/cerberus/pkg/query"
)

// Bindings returns every built-in registration, document types first.
func Bindings() []discriminator.Binding {
	return append(document.Bindings(), query.Bindings()...)
}

// NewRegistry returns a registry holding every built-in binding.
func NewRegistry(opts ...discriminator.Option) (*discriminator.Registry, error) {
	reg := discriminator.New(opts...)
	if err := reg.RegisterAll(Bindings()...); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewResolver returns a resolver for every built-in type name.
func NewResolver() *discriminator.ResolverTable {
	return discriminator.NewResolverTable().AddBindings(Bindings()...)
}

// LoadRegistry loads the registry file at path. When the file does not
// exist the built-in registry is returned instead.
func LoadRegistry(path string, opts ...discriminator.Option) (*discriminator.Registry, error) {
	if path == "" {
		return NewRegistry(opts...)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewRegistry(opts...)
	}
	return discriminator.LoadFile(path, NewResolver(), opts...)
}
