package discriminator

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// SaveFile writes the registry to path, replacing any existing file.
func (r *Registry) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create registry directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to open registry file")
	}

	if _, err := r.WriteTo(file); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "failed to write registry file")
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "failed to sync registry file")
	}

	return file.Close()
}

// LoadFile builds a registry from the record file at path.
func LoadFile(path string, res Resolver, opts ...Option) (*Registry, error) {
	reg := New(opts...)
	if err := reg.LoadFileInto(path, res); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFileInto adds the bindings stored at path to r.
func (r *Registry) LoadFileInto(path string, res Resolver) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open registry file")
	}
	defer file.Close()

	if _, _, err := r.LoadFrom(file, res); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}
