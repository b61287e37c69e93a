// Package di provides dependency injection container
package di

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/config"
	"github.com/ssargent/cerberus/pkg/discriminator"
	"github.com/ssargent/cerberus/pkg/logging"
	"github.com/ssargent/cerberus/pkg/query"
	"github.com/ssargent/cerberus/pkg/storage"
	"github.com/ssargent/cerberus/pkg/wire"
)

// StoreFactory opens the value store. Tests substitute their own.
type StoreFactory func(path string, c *codec.Codec, opts storage.Options) (*storage.ValueStore, error)

// Container holds all the dependencies for the application
type Container struct {
	config   *config.Config
	logger   zerolog.Logger
	metrics  *prometheus.Registry
	registry *discriminator.Registry
	codec    *codec.Codec
	engine   *query.Engine

	storeFactory StoreFactory
	storeOnce    sync.Once
	store        *storage.ValueStore
	storeErr     error
}

// NewContainer creates a new dependency injection container. Logs go to
// logOut. The registry file named by cfg is loaded when it exists.
func NewContainer(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging, logOut, "cerberus")
	metrics := prometheus.NewRegistry()

	reg, err := wire.LoadRegistry(cfg.RegistryPath(),
		discriminator.WithLogger(logging.Component(logger, "registry")))
	if err != nil {
		return nil, errors.Wrapf(err, "load registry %s", cfg.RegistryPath())
	}

	c := &Container{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		registry: reg,
		codec: codec.New(reg,
			codec.WithLimits(codec.Limits{
				MaxFrameBytes: cfg.Codec.MaxFrameBytes,
				MaxDepth:      cfg.Codec.MaxDepth,
			}),
			codec.WithLogger(logging.Component(logger, "codec")),
			codec.WithMetrics(codec.NewMetrics(metrics)),
		),
		engine: query.NewEngine(
			query.WithLogger(logging.Component(logger, "engine")),
			query.WithMetrics(query.NewMetrics(metrics)),
		),
		storeFactory: storage.Open,
	}
	return c, nil
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the root logger
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Metrics returns the prometheus registry every collector is registered with
func (c *Container) Metrics() *prometheus.Registry {
	return c.metrics
}

// Registry returns the discriminator registry
func (c *Container) Registry() *discriminator.Registry {
	return c.registry
}

// Codec returns the codec bound to Registry
func (c *Container) Codec() *codec.Codec {
	return c.codec
}

// Engine returns the trace engine
func (c *Container) Engine() *query.Engine {
	return c.engine
}

// Store opens the value store on first use
func (c *Container) Store() (*storage.ValueStore, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.storeFactory(c.config.StorePath(), c.codec, storage.Options{
			SyncWrites: c.config.Storage.SyncWrites,
			Logger:     logging.Component(c.logger, "storage"),
		})
	})
	return c.store, c.storeErr
}

// SetStoreFactory allows overriding how the store is opened (for testing).
// It has no effect once Store has been called.
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}

// Close releases the store if it was opened
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
