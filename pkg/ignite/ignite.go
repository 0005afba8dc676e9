// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (KeyDir/Index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for in-memory data storage in Go applications.
package ignite

import (
	"context"

	"go.uber.org/zap"

	"github.com/ignitekv/ignite/internal/boltengine"
	"github.com/ignitekv/ignite/internal/engine"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

// Engine re-exports the shared storage-engine contract so callers of this
// package never need to import pkg/enginecontract directly.
type Engine = enginecontract.Engine

// Represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
type Instance struct {
	engine  Engine           // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// Creates and initializes a new Ignite DB instance. The engine implementation
// backing the instance is selected by opts.EngineKind ("kvs", the default
// log-structured engine, or "sled", the bbolt-backed alternate engine).
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	defaultOpts := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := open(ctx, &defaultOpts, log)
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// open selects and starts the engine implementation named by
// opts.EngineKind, matching internal/engine.EngineKind/
// internal/boltengine.EngineKind against the tag file already recorded in
// opts.DataDir (see internal/enginetag).
func open(ctx context.Context, opts *options.Options, log *zap.SugaredLogger) (Engine, error) {
	switch opts.EngineKind {
	case boltengine.EngineKind:
		return boltengine.New(ctx, &boltengine.Config{Options: opts, Logger: log})
	case engine.EngineKind, "":
		return engine.New(ctx, &engine.Config{Options: opts, Logger: log})
	default:
		return nil, kverrors.NewFieldFormatError("EngineKind", opts.EngineKind, "kvs or sled")
	}
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The operation is durable and will be written to the append-only log.
func (i *Instance) Set(ctx context.Context, key, value string) error {
	return i.engine.Set(key, value)
}

// Get retrieves the value associated with the given key. ok is false if
// key has no live value.
func (i *Instance) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	return i.engine.Get(key)
}

// Delete removes a key-value pair from the database.
func (i *Instance) Delete(ctx context.Context, key string) error {
	return i.engine.Remove(key)
}

// Clone returns a new Instance sharing this one's underlying engine state,
// so each goroutine can hold its own cheap facade.
func (i *Instance) Clone() *Instance {
	return &Instance{engine: i.engine.Clone(), options: i.options}
}

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources, flushing any pending writes, and ensuring data
// durability.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
