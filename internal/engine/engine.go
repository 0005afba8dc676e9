// Package engine provides the core database engine implementation for the Ignite storage system.
//
// The engine serves as the central coordinator and entry point for all database operations.
// It orchestrates the interaction between the index, the single writer, per-caller reader
// handles, and the compactor, and implements the exported Engine contract so callers can
// swap in the bbolt-backed alternate engine (internal/boltengine) without noticing.
//
// The engine implements a thread-safe interface with proper lifecycle management,
// ensuring resources are properly initialized and cleaned up. It uses atomic operations
// for state management to provide consistent behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitekv/ignite/internal/compaction"
	"github.com/ignitekv/ignite/internal/dirlock"
	"github.com/ignitekv/ignite/internal/enginetag"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/reader"
	"github.com/ignitekv/ignite/internal/writer"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	"github.com/ignitekv/ignite/pkg/filesys"
	"github.com/ignitekv/ignite/pkg/options"
)

// compile-time assertion that Engine satisfies the shared contract.
var _ enginecontract.Engine = (*Engine)(nil)

// EngineKind is the name recorded in a data directory's engine tag file and
// reported by options.EngineKind for this implementation.
const EngineKind = "kvs"

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")
)

// Engine represents the main database engine that coordinates all subsystems.
// It acts as the primary interface for database operations and manages the lifecycle
// of all internal components. The engine is designed to be thread-safe and supports
// concurrent operations while maintaining data consistency.
type Engine struct {
	options *options.Options   // options contains all configuration parameters for the engine and its subsystems.
	log     *zap.SugaredLogger // log provides structured logging capabilities throughout the engine.
	closed  atomic.Bool        // closed is an atomic boolean that tracks the engine's lifecycle state.

	index     *index.Index // index manages the in-memory data structures for fast data access.
	wr        *writer.Writer
	compactor *compaction.Runner

	activeID  *atomic.Uint64 // shared with every reader handle cloned from this engine.
	safePoint *atomic.Uint64

	reader *reader.Handle // this facade's own long-lived handle; never shared across facades.

	lock *dirlock.Lock // nil on clones: only the root engine holds the directory lock.
	refs *atomic.Int64  // shared refcount across Clone()s; only the last Close actually tears down.
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided configuration.
// This constructor follows the dependency injection pattern, making the engine
// testable and allowing for different configurations in different environments.
func New(ctx context.Context, config *Config) (*Engine, error) {
	dataDir := filepath.Join(config.Options.DataDir, config.Options.SegmentOptions.Directory)

	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		return nil, err
	}

	lock, err := dirlock.Acquire(config.Options.DataDir)
	if err != nil {
		return nil, err
	}

	if err := enginetag.Check(config.Options.DataDir, EngineKind); err != nil {
		lock.Release()
		return nil, err
	}

	idx, err := index.New(ctx, &index.Config{DataDir: dataDir, Logger: config.Logger})
	if err != nil {
		lock.Release()
		return nil, err
	}

	var activeID, safePoint atomic.Uint64
	wr, err := writer.Open(ctx, writer.Config{
		Dir:                 dataDir,
		Logger:              config.Logger,
		Index:               idx,
		Fsync:               config.Options.Fsync,
		CompactionThreshold: config.Options.CompactionThreshold,
		ActiveID:            &activeID,
		SafePoint:           &safePoint,
	})
	if err != nil {
		lock.Release()
		return nil, err
	}

	runner := compaction.New(dataDir, config.Options.Fsync, idx)
	wr.SetCompactor(runner)

	refs := &atomic.Int64{}
	refs.Store(1)

	e := &Engine{
		options:   config.Options,
		log:       config.Logger,
		index:     idx,
		wr:        wr,
		compactor: runner,
		activeID:  &activeID,
		safePoint: &safePoint,
		lock:      lock,
		refs:      refs,
	}
	e.reader = e.newReaderHandle()
	return e, nil
}

// newReaderHandle builds a fresh reader.Handle over this engine's shared
// state. Called once per facade, in New and Clone, so every Engine value
// (root or clone) owns exactly one Handle and its mmap cache for its whole
// lifetime instead of paying to reopen segments on every Get.
func (e *Engine) newReaderHandle() *reader.Handle {
	dataDir := filepath.Join(e.options.DataDir, e.options.SegmentOptions.Directory)
	return reader.New(dataDir, e.index, e.wr, e.activeID, e.safePoint)
}

// Set stores key/value durably and updates the index.
func (e *Engine) Set(key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.wr.Set(context.Background(), key, value)
}

// Get returns the current value for key. ok is false if key has no live
// value. It reuses this facade's own long-lived reader.Handle rather than
// building a fresh one per call, so repeated reads of a retired segment hit
// that Handle's mmap cache instead of leaking a new file descriptor and
// mapping on every Get.
func (e *Engine) Get(key string) (value string, ok bool, err error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}
	return e.reader.Get(key)
}

// Remove deletes key. Returns an error satisfying errors.IsKeyNotFound if
// key has no live value.
func (e *Engine) Remove(key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.wr.Remove(context.Background(), key)
}

// Clone returns a new facade sharing this engine's index, writer, and
// shared atomics, but with its own reader.Handle and mmap cache, so
// internal/workerpool can hand each worker goroutine an independent Get
// path without worker goroutines contending on, or leaking through, one
// another's cached segment mappings. The underlying store isn't closed
// until every clone (and the original) has called Close.
func (e *Engine) Clone() enginecontract.Engine {
	e.refs.Add(1)
	clone := &Engine{
		options:   e.options,
		log:       e.log,
		index:     e.index,
		wr:        e.wr,
		compactor: e.compactor,
		activeID:  e.activeID,
		safePoint: e.safePoint,
		refs:      e.refs,
		// lock is intentionally nil: only the engine that acquired it releases it.
	}
	clone.reader = clone.newReaderHandle()
	return clone
}

// Close gracefully shuts down this facade. This facade's own reader.Handle
// (and whatever mmap readers it has cached) is always closed here, since
// it belongs to this facade alone; the directory lock, writer, and index
// are shared and are only actually torn down once every clone has closed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	readerErr := e.reader.Close()

	if e.refs.Add(-1) > 0 {
		return readerErr
	}

	if err := e.wr.Close(); err != nil {
		return err
	}
	if err := e.index.Close(); err != nil {
		return err
	}
	if e.lock != nil {
		return e.lock.Release()
	}
	return readerErr
}
