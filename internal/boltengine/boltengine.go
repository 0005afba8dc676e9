// Package boltengine is the "sled" alternate storage engine: the same
// Engine contract as internal/engine, backed by go.etcd.io/bbolt instead
// of the hand-rolled log-structured store. Every key lives in a single
// bucket inside one bbolt database file, so Set/Get/Remove are just
// bucket operations inside a transaction rather than segment/index
// bookkeeping.
package boltengine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/ignitekv/ignite/internal/dirlock"
	"github.com/ignitekv/ignite/internal/enginetag"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	"github.com/ignitekv/ignite/pkg/options"
)

// EngineKind is the name recorded in a data directory's engine tag file
// and reported by options.EngineKind for this implementation.
const EngineKind = "sled"

// bucketName is the single bucket every key/value pair lives in. The
// contract gives callers no range scans or secondary indexes, so one flat
// bucket is all this engine needs.
var bucketName = []byte("ignite")

// fileName is the bbolt database file within the data directory.
const fileName = "ignite.db"

// ErrEngineClosed is returned when attempting to perform operations on a
// closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

var _ enginecontract.Engine = (*Engine)(nil)

// Engine is the bbolt-backed implementation of enginecontract.Engine.
type Engine struct {
	db     *bbolt.DB
	log    *zap.SugaredLogger
	closed atomic.Bool

	lock *dirlock.Lock // nil on clones: only the root engine holds the directory lock.
	refs *atomic.Int64 // shared refcount across Clone()s; only the last Close actually tears down.
}

// Config holds the parameters needed to open an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens (creating if absent) the bbolt database inside
// config.Options.DataDir, after acquiring the directory lock and checking
// the engine tag file matches EngineKind.
func New(ctx context.Context, config *Config) (*Engine, error) {
	dataDir := config.Options.DataDir

	lock, err := dirlock.Acquire(dataDir)
	if err != nil {
		return nil, err
	}

	if err := enginetag.Check(dataDir, EngineKind); err != nil {
		lock.Release()
		return nil, err
	}

	db, err := bbolt.Open(filepath.Join(dataDir, fileName), 0644, &bbolt.Options{Timeout: 0})
	if err != nil {
		lock.Release()
		return nil, kverrors.NewEngineError(err, kverrors.ErrorCodeIO, "failed to open bbolt database").
			WithDataDir(dataDir)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		lock.Release()
		return nil, kverrors.NewEngineError(err, kverrors.ErrorCodeIO, "failed to create bucket").
			WithDataDir(dataDir)
	}

	refs := &atomic.Int64{}
	refs.Store(1)

	return &Engine{
		db:   db,
		log:  config.Logger,
		lock: lock,
		refs: refs,
	}, nil
}

// Set stores key/value durably and updates the bucket.
func (e *Engine) Set(key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	err := e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return kverrors.NewStorageError(err, kverrors.ErrorCodeIO, "failed to write key")
	}
	return nil
}

// Get returns the current value for key. ok is false if key has no live
// value.
func (e *Engine) Get(key string) (value string, ok bool, err error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}

	err = e.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw != nil {
			value = string(raw)
			ok = true
		}
		return nil
	})
	if err != nil {
		return "", false, kverrors.NewStorageError(err, kverrors.ErrorCodeIO, "failed to read key")
	}
	return value, ok, nil
}

// Remove deletes key. Returns an error satisfying errors.IsKeyNotFound if
// key has no live value.
func (e *Engine) Remove(key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	err := e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return kverrors.NewKeyNotFoundError(key)
		}
		return b.Delete([]byte(key))
	})
	return err
}

// Clone returns a facade sharing this engine's bbolt handle. The
// underlying database isn't closed until every clone (and the original)
// has called Close.
func (e *Engine) Clone() enginecontract.Engine {
	e.refs.Add(1)
	return &Engine{
		db:   e.db,
		log:  e.log,
		refs: e.refs,
		// lock is intentionally nil: only the engine that acquired it releases it.
	}
}

// Close gracefully shuts down this facade. The directory lock and bbolt
// database are only actually torn down once every clone has closed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	if e.refs.Add(-1) > 0 {
		return nil
	}

	if err := e.db.Close(); err != nil {
		return kverrors.NewEngineError(err, kverrors.ErrorCodeIO, "failed to close bbolt database")
	}
	if e.lock != nil {
		return e.lock.Release()
	}
	return nil
}
