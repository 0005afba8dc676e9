// Package enginecontract declares the storage-engine contract shared by
// internal/engine (the log-structured kvs engine) and internal/boltengine
// (the bbolt-backed sled engine), so callers above both — pkg/ignite,
// internal/workerpool, internal/server — can depend on one interface
// without either engine package importing the other.
package enginecontract

// Engine is the capability contract every storage engine implementation
// satisfies. internal/workerpool keeps one Engine per worker goroutine via
// repeated Clone() calls, so Clone must be cheap and share underlying
// state rather than duplicate it.
type Engine interface {
	// Set stores key/value durably and updates the index.
	Set(key, value string) error

	// Get returns the current value for key. ok is false if key has no
	// live value.
	Get(key string) (value string, ok bool, err error)

	// Remove deletes key. Returns an error satisfying errors.IsKeyNotFound
	// if key has no live value.
	Remove(key string) error

	// Clone returns a facade sharing this engine's underlying state. The
	// store isn't torn down until every clone (and the original) has
	// called Close.
	Clone() Engine

	// Close releases this facade's resources. The underlying store is
	// only actually torn down once every clone has closed.
	Close() error
}
