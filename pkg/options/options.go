// Package options provides data structures and functions for configuring
// the Ignite database. It defines various parameters that control Ignite's
// storage behavior, performance, and maintenance operations, such as
// directory paths, segment characteristics, and compaction intervals.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for each segment.
// It provides fine-grained control over segment behavior, performance, and resource utilization.
type segmentOptions struct {
	// Maximum segment size setting, validated by WithSegmentSize. Neither
	// engine reads it: segments do not rotate by size, and a new active
	// segment is started only when the store opens or compaction runs.
	//
	//  - Default: 1GB
	//  - Maximum: 4GB
	//  - Minimum: 512MB
	Size uint64 `json:"maxSegmentSize"`

	// Specifies where segment files are stored.
	//
	// Default: "/var/lib/ignitedb/segments"
	Directory string `json:"directory"`

	// Filename prefix setting for segment files. Neither engine reads it:
	// segment files are named by their zero-padded id plus ".log"
	// (pkg/seginfo), with no prefix.
	//
	// Default: "segment"
	Prefix string `json:"prefix"`
}

// Defines the configuration parameters for Ignite DB.
// It provides control over storage, performance and maintenance aspects.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Compaction interval setting, validated by WithCompactInterval.
	// Neither engine reads it: compaction runs inline once
	// CompactionThreshold stale bytes have accumulated, not on a timer.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// Configures segment management including size limits and naming convention.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// Number of stale bytes accumulated across segments before the writer
	// triggers an inline compaction pass.
	//
	// Default: 1MiB
	CompactionThreshold uint64 `json:"compactionThreshold"`

	// When true, every Append syncs the segment file to stable storage
	// before returning. When false (the default), appends are flushed to
	// the OS but not fsynced, trading durability-on-crash for throughput.
	Fsync bool `json:"fsync"`

	// Selects which storage engine implementation backs the store:
	// EngineKindKVS (the native append-only log engine) or EngineKindSled
	// (the bbolt-backed alternate engine).
	//
	// Default: "kvs"
	EngineKind string `json:"engineKind"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactInterval = opts.CompactInterval
		o.CompactionThreshold = opts.CompactionThreshold
		o.Fsync = opts.Fsync
		o.EngineKind = opts.EngineKind
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which Ignite performs compaction operations.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > DefaultCompactInterval {
			o.CompactInterval = interval
		}
	}
}

// Sets the directory specifically for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the file name prefix for segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// Sets the maximum size of individual segment files.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinSegmentSize && size < MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

// Sets the stale-byte threshold that triggers an inline compaction pass.
func WithCompactionThreshold(threshold uint64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.CompactionThreshold = threshold
		}
	}
}

// Enables or disables fsync-on-every-append durability.
func WithFsync(fsync bool) OptionFunc {
	return func(o *Options) {
		o.Fsync = fsync
	}
}

// Selects the storage engine implementation: EngineKindKVS or EngineKindSled.
func WithEngine(kind string) OptionFunc {
	return func(o *Options) {
		kind = strings.TrimSpace(kind)
		if kind == EngineKindKVS || kind == EngineKindSled {
			o.EngineKind = kind
		}
	}
}
