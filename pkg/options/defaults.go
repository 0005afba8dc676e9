package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default value of Options.CompactInterval (5 hours). The
	// engines do not run compaction on a timer; see CompactionThreshold.
	DefaultCompactInterval = time.Hour * 5

	// Represents the minimum allowed size for a segment file in bytes (512MB).
	MinSegmentSize uint64 = 512 * 1024 * 1024

	// Represents the maximum allowed size for a segment file in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default target size for a new segment file in bytes (1GB).
	DefaultSegmentSize uint64 = 1 * 1024 * 1024 * 1024

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "/segments"

	// Defines the default value of the segment Prefix option. Segment file
	// names do not use it; they are a zero-padded id plus ".log".
	DefaultSegmentPrefix = "segment"

	// Defines the default number of stale bytes a data directory accumulates
	// before the writer triggers an inline compaction pass.
	DefaultCompactionThreshold uint64 = 1 * 1024 * 1024

	// EngineKindKVS selects the native append-only log engine (internal/engine).
	EngineKindKVS = "kvs"

	// EngineKindSled selects the bbolt-backed alternate engine (internal/boltengine).
	EngineKindSled = "sled"
)

// Holds the default configuration settings for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	CompactInterval:     DefaultCompactInterval,
	CompactionThreshold: DefaultCompactionThreshold,
	Fsync:               false,
	EngineKind:          EngineKindKVS,
	SegmentOptions: &segmentOptions{
		Size:      DefaultSegmentSize,
		Prefix:    DefaultSegmentPrefix,
		Directory: DefaultSegmentDirectory,
	},
}

func NewDefaultOptions() Options {
	return defaultOptions
}
