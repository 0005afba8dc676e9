package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Locator is the absolute minimum metadata required to find a record on
// disk: which segment it lives in, and the byte range within that segment.
// This is the primary memory consumer in the whole system, so field choices
// here matter — larger fields come first to avoid compiler padding.
type Locator struct {
	// Offset is the byte position within the segment where the record's
	// header begins.
	Offset int64

	// Length is the total number of bytes the record occupies on disk,
	// header included, so a lookup is always a single positioned read.
	Length int64

	// SegmentID identifies which segment file holds the record.
	SegmentID uint64
}

// Index is the in-memory hash table mapping keys to their most recent
// on-disk location. Every key lives in memory; only values live on disk.
// One writer goroutine and any number of concurrent readers share it, none
// of them ever observing a torn Locator.
type Index struct {
	dataDir string             // filesystem directory the segments live in.
	log     *zap.SugaredLogger // structured logging.
	entries map[string]Locator // key -> most recent locator.
	mu      sync.RWMutex       // guards entries.
	closed  atomic.Bool        // true once Close has run.
}

// Config encapsulates the configuration parameters required to initialize
// an Index.
type Config struct {
	DataDir string             // filesystem directory containing segment files.
	Logger  *zap.SugaredLogger // structured logging for Index operations.
}
