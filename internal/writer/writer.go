// Package writer implements the single-writer mutation path: Set and
// Remove, the stale-byte accounting that decides when to compact, and the
// writer-side half of the compaction handshake (internal/compaction.
// WriterCoordinator).
package writer

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitekv/ignite/internal/codec"
	"github.com/ignitekv/ignite/internal/compaction"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/segment"
	"github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/seginfo"
)

// Compactor is the subset of internal/compaction.Runner the writer drives
// directly, kept as an interface so tests can substitute a fake.
type Compactor interface {
	Run(ctx context.Context, wc compaction.WriterCoordinator) (bytesWritten int64, err error)
}

// Config configures a Writer.
type Config struct {
	Dir                 string
	Logger              *zap.SugaredLogger
	Index               *index.Index
	Fsync               bool
	CompactionThreshold uint64

	// ActiveID and SafePoint are published here and read by reader.Handle
	// without any lock, following the teacher's atomic.Bool idiom.
	ActiveID  *atomic.Uint64
	SafePoint *atomic.Uint64
}

// Writer serializes every mutation against one data directory. Set/Remove
// append a record to the active segment, flush it, and only then update the
// index — the append's flush is the durability point, the index update is
// the visibility point, and the two never happen out of order.
type Writer struct {
	mu sync.Mutex

	dir    string
	log    *zap.SugaredLogger
	idx    *index.Index
	fsync  bool
	active *segment.Segment

	activeID  *atomic.Uint64
	safePoint *atomic.Uint64

	staleBytes atomic.Int64
	threshold  uint64

	compactor Compactor
}

// Open discovers every existing segment in dir, replays them in ascending
// id order to rebuild cfg.Index and the stale-byte counter (see
// recoverSegments), then creates a fresh active segment one past the
// highest existing id, or segment 0 if the directory is empty; segments
// found on disk are never appended to again. The returned
// Writer's index reflects exactly what was durable on disk when Open was
// called, so closing and reopening a store yields the same key/value
// mapping.
func Open(ctx context.Context, cfg Config) (*Writer, error) {
	ids, err := seginfo.ListSegmentIDs(cfg.Dir)
	if err != nil {
		return nil, err
	}

	staleBytes, err := recoverSegments(cfg.Dir, cfg.Index, ids)
	if err != nil {
		return nil, err
	}

	var id uint64
	if len(ids) > 0 {
		id = ids[len(ids)-1] + 1
	}
	active, err := segment.Create(cfg.Dir, id, cfg.Fsync)
	if err != nil {
		return nil, err
	}

	cfg.ActiveID.Store(id)

	w := &Writer{
		dir:       cfg.Dir,
		log:       cfg.Logger,
		idx:       cfg.Index,
		fsync:     cfg.Fsync,
		active:    active,
		activeID:  cfg.ActiveID,
		safePoint: cfg.SafePoint,
		threshold: cfg.CompactionThreshold,
	}
	w.staleBytes.Store(staleBytes)
	return w, nil
}

// SetCompactor wires the compaction runner in after construction, since the
// runner itself needs a reference back to the writer as its coordinator.
func (w *Writer) SetCompactor(c Compactor) {
	w.compactor = c
}

// ReadAt satisfies reader.ActiveReader: a positioned read against the
// currently active segment's live file handle.
func (w *Writer) ReadAt(offset, length int64) ([]byte, error) {
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()
	return active.ReadAt(offset, length)
}

// StaleBytes reports the current stale-byte counter, for diagnostics.
func (w *Writer) StaleBytes() int64 { return w.staleBytes.Load() }

// Set appends a Set record for key/value, then publishes the new locator.
// If overwriting a prior value, its old bytes are counted as stale and
// compaction is triggered inline once the threshold is crossed.
func (w *Writer) Set(ctx context.Context, key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	loc, err := w.append(codec.NewSet(key, value))
	if err != nil {
		return err
	}

	prev, had := w.idx.Put(key, loc)
	if had {
		w.staleBytes.Add(prev.Length)
	}

	return w.maybeCompact(ctx)
}

// Remove appends a Remove record for key and drops it from the index.
// Returns errors.ErrKeyNotFound (via errors.IsKeyNotFound) if key has no
// current value.
func (w *Writer) Remove(ctx context.Context, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev, had := w.idx.Get(key)
	if !had {
		return errors.NewKeyNotFoundError(key)
	}

	if _, err := w.append(codec.NewRemove(key)); err != nil {
		return err
	}
	w.idx.Delete(key)

	w.staleBytes.Add(prev.Length)
	return w.maybeCompact(ctx)
}

// append must be called with w.mu held. It encodes rec, appends it to the
// active segment, and returns its locator. The segment's own flush (and,
// if configured, fsync) completes before append returns.
func (w *Writer) append(rec codec.Record) (index.Locator, error) {
	var buf [4096]byte
	encoded, err := encodeInto(buf[:0], rec)
	if err != nil {
		return index.Locator{}, err
	}

	offset, err := w.active.Append(encoded)
	if err != nil {
		return index.Locator{}, err
	}

	return index.Locator{SegmentID: w.active.ID(), Offset: offset, Length: int64(len(encoded))}, nil
}

// maybeCompact runs a compaction pass inline when the stale-byte counter
// has crossed the configured threshold. Must be called with w.mu held.
func (w *Writer) maybeCompact(ctx context.Context) error {
	if w.compactor == nil || uint64(w.staleBytes.Load()) < w.threshold {
		return nil
	}
	_, err := w.compactor.Run(ctx, w)
	return err
}

// AllocateOutputAndAdvance implements compaction.WriterCoordinator.
func (w *Writer) AllocateOutputAndAdvance() (outputID uint64, liveSegmentIDs []uint64, err error) {
	ids, err := seginfo.ListSegmentIDs(w.dir)
	if err != nil {
		return 0, nil, err
	}

	outputID = ids[len(ids)-1] + 1
	newActiveID := outputID + 1

	newActive, err := segment.Create(w.dir, newActiveID, w.fsync)
	if err != nil {
		return 0, nil, err
	}

	if err := w.active.Close(); err != nil {
		newActive.Close()
		return 0, nil, err
	}

	w.active = newActive
	w.activeID.Store(newActiveID)

	return outputID, ids, nil
}

// AdvanceSafePoint implements compaction.WriterCoordinator.
func (w *Writer) AdvanceSafePoint(id uint64) {
	w.safePoint.Store(id)
}

// Retire implements compaction.WriterCoordinator.
func (w *Writer) Retire(ids []uint64) error {
	var firstErr error
	for _, id := range ids {
		if err := segment.Remove(w.dir, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.staleBytes.Store(0)
	return firstErr
}

// Close flushes and closes the active segment. The caller must ensure no
// further Set/Remove calls are in flight.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active.Close()
}

func encodeInto(buf []byte, rec codec.Record) ([]byte, error) {
	bw := &byteWriter{buf: buf}
	if _, err := codec.Encode(bw, rec); err != nil {
		return nil, err
	}
	return bw.buf, nil
}

// byteWriter is a minimal io.Writer over a growable byte slice, avoiding a
// bytes.Buffer allocation per append in the common case where buf's
// initial backing array (stack-allocated by the caller) is big enough.
type byteWriter struct{ buf []byte }

func (w *byteWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
