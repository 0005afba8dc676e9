// Package reader implements the per-worker read path: given a key's
// locator from the index, fetch and decode the record it points at. Handles
// cache memory-mapped readers for retired (immutable) segments and fall
// back to a positioned read through the writer's live file handle for the
// currently active segment, since mmap never observes a file's later
// growth.
package reader

import (
	"bufio"
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/ignitekv/ignite/internal/codec"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/segment"
	"github.com/ignitekv/ignite/pkg/errors"
)

// ActiveReader is satisfied by whatever currently owns the active segment
// (the writer) so a Handle can read bytes already flushed to it without
// opening a second file descriptor per read.
type ActiveReader interface {
	ReadAt(offset, length int64) ([]byte, error)
}

// Handle is a read path over one data directory. Every field it mutates
// after construction (the mmap cache) is guarded by its own mutex, and idx
// and active have their own synchronization, so a single Handle can be
// shared by concurrent callers. It still pays to keep one Handle per worker
// goroutine (internal/workerpool) or per engine facade for that caller's
// lifetime, since a fresh Handle starts with an empty mmap cache and would
// otherwise reopen every retired segment it touches.
type Handle struct {
	dir    string
	idx    *index.Index
	active ActiveReader

	// activeID and safePoint are owned by the writer/compactor and shared
	// read-only here via atomic loads, mirroring the teacher's atomic.Bool
	// CAS idiom extended to a plain published counter.
	activeID  *atomic.Uint64
	safePoint *atomic.Uint64

	mu    sync.Mutex
	cache map[uint64]*segment.MmapReader
}

// New builds a Handle reading from dir, consulting idx for locators and
// delegating active-segment reads to active. activeID and safePoint are
// shared with the writer/compactor.
func New(dir string, idx *index.Index, active ActiveReader, activeID, safePoint *atomic.Uint64) *Handle {
	return &Handle{
		dir:       dir,
		idx:       idx,
		active:    active,
		activeID:  activeID,
		safePoint: safePoint,
		cache:     make(map[uint64]*segment.MmapReader),
	}
}

// Get resolves key through the index and returns its current value. ok is
// false when the key has no live locator (never written, or removed).
func (h *Handle) Get(key string) (value string, ok bool, err error) {
	loc, had := h.idx.Get(key)
	if !had {
		return "", false, nil
	}

	h.evictRetired()

	activeBefore := h.activeID.Load()
	raw, err := h.readAt(loc.SegmentID, loc.Offset, loc.Length)
	if loc.SegmentID == activeBefore && h.activeID.Load() != activeBefore {
		// The writer moved to a newer active segment during the read, so
		// the bytes may have come from that newer file; resolve key again.
		return h.Get(key)
	}
	if err != nil {
		return "", false, err
	}

	rec, _, err := codec.Decode(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", false, errors.NewStorageError(
			err, errors.ErrorCodeSegmentCorrupted, "failed to decode record at locator",
		).WithSegmentID(int(loc.SegmentID)).WithOffset(int(loc.Offset))
	}

	if rec.Kind != codec.KindSet || rec.Key != key {
		return "", false, errors.NewStorageError(
			nil, errors.ErrorCodeSegmentCorrupted, "record at locator does not match indexed key",
		).WithSegmentID(int(loc.SegmentID)).WithOffset(int(loc.Offset))
	}

	return rec.Value, true, nil
}

// readAt dispatches to the active segment's live file handle or a cached
// mmap reader for a retired segment, depending on whether segID is the
// active id when readAt loads it. It does not detect the writer advancing
// activeID between that load and the read; the positioned read then goes
// to the writer's newer active segment. Get checks for that advance and
// resolves the key again.
func (h *Handle) readAt(segID uint64, offset, length int64) ([]byte, error) {
	if segID == h.activeID.Load() {
		return h.active.ReadAt(offset, length)
	}

	mr, err := h.mmapFor(segID)
	if err != nil {
		return nil, err
	}
	return mr.ReadAt(offset, length)
}

func (h *Handle) mmapFor(segID uint64) (*segment.MmapReader, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if mr, ok := h.cache[segID]; ok {
		return mr, nil
	}

	mr, err := segment.OpenMmapReader(h.dir, segID)
	if err != nil {
		return nil, err
	}
	h.cache[segID] = mr
	return mr, nil
}

// evictRetired closes and drops cached readers for any segment below the
// current safe point; those files are about to be (or already were)
// deleted by the compactor.
func (h *Handle) evictRetired() {
	safe := h.safePoint.Load()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, mr := range h.cache {
		if id < safe {
			mr.Close()
			delete(h.cache, id)
		}
	}
}

// Close releases every cached mmap reader. Safe to call once a worker is
// done with this Handle, e.g. on worker shutdown.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for id, mr := range h.cache {
		if err := mr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(h.cache, id)
	}
	return firstErr
}
