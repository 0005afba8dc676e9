// Package compaction implements the copy-then-swap reclamation pass that
// reclaims space held by stale (overwritten or removed) records. A
// compaction rewrites every live index entry into one fresh segment, then
// deletes every segment that entry used to live in.
//
// Conceptually grounded on a read-dedupe-rewrite-swap shape: walk the
// live index, copy each entry forward, publish the new location, then
// unlink what's no longer referenced.
package compaction

import (
	"bufio"
	"bytes"
	"context"

	"github.com/ignitekv/ignite/internal/codec"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/segment"
	"github.com/ignitekv/ignite/pkg/errors"
)

// WriterCoordinator is the writer-side hook the compactor needs to
// coordinate the active segment swap and the follow-up cleanup. It is
// implemented by internal/writer.Writer.
type WriterCoordinator interface {
	// AllocateOutputAndAdvance reserves outputID for the compaction's
	// rewritten segment and immediately switches the writer to a new,
	// empty active segment beyond it (outputID+1), so that any write
	// which arrives while compaction is running can never land in the
	// segment being rewritten. It returns outputID and the ids of every
	// segment that existed (and therefore might be referenced by the
	// index) at the moment of the swap.
	AllocateOutputAndAdvance() (outputID uint64, liveSegmentIDs []uint64, err error)

	// AdvanceSafePoint publishes id as the new safe point: every segment
	// below id is retired and readers may evict any cached handle to it.
	AdvanceSafePoint(id uint64)

	// Retire deletes the given, now-unreferenced segment files and resets
	// the stale-byte counter that triggered this compaction.
	Retire(ids []uint64) error
}

// Runner compacts one data directory's live entries into a fresh segment.
type Runner struct {
	dir   string
	fsync bool
	idx   *index.Index
}

// New builds a Runner over dir's segment files and idx.
func New(dir string, fsync bool, idx *index.Index) *Runner {
	return &Runner{dir: dir, fsync: fsync, idx: idx}
}

// Run executes one compaction pass: open output segment C, advance the
// writer's active segment past it, copy every live index entry into C
// (updating the index in place as each entry is copied), advance the safe
// point to C's id, then delete every segment that existed before the swap
// and reset the stale-byte counter.
//
// If copying into the output or syncing it fails, every index entry
// already moved into the output is pointed back at its previous locator
// and the output segment is unlinked; the safe point and the old segments
// are not touched. A failure to close the synced output, or to delete an
// old segment in Retire, is returned as is, with the index referring to
// the output segment, which stays on disk.
func (r *Runner) Run(ctx context.Context, wc WriterCoordinator) (bytesWritten int64, err error) {
	outputID, liveIDs, err := wc.AllocateOutputAndAdvance()
	if err != nil {
		return 0, err
	}

	out, err := segment.Create(r.dir, outputID, r.fsync)
	if err != nil {
		return 0, err
	}

	sources := make(map[uint64]*segment.MmapReader, len(liveIDs))
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()

	snapshot := r.idx.Snapshot()
	restoreIndex := func() {
		for key, loc := range snapshot {
			if cur, ok := r.idx.Get(key); ok && cur.SegmentID == outputID {
				r.idx.Put(key, loc)
			}
		}
	}

	written, runErr := r.copyLiveEntries(ctx, out, sources, snapshot)
	if runErr != nil {
		out.Close()
		restoreIndex()
		_ = segment.Remove(r.dir, outputID)
		return 0, runErr
	}

	if err := out.Sync(); err != nil {
		out.Close()
		restoreIndex()
		_ = segment.Remove(r.dir, outputID)
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	wc.AdvanceSafePoint(outputID)

	if err := wc.Retire(liveIDs); err != nil {
		return written, err
	}

	return written, nil
}

func (r *Runner) copyLiveEntries(ctx context.Context, out *segment.Segment, sources map[uint64]*segment.MmapReader, live map[string]index.Locator) (int64, error) {
	var written int64

	for key, loc := range live {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		src, err := r.sourceFor(loc.SegmentID, sources)
		if err != nil {
			return written, err
		}

		raw, err := src.ReadAt(loc.Offset, loc.Length)
		if err != nil {
			return written, err
		}

		rec, n, err := codec.Decode(bufio.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return written, err
		}
		if rec.Kind != codec.KindSet || rec.Key != key {
			return written, errors.NewStorageError(
				nil, errors.ErrorCodeSegmentCorrupted, "compaction found a record that doesn't match its indexed key",
			).WithSegmentID(int(loc.SegmentID)).WithOffset(int(loc.Offset))
		}

		newOffset, err := out.Append(raw[:n])
		if err != nil {
			return written, err
		}

		r.idx.Put(key, index.Locator{SegmentID: out.ID(), Offset: newOffset, Length: int64(n)})
		written += int64(n)
	}

	return written, nil
}

func (r *Runner) sourceFor(segID uint64, sources map[uint64]*segment.MmapReader) (*segment.MmapReader, error) {
	if src, ok := sources[segID]; ok {
		return src, nil
	}
	src, err := segment.OpenMmapReader(r.dir, segID)
	if err != nil {
		return nil, err
	}
	sources[segID] = src
	return src, nil
}
