package compaction_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/compaction"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/writer"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/seginfo"
)

func TestCompactionRewritesLiveEntriesAndRetiresOldSegments(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := index.New(ctx, &index.Config{DataDir: dir, Logger: logger.Noop()})
	require.NoError(t, err)

	var activeID, safePoint atomic.Uint64
	w, err := writer.Open(ctx, writer.Config{
		Dir:                 dir,
		Logger:              logger.Noop(),
		Index:               idx,
		CompactionThreshold: 1 << 30, // disabled; this test drives compaction manually
		ActiveID:            &activeID,
		SafePoint:           &safePoint,
	})
	require.NoError(t, err)

	require.NoError(t, w.Set(ctx, "k1", "v1"))
	require.NoError(t, w.Set(ctx, "k1", "v2")) // stale copy of k1 left in segment 0
	require.NoError(t, w.Set(ctx, "k2", "v2"))
	require.NoError(t, w.Remove(ctx, "k2")) // k2 has no live locator after this

	idsBefore, err := seginfo.ListSegmentIDs(dir)
	require.NoError(t, err)
	require.Len(t, idsBefore, 1)

	runner := compaction.New(dir, false, idx)
	written, err := runner.Run(ctx, w)
	require.NoError(t, err)
	require.Positive(t, written)

	loc, had := idx.Get("k1")
	require.True(t, had)
	require.EqualValues(t, safePoint.Load(), loc.SegmentID)

	_, had = idx.Get("k2")
	require.False(t, had)

	idsAfter, err := seginfo.ListSegmentIDs(dir)
	require.NoError(t, err)
	// Segment 0 (retired) is gone; the compaction output and the new
	// active segment remain.
	require.Len(t, idsAfter, 2)
	require.NotContains(t, idsAfter, idsBefore[0])
}

func TestCompactionOnEmptyIndexStillAdvancesSafePoint(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := index.New(ctx, &index.Config{DataDir: dir, Logger: logger.Noop()})
	require.NoError(t, err)

	var activeID, safePoint atomic.Uint64
	w, err := writer.Open(ctx, writer.Config{
		Dir: dir, Logger: logger.Noop(), Index: idx,
		CompactionThreshold: 1 << 30, ActiveID: &activeID, SafePoint: &safePoint,
	})
	require.NoError(t, err)

	runner := compaction.New(dir, false, idx)
	written, err := runner.Run(ctx, w)
	require.NoError(t, err)
	require.Zero(t, written)
	require.EqualValues(t, 1, safePoint.Load())
}
