package index_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/pkg/logger"
)

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{
		DataDir: t.TempDir(),
		Logger:  logger.Noop(),
	})
	require.NoError(t, err)
	return idx
}

func TestNewRejectsMissingConfig(t *testing.T) {
	_, err := index.New(context.Background(), nil)
	require.Error(t, err)

	_, err = index.New(context.Background(), &index.Config{Logger: logger.Noop()})
	require.Error(t, err)
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	idx := newTestIndex(t)

	_, had := idx.Get("missing")
	require.False(t, had)

	loc := index.Locator{SegmentID: 1, Offset: 10, Length: 20}
	prev, had := idx.Put("k1", loc)
	require.False(t, had)
	require.Zero(t, prev)

	got, had := idx.Get("k1")
	require.True(t, had)
	require.Equal(t, loc, got)
	require.Equal(t, 1, idx.Len())

	newLoc := index.Locator{SegmentID: 2, Offset: 50, Length: 5}
	prev, had = idx.Put("k1", newLoc)
	require.True(t, had)
	require.Equal(t, loc, prev)

	prev, had = idx.Delete("k1")
	require.True(t, had)
	require.Equal(t, newLoc, prev)
	require.Equal(t, 0, idx.Len())

	_, had = idx.Delete("k1")
	require.False(t, had)
}

func TestCloseFailsOnSecondCall(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.Close(), index.ErrIndexClosed)
}

func TestConcurrentPutGetDoesNotRace(t *testing.T) {
	idx := newTestIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Put("k", index.Locator{SegmentID: uint64(i), Offset: int64(i)})
			idx.Get("k")
		}(i)
	}
	wg.Wait()

	_, had := idx.Get("k")
	require.True(t, had)
}
