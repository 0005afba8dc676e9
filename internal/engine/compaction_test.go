package engine_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/engine"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

// TestCompactionBoundsOnDiskSizeUnderChurn writes and overwrites 10,000 keys
// with a deliberately tiny compaction threshold, forcing many inline
// compaction passes, then checks the segment directory never grows
// unbounded: once every key has settled to its final value, the directory
// holds at most a small multiple of the live data set instead of the
// full history of every write ever issued.
func TestCompactionBoundsOnDiskSizeUnderChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping compaction size-bound test in short mode")
	}

	dataDir := t.TempDir()
	opts := options.NewDefaultOptions()
	options.WithDataDir(dataDir)(&opts)
	options.WithCompactionThreshold(32 * 1024)(&opts) // tiny: compacts often

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	const keyCount = 10_000
	for round := 0; round < 2; round++ {
		for i := 0; i < keyCount; i++ {
			key := fmt.Sprintf("key-%05d", i)
			value := fmt.Sprintf("round-%d-value-%05d", round, i)
			require.NoError(t, eng.Set(key, value))
		}
	}

	for i := 0; i < keyCount; i++ {
		key := fmt.Sprintf("key-%05d", i)
		value, ok, err := eng.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("round-1-value-%05d", i), value)
	}

	segDir := filepath.Join(dataDir, opts.SegmentOptions.Directory)
	entries, err := os.ReadDir(segDir)
	require.NoError(t, err)

	var total int64
	for _, ent := range entries {
		info, err := ent.Info()
		require.NoError(t, err)
		total += info.Size()
	}

	// Two full rounds of 10,000 writes with no compaction would leave
	// roughly double the live data set on disk; with compaction running
	// the directory should stay within a small multiple of one round's
	// live bytes instead of accumulating both rounds' history.
	const approxLiveBytesPerRound = keyCount * 40 // rough record size estimate
	require.Lessf(t, total, int64(approxLiveBytesPerRound*3),
		"segment directory grew to %d bytes across %d files, compaction did not bound it", total, len(entries))
}
