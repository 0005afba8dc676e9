package options_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/pkg/options"
)

func TestDefaultsAreSane(t *testing.T) {
	o := options.NewDefaultOptions()
	require.Equal(t, options.EngineKindKVS, o.EngineKind)
	require.False(t, o.Fsync)
	require.EqualValues(t, options.DefaultCompactionThreshold, o.CompactionThreshold)
}

func TestWithCompactionThresholdRejectsZero(t *testing.T) {
	o := options.NewDefaultOptions()
	options.WithCompactionThreshold(0)(&o)
	require.EqualValues(t, options.DefaultCompactionThreshold, o.CompactionThreshold)

	options.WithCompactionThreshold(2048)(&o)
	require.EqualValues(t, 2048, o.CompactionThreshold)
}

func TestWithFsyncToggles(t *testing.T) {
	o := options.NewDefaultOptions()
	options.WithFsync(true)(&o)
	require.True(t, o.Fsync)
}

func TestWithEngineRejectsUnknownKind(t *testing.T) {
	o := options.NewDefaultOptions()
	options.WithEngine("bogus")(&o)
	require.Equal(t, options.EngineKindKVS, o.EngineKind)

	options.WithEngine("sled")(&o)
	require.Equal(t, options.EngineKindSled, o.EngineKind)
}

func TestWithCompactIntervalKeepsFloorOfDefault(t *testing.T) {
	o := options.NewDefaultOptions()
	options.WithCompactInterval(time.Hour)(&o)
	require.Equal(t, options.DefaultCompactInterval, o.CompactInterval)

	options.WithCompactInterval(10 * time.Hour)(&o)
	require.Equal(t, 10*time.Hour, o.CompactInterval)
}
