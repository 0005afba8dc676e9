package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/engine"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	options.WithDataDir(t.TempDir())(&opts)
	options.WithCompactionThreshold(1 << 30)(&opts)

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestSetGetRemoveRoundTrip(t *testing.T) {
	eng := newTestEngine(t)

	_, ok, err := eng.Get("k1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, eng.Set("k1", "v1"))

	val, ok, err := eng.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", val)

	require.NoError(t, eng.Remove("k1"))

	_, ok, err = eng.Get("k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveUnknownKeyErrors(t *testing.T) {
	eng := newTestEngine(t)
	require.Error(t, eng.Remove("missing"))
}

func TestOperationsAfterCloseFail(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.Close())

	require.ErrorIs(t, eng.Set("k1", "v1"), engine.ErrEngineClosed)
	_, _, err := eng.Get("k1")
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}

func TestCloneSharesStateAndDefersTeardown(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.Set("k1", "v1"))

	clone := eng.Clone()

	require.NoError(t, eng.Close()) // refcount > 0, underlying store stays open

	val, ok, err := clone.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", val)

	require.NoError(t, clone.Close())
}

func TestReopenRecoversIndexFromSegments(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&opts)
	options.WithCompactionThreshold(1 << 30)(&opts)

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)

	require.NoError(t, eng.Set("k1", "v1"))
	require.NoError(t, eng.Set("k2", "v2"))
	require.NoError(t, eng.Set("k1", "v1-overwritten"))
	require.NoError(t, eng.Set("k3", "v3"))
	require.NoError(t, eng.Remove("k2"))

	require.NoError(t, eng.Close())

	reopened, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	val, ok, err := reopened.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1-overwritten", val)

	val, ok, err = reopened.Get("k3")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v3", val)

	_, ok, err = reopened.Get("k2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSecondOpenOfSameDataDirFailsWhileFirstIsOpen(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&opts)

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	defer eng.Close()

	_, err = engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.Error(t, err)
}
