package dirlock_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/dirlock"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()

	l, err := dirlock.Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	l2, err := dirlock.Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquireTwiceFromSameProcessFailsSecondTime(t *testing.T) {
	dir := t.TempDir()

	l1, err := dirlock.Acquire(dir)
	require.NoError(t, err)
	defer l1.Release()

	_, err = dirlock.Acquire(dir)
	require.Error(t, err)
	require.True(t, kverrors.IsDirectoryLocked(err))
}
