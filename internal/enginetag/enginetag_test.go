package enginetag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/enginetag"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
)

func TestCheckCreatesTagOnFirstOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, enginetag.Check(dir, "kvs"))
	require.NoError(t, enginetag.Check(dir, "kvs"))
}

func TestCheckRejectsMismatchedEngine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, enginetag.Check(dir, "kvs"))

	err := enginetag.Check(dir, "sled")
	require.Error(t, err)
	require.True(t, kverrors.IsEngineMismatch(err))
}
