package seginfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/pkg/seginfo"
)

func TestGenerateNameAndParseSegmentIDRoundTrip(t *testing.T) {
	name := seginfo.GenerateName(7)
	id, err := seginfo.ParseSegmentID(name)
	require.NoError(t, err)
	require.EqualValues(t, 7, id)
}

func TestListSegmentIDsSortsAscending(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []uint64{3, 1, 2} {
		f, err := os.Create(filepath.Join(dir, seginfo.GenerateName(id)))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	// A stray file that doesn't match the naming convention must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0644))

	ids, err := seginfo.ListSegmentIDs(dir)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestLatestSegmentIDEmptyDir(t *testing.T) {
	dir := t.TempDir()
	_, found, err := seginfo.LatestSegmentID(dir)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLatestSegmentID(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []uint64{1, 2, 9} {
		f, err := os.Create(filepath.Join(dir, seginfo.GenerateName(id)))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	id, found, err := seginfo.LatestSegmentID(dir)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 9, id)
}
