package diskio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/diskio"
)

func TestOpenRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image")
	want := []byte("0123456789abcdef")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	mf, err := diskio.Open(path)
	require.NoError(t, err)
	defer mf.Close()

	require.Equal(t, int64(len(want)), mf.Size())
	require.Equal(t, path, mf.Name())

	got, err := mf.Slice(4, 6)
	require.NoError(t, err)
	require.Equal(t, want[4:10], []byte(got))
}

func TestSliceOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image")
	require.NoError(t, os.WriteFile(path, make([]byte, 16), 0o600))

	mf, err := diskio.Open(path)
	require.NoError(t, err)
	defer mf.Close()

	_, err = mf.Slice(10, 10)
	require.Error(t, err)
	var boundsErr *diskio.BoundsError
	require.ErrorAs(t, err, &boundsErr)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := diskio.Open(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	var ioErr *diskio.IoFailureError
	require.ErrorAs(t, err, &ioErr)
}
