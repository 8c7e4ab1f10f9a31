package btrfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/btrfs"
	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

func TestChunkMapperBootstrapOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.img")
	data := make([]byte, 0x2000)
	copy(data[0x1000:], []byte("node-bytes-at-0x1000"))
	require.NoError(t, os.WriteFile(path, data, 0o600))

	dev, err := btrfs.OpenDevice(path)
	require.NoError(t, err)
	defer dev.Close()

	devices := map[btrfsvol.DeviceID]*btrfs.Device{1: dev}
	bootstrap := []btrfs.SysChunk{
		{
			Key: btrfsprim.Key{ObjectID: btrfsprim.FirstChunkTreeObjectID, ItemType: btrfsprim.ChunkItemKey, Offset: 0x500000},
			Chunk: btrfsitem.Chunk{
				Size: 0x1000,
				Stripes: []btrfsitem.ChunkStripe{
					{DeviceID: 1, Offset: 0x1000},
				},
			},
		},
	}
	mapper := btrfs.NewChunkMapper(bootstrap, devices, 0, nil)

	got, err := mapper.LoadVirt(0x500000, 20)
	require.NoError(t, err)
	require.Equal(t, []byte("node-bytes-at-0x1000"), got)

	addrs, err := mapper.VirtualOffsetToPhysical(0x500000)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.EqualValues(t, 1, addrs[0].Dev)
	require.EqualValues(t, 0x1000, addrs[0].Addr)
}

func TestChunkMapperNotMapped(t *testing.T) {
	mapper := btrfs.NewChunkMapper(nil, nil, 0, nil)
	_, err := mapper.LoadVirt(0x1234, 8)
	require.Error(t, err)
	var notMapped *btrfs.NotMappedError
	require.ErrorAs(t, err, &notMapped)
}
