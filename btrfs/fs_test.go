package btrfs_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/btrfs"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfssum"
	"github.com/btrfsforensic/core/btrfstree"
)

const (
	testNodeSize   = 4096
	testSBOffset   = 0x10000
	testChunkRoot  = 0x20000
	testRootOffset = 0x21000
	testFileSize   = 0x22000
)

func buildRootItemBytes(byteNr uint64) []byte {
	dat := make([]byte, 0x1b7)
	binary.LittleEndian.PutUint64(dat[0x0b0:0x0b8], byteNr)
	return dat
}

func buildRootTreeLeaf(t *testing.T) []byte {
	t.Helper()
	return buildRootTreeLeafWithFSID(t, [16]byte{})
}

func buildRootTreeLeafWithFSID(t *testing.T, metadataUUID [16]byte) []byte {
	t.Helper()
	raw := make([]byte, testNodeSize)

	copy(raw[0x20:0x30], metadataUUID[:])                          // Head.MetadataUUID
	binary.LittleEndian.PutUint64(raw[0x30:0x38], testRootOffset) // Head.Addr
	binary.LittleEndian.PutUint64(raw[0x58:0x60], uint64(btrfsprim.RootTreeObjectID))
	binary.LittleEndian.PutUint32(raw[0x60:0x64], 1) // NumItems
	raw[0x64] = 0                                    // Level

	itemData := buildRootItemBytes(0x99999)
	dataStart := testNodeSize - len(itemData)
	copy(raw[dataStart:], itemData)

	key := btrfsprim.Key{ObjectID: btrfsprim.FSTreeObjectID, ItemType: btrfsprim.RootItemKey, Offset: 0}
	kb, err := key.MarshalBinary()
	require.NoError(t, err)
	copy(raw[0x65:], kb)
	binary.LittleEndian.PutUint32(raw[0x65+0x11:0x65+0x15], uint32(dataStart-0x65))
	binary.LittleEndian.PutUint32(raw[0x65+0x15:0x65+0x19], uint32(len(itemData)))

	sum, err := btrfssum.TypeCRC32.Sum(raw[32:])
	require.NoError(t, err)
	copy(raw[0:32], sum[:])

	return raw
}

type sbOpts struct {
	fsid        [16]byte
	devItemFSID [16]byte
	numDevices  uint64
	devID       uint64
}

func buildSuperblock(t *testing.T) []byte {
	t.Helper()
	return buildSuperblockWith(t, sbOpts{numDevices: 1, devID: 1})
}

func buildSuperblockWith(t *testing.T, opts sbOpts) []byte {
	t.Helper()
	raw := make([]byte, btrfs.SuperblockSize)
	copy(raw[0x40:0x48], btrfs.Magic[:])
	copy(raw[0x20:0x30], opts.fsid[:])
	binary.LittleEndian.PutUint64(raw[0x30:0x38], testSBOffset) // Self
	binary.LittleEndian.PutUint64(raw[0x48:0x50], 5)            // Generation
	binary.LittleEndian.PutUint64(raw[0x50:0x58], testRootOffset)
	binary.LittleEndian.PutUint64(raw[0x58:0x60], testChunkRoot)
	binary.LittleEndian.PutUint64(raw[0x70:0x78], testFileSize)       // TotalBytes
	binary.LittleEndian.PutUint64(raw[0x88:0x90], opts.numDevices)    // NumDevices
	binary.LittleEndian.PutUint32(raw[0x90:0x94], testNodeSize)       // SectorSize
	binary.LittleEndian.PutUint32(raw[0x94:0x98], testNodeSize)       // NodeSize
	binary.LittleEndian.PutUint32(raw[0x9c:0xa0], testNodeSize)       // StripeSize

	// dev_item: DevID at 0xc9, FSUUID at 0xc9+0x52.
	binary.LittleEndian.PutUint64(raw[0xc9:0xc9+8], opts.devID)
	binary.LittleEndian.PutUint64(raw[0xc9+0x8:0xc9+0x10], testFileSize) // NumBytes
	copy(raw[0xc9+0x52:0xc9+0x62], opts.devItemFSID[:])

	// sys_chunk_array: one (key, chunk-header, 1 stripe) record that
	// identity-maps the whole device as a SYSTEM chunk.
	key := btrfsprim.Key{ObjectID: btrfsprim.FirstChunkTreeObjectID, ItemType: btrfsprim.ChunkItemKey, Offset: 0}
	kb, err := key.MarshalBinary()
	require.NoError(t, err)

	chunkBuf := make([]byte, 0x30+0x20)
	binary.LittleEndian.PutUint64(chunkBuf[0x0:0x8], testFileSize) // Size
	binary.LittleEndian.PutUint64(chunkBuf[0x8:0x10], 2)           // Owner
	binary.LittleEndian.PutUint64(chunkBuf[0x18:0x20], 1<<1)       // Type: SYSTEM
	binary.LittleEndian.PutUint16(chunkBuf[0x2c:0x2e], 1)          // NumStripes
	binary.LittleEndian.PutUint64(chunkBuf[0x30:0x38], 1)          // stripe DeviceID=1
	binary.LittleEndian.PutUint64(chunkBuf[0x38:0x40], 0)          // stripe Offset=0

	arr := append(append([]byte{}, kb...), chunkBuf...)
	binary.LittleEndian.PutUint32(raw[0xa0:0xa4], uint32(len(arr))) // SysChunkArraySize
	copy(raw[0x32b:], arr)

	sum, err := btrfssum.TypeCRC32.Sum(raw[0x20:btrfs.SuperblockSize])
	require.NoError(t, err)
	copy(raw[0:32], sum[:])

	return raw
}

func buildDeviceImage(t *testing.T, dir, name string, sb []byte) string {
	t.Helper()
	return buildDeviceImageWithRoot(t, dir, name, sb, buildRootTreeLeaf(t))
}

func buildDeviceImageWithRoot(t *testing.T, dir, name string, sb, rootLeaf []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	buf := make([]byte, testFileSize)
	copy(buf[testSBOffset:], sb)
	copy(buf[testRootOffset:], rootLeaf)
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func buildTestImage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")

	buf := make([]byte, testFileSize)
	copy(buf[testSBOffset:], buildSuperblock(t))
	copy(buf[testRootOffset:], buildRootTreeLeaf(t))

	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestOpenAndTreeRootOffset(t *testing.T) {
	path := buildTestImage(t)
	fs, err := btrfs.Open(path)
	require.NoError(t, err)
	defer fs.Close()

	require.EqualValues(t, 5, fs.Superblock().Generation)

	addr, err := fs.TreeRootOffset(btrfsprim.FSTreeObjectID)
	require.NoError(t, err)
	require.EqualValues(t, 0x99999, addr)
}

func TestTreeSearchAllRootTree(t *testing.T) {
	path := buildTestImage(t)
	fs, err := btrfs.Open(path)
	require.NoError(t, err)
	defer fs.Close()

	results, err := fs.TreeSearchAll(btrfsprim.RootTreeObjectID, btrfstree.SearchOption{
		MinKey: btrfsprim.MinKeyVal,
		MaxKey: btrfsprim.MaxKeyVal,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, btrfsprim.FSTreeObjectID, results[0].Item.Key.ObjectID)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := btrfs.Open(filepath.Join(t.TempDir(), "nope.img"))
	require.Error(t, err)
}

func TestOpenDevItemFSIDMismatch(t *testing.T) {
	dir := t.TempDir()
	var fsid, otherFSID [16]byte
	fsid[0] = 1
	otherFSID[0] = 2
	sb := buildSuperblockWith(t, sbOpts{fsid: fsid, devItemFSID: otherFSID, numDevices: 1, devID: 1})
	path := buildDeviceImage(t, dir, "image.img", sb)

	_, err := btrfs.Open(path)
	require.Error(t, err)
}

func TestOpenCrossDeviceFSIDMismatch(t *testing.T) {
	dir := t.TempDir()
	var fsidA, fsidB [16]byte
	fsidA[0] = 1
	fsidB[0] = 2

	sbA := buildSuperblockWith(t, sbOpts{fsid: fsidA, devItemFSID: fsidA, numDevices: 2, devID: 1})
	sbB := buildSuperblockWith(t, sbOpts{fsid: fsidB, devItemFSID: fsidB, numDevices: 2, devID: 2})
	pathA := buildDeviceImage(t, dir, "a.img", sbA)
	pathB := buildDeviceImage(t, dir, "b.img", sbB)

	_, err := btrfs.Open(pathA, pathB)
	require.Error(t, err)
}

func TestOpenCrossDeviceNumDevicesMismatch(t *testing.T) {
	dir := t.TempDir()
	var fsid [16]byte
	fsid[0] = 1

	sbA := buildSuperblockWith(t, sbOpts{fsid: fsid, devItemFSID: fsid, numDevices: 2, devID: 1})
	sbB := buildSuperblockWith(t, sbOpts{fsid: fsid, devItemFSID: fsid, numDevices: 3, devID: 2})
	pathA := buildDeviceImage(t, dir, "a.img", sbA)
	pathB := buildDeviceImage(t, dir, "b.img", sbB)

	_, err := btrfs.Open(pathA, pathB)
	require.Error(t, err)
}

func TestReadNodeFSIDMismatch(t *testing.T) {
	dir := t.TempDir()
	var fsid [16]byte
	fsid[0] = 1
	sb := buildSuperblockWith(t, sbOpts{fsid: fsid, devItemFSID: fsid, numDevices: 1, devID: 1})
	// The leaf's own header fsid is left zeroed, disagreeing with the
	// superblock's fsid.
	path := buildDeviceImageWithRoot(t, dir, "image.img", sb, buildRootTreeLeaf(t))

	fs, err := btrfs.Open(path)
	require.NoError(t, err)
	defer fs.Close()

	_, err = fs.TreeSearchAll(btrfsprim.RootTreeObjectID, btrfstree.SearchOption{
		MinKey: btrfsprim.MinKeyVal,
		MaxKey: btrfsprim.MaxKeyVal,
	})
	require.Error(t, err)
}
