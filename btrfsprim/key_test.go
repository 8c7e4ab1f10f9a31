package btrfsprim_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/btrfsprim"
)

func TestKeyCompare(t *testing.T) {
	lo := btrfsprim.Key{ObjectID: 5, ItemType: btrfsprim.InodeItemKey, Offset: 0}
	hi := btrfsprim.Key{ObjectID: 5, ItemType: btrfsprim.InodeItemKey, Offset: 1}

	require.Equal(t, -1, lo.Compare(hi))
	require.Equal(t, 1, hi.Compare(lo))
	require.Equal(t, 0, lo.Compare(lo))

	require.Equal(t, -1, btrfsprim.MinKeyVal.Compare(lo))
	require.Equal(t, 1, btrfsprim.MaxKeyVal.Compare(hi))
}

func TestKeyMarshalRoundTrip(t *testing.T) {
	k := btrfsprim.Key{ObjectID: 0x0102030405060708, ItemType: btrfsprim.ChunkItemKey, Offset: 0xaabbccddeeff0011}
	dat, err := k.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, dat, btrfsprim.KeySize)

	got, err := btrfsprim.UnmarshalKey(dat)
	require.NoError(t, err)
	require.Equal(t, k, got)
}

func TestUnmarshalKeyShort(t *testing.T) {
	_, err := btrfsprim.UnmarshalKey(make([]byte, 4))
	require.Error(t, err)
}
