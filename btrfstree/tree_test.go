package btrfstree_test

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfstree"
	"github.com/btrfsforensic/core/btrfsvol"
)

type fakeSource map[btrfsvol.LogicalAddr]*btrfstree.Node

func (f fakeSource) ReadNode(addr btrfsvol.LogicalAddr) (*btrfstree.Node, error) {
	n, ok := f[addr]
	if !ok {
		return nil, fmt.Errorf("no node at %v", addr)
	}
	return n, nil
}

func key(objID uint64) btrfsprim.Key {
	return btrfsprim.Key{ObjectID: btrfsprim.ObjID(objID), ItemType: btrfsprim.InodeItemKey, Offset: 0}
}

func leafItem(objID uint64) btrfstree.Item {
	return btrfstree.Item{
		Key:  key(objID),
		Body: btrfsitem.Untyped{Type: btrfsprim.InodeItemKey, Data: []byte(fmt.Sprintf("item-%d", objID))},
	}
}

func buildTwoLeafTree() (fakeSource, btrfsvol.LogicalAddr) {
	const (
		rootAddr = btrfsvol.LogicalAddr(0x1000)
		leafA    = btrfsvol.LogicalAddr(0x2000)
		leafB    = btrfsvol.LogicalAddr(0x3000)
	)
	src := fakeSource{
		leafA: {
			Head:     btrfstree.NodeHeader{Addr: leafA, Level: 0},
			BodyLeaf: []btrfstree.Item{leafItem(1), leafItem(2), leafItem(3)},
		},
		leafB: {
			Head:     btrfstree.NodeHeader{Addr: leafB, Level: 0},
			BodyLeaf: []btrfstree.Item{leafItem(4), leafItem(5), leafItem(6)},
		},
		rootAddr: {
			Head: btrfstree.NodeHeader{Addr: rootAddr, Level: 1},
			BodyInterior: []btrfstree.KeyPointer{
				{Key: key(1), BlockPtr: leafA},
				{Key: key(4), BlockPtr: leafB},
			},
		},
	}
	return src, rootAddr
}

func TestIteratorFullRange(t *testing.T) {
	src, root := buildTwoLeafTree()
	it, err := btrfstree.NewIterator(src, root, btrfstree.SearchOption{
		MinKey: btrfsprim.MinKeyVal,
		MaxKey: btrfsprim.MaxKeyVal,
	})
	require.NoError(t, err)

	results, err := btrfstree.All(it)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		require.Equal(t, key(uint64(i+1)), r.Item.Key)
	}
}

func TestIteratorSpansLeaves(t *testing.T) {
	src, root := buildTwoLeafTree()
	it, err := btrfstree.NewIterator(src, root, btrfstree.SearchOption{
		MinKey: key(2),
		MaxKey: key(5),
	})
	require.NoError(t, err)

	results, err := btrfstree.All(it)
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.Equal(t, key(2), results[0].Item.Key)
	require.Equal(t, key(5), results[3].Item.Key)
}

func TestIteratorExactKey(t *testing.T) {
	src, root := buildTwoLeafTree()
	it, err := btrfstree.NewIterator(src, root, btrfstree.ExactKey(key(4)))
	require.NoError(t, err)

	results, err := btrfstree.All(it)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, key(4), results[0].Item.Key)
}

func TestIteratorOutOfRange(t *testing.T) {
	src, root := buildTwoLeafTree()
	beyond := btrfsprim.Key{ObjectID: 100, ItemType: btrfsprim.InodeItemKey}
	it, err := btrfstree.NewIterator(src, root, btrfstree.SearchOption{MinKey: beyond, MaxKey: beyond})
	require.NoError(t, err)

	results, err := btrfstree.All(it)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestInvalidRangeRejected(t *testing.T) {
	src, root := buildTwoLeafTree()
	_, err := btrfstree.NewIterator(src, root, btrfstree.SearchOption{
		MinKey: key(5),
		MaxKey: key(1),
	})
	require.Error(t, err)
}

func buildRootItemBytes(byteNr btrfsvol.LogicalAddr) []byte {
	dat := make([]byte, 0x1b7)
	binary.LittleEndian.PutUint64(dat[0x0b0:0x0b8], uint64(byteNr))
	return dat
}

func TestLookupTreeRoot(t *testing.T) {
	rootTreeAddr := btrfsvol.LogicalAddr(0x5000)
	item := btrfsitem.Decode(btrfsprim.RootItemKey, buildRootItemBytes(0x9000))

	src := fakeSource{
		rootTreeAddr: {
			Head: btrfstree.NodeHeader{Addr: rootTreeAddr, Level: 0},
			BodyLeaf: []btrfstree.Item{
				{Key: btrfsprim.Key{ObjectID: btrfsprim.FSTreeObjectID, ItemType: btrfsprim.RootItemKey, Offset: 0}, Body: item},
			},
		},
	}

	addr, err := btrfstree.LookupTreeRoot(src, rootTreeAddr, btrfsprim.FSTreeObjectID)
	require.NoError(t, err)
	require.EqualValues(t, 0x9000, addr)
}

func TestLookupTreeRootMissing(t *testing.T) {
	rootTreeAddr := btrfsvol.LogicalAddr(0x5000)
	src := fakeSource{
		rootTreeAddr: {
			Head: btrfstree.NodeHeader{Addr: rootTreeAddr, Level: 0},
		},
	}
	_, err := btrfstree.LookupTreeRoot(src, rootTreeAddr, btrfsprim.FSTreeObjectID)
	require.Error(t, err)
}
