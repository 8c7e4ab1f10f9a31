package btrfstree

import (
	"fmt"

	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// LookupTreeRoot searches the root tree (rooted at rootTreeAddr) for
// the single item with key (treeID, ROOT_ITEM, *) and returns the
// bytenr field of its embedded root-item record: the virtual address
// of the tree's own root block.
func LookupTreeRoot(src NodeSource, rootTreeAddr btrfsvol.LogicalAddr, treeID btrfsprim.ObjID) (btrfsvol.LogicalAddr, error) {
	opt := SearchOption{
		MinKey: btrfsprim.Key{ObjectID: treeID, ItemType: btrfsprim.RootItemKey, Offset: 0},
		MaxKey: btrfsprim.Key{ObjectID: treeID, ItemType: btrfsprim.RootItemKey, Offset: ^uint64(0)},
	}
	it, err := NewIterator(src, rootTreeAddr, opt)
	if err != nil {
		return 0, fmt.Errorf("btrfstree: tree root lookup for %v: %w", treeID, err)
	}
	result, err := it.Next()
	if err != nil {
		return 0, fmt.Errorf("btrfstree: tree root lookup for %v: %w", treeID, err)
	}
	if result == nil {
		return 0, fmt.Errorf("btrfstree: no ROOT_ITEM found for tree %v", treeID)
	}
	root, ok := result.Item.Body.(btrfsitem.Root)
	if !ok {
		return 0, fmt.Errorf("btrfstree: ROOT_ITEM for tree %v decoded as %T, not a root record", treeID, result.Item.Body)
	}
	return root.ByteNr, nil
}
