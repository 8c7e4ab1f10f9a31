// Package btrfsprim holds the primitive on-disk types shared by every
// other package: object IDs, the item-type tag enumeration, keys,
// UUIDs, and generation numbers.
package btrfsprim

import "fmt"

// ObjID is the first element of a Key. Each tree defines its own
// namespace of object IDs.
type ObjID uint64

// Well-known tree object IDs.
const (
	RootTreeObjectID        ObjID = 1
	ExtentTreeObjectID      ObjID = 2
	ChunkTreeObjectID       ObjID = 3
	DevTreeObjectID         ObjID = 4
	FSTreeObjectID          ObjID = 5
	RootTreeDirObjectID     ObjID = 6
	CSumTreeObjectID        ObjID = 7
	QuotaTreeObjectID       ObjID = 8
	UUIDTreeObjectID        ObjID = 9
	FreeSpaceTreeObjectID   ObjID = 10
	BlockGroupTreeObjectID  ObjID = 11
	FirstChunkTreeObjectID  ObjID = 256
	DevStatsObjectID        ObjID = 0
	BalanceObjectID         ObjID = ^ObjID(3)   // -4 as uint64
	OrphanObjectID          ObjID = ^ObjID(4)   // -5
	TreeLogObjectID         ObjID = ^ObjID(5)   // -6
	TreeLogFixupObjectID    ObjID = ^ObjID(6)   // -7
	TreeRelocObjectID       ObjID = ^ObjID(7)   // -8
	DataRelocTreeObjectID   ObjID = ^ObjID(8)   // -9
	ExtentCSumObjectID      ObjID = ^ObjID(9)   // -10
	FreeSpaceObjectID       ObjID = ^ObjID(10)  // -11
	FreeInoObjectID         ObjID = ^ObjID(11)  // -12
	MultipleObjectIDs       ObjID = ^ObjID(254) // -255
	MinObjectID             ObjID = 0
	MaxObjectID             ObjID = ^ObjID(0)
)

func (id ObjID) String() string {
	names := map[ObjID]string{
		RootTreeObjectID:       "ROOT_TREE",
		ExtentTreeObjectID:     "EXTENT_TREE",
		ChunkTreeObjectID:      "CHUNK_TREE",
		DevTreeObjectID:        "DEV_TREE",
		FSTreeObjectID:         "FS_TREE",
		RootTreeDirObjectID:    "ROOT_TREE_DIR",
		CSumTreeObjectID:       "CSUM_TREE",
		QuotaTreeObjectID:      "QUOTA_TREE",
		UUIDTreeObjectID:       "UUID_TREE",
		FreeSpaceTreeObjectID:  "FREE_SPACE_TREE",
		BlockGroupTreeObjectID: "BLOCK_GROUP_TREE",
		FirstChunkTreeObjectID: "FIRST_CHUNK_TREE",
	}
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint64(id))
}
