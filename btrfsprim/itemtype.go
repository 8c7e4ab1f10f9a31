package btrfsprim

import "fmt"

// ItemType is the second element of a Key: a closed, non-dense
// enumeration of on-disk item tags. It is compared as a raw numeric
// byte, never by ordinal position, and MIN/MAX are valid search
// sentinels even though no real item carries them.
type ItemType uint8

const (
	MinKey ItemType = 0x00 // sentinel: below every real item type

	InodeItemKey         ItemType = 0x01
	InodeRefKey          ItemType = 0x0c
	InodeExtRefKey       ItemType = 0x0d
	XAttrItemKey         ItemType = 0x18
	VerityDescItemKey    ItemType = 0x24
	VerityMerkleItemKey  ItemType = 0x25
	OrphanItemKey        ItemType = 0x30
	DirLogItemKey        ItemType = 0x3c
	DirLogIndexKey       ItemType = 0x48
	DirItemKey           ItemType = 0x54
	DirIndexKey          ItemType = 0x60
	ExtentDataKey        ItemType = 0x6c
	CSumItemKey          ItemType = 0x78
	ExtentCSumKey        ItemType = 0x80
	RootItemKey          ItemType = 0x84
	RootBackRefKey       ItemType = 0x90
	RootRefKey           ItemType = 0x9c
	ExtentItemKey        ItemType = 0xa8
	MetadataItemKey      ItemType = 0xa9
	TreeBlockRefKey      ItemType = 0xb0
	ExtentDataRefKey     ItemType = 0xb2
	ExtentRefV0Key       ItemType = 0xb4
	SharedBlockRefKey    ItemType = 0xb6
	SharedDataRefKey     ItemType = 0xb8
	BlockGroupItemKey    ItemType = 0xc0
	FreeSpaceInfoKey     ItemType = 0xc6
	FreeSpaceExtentKey   ItemType = 0xc7
	FreeSpaceBitmapKey   ItemType = 0xc8
	DevExtentKey         ItemType = 0xcc
	DevItemKey           ItemType = 0xd8
	ChunkItemKey         ItemType = 0xe4
	QGroupStatusKey      ItemType = 0xf0
	QGroupInfoKey        ItemType = 0xf2
	QGroupLimitKey       ItemType = 0xf4
	QGroupRelationKey    ItemType = 0xf6
	TemporaryItemKey     ItemType = 0xf8
	PersistentItemKey    ItemType = 0xf9
	DevReplaceKey        ItemType = 0xfa
	UUIDKeySubvolKey     ItemType = 0xfb
	UUIDKeyReceivedKey   ItemType = 0xfc
	StringItemKey        ItemType = 0xfd

	MaxKey ItemType = 0xff // sentinel: above every real item type
)

var itemTypeNames = map[ItemType]string{
	MinKey:              "MIN",
	InodeItemKey:        "INODE_ITEM",
	InodeRefKey:         "INODE_REF",
	InodeExtRefKey:      "INODE_EXTREF",
	XAttrItemKey:        "XATTR_ITEM",
	VerityDescItemKey:   "VERITY_DESC_ITEM",
	VerityMerkleItemKey: "VERITY_MERKLE_ITEM",
	OrphanItemKey:       "ORPHAN_ITEM",
	DirLogItemKey:       "DIR_LOG_ITEM",
	DirLogIndexKey:      "DIR_LOG_INDEX",
	DirItemKey:          "DIR_ITEM",
	DirIndexKey:         "DIR_INDEX",
	ExtentDataKey:       "EXTENT_DATA",
	CSumItemKey:         "CSUM_ITEM",
	ExtentCSumKey:       "EXTENT_CSUM",
	RootItemKey:         "ROOT_ITEM",
	RootBackRefKey:      "ROOT_BACKREF",
	RootRefKey:          "ROOT_REF",
	ExtentItemKey:       "EXTENT_ITEM",
	MetadataItemKey:     "METADATA_ITEM",
	TreeBlockRefKey:     "TREE_BLOCK_REF",
	ExtentDataRefKey:    "EXTENT_DATA_REF",
	ExtentRefV0Key:      "EXTENT_REF_V0",
	SharedBlockRefKey:   "SHARED_BLOCK_REF",
	SharedDataRefKey:    "SHARED_DATA_REF",
	BlockGroupItemKey:   "BLOCK_GROUP_ITEM",
	FreeSpaceInfoKey:    "FREE_SPACE_INFO",
	FreeSpaceExtentKey:  "FREE_SPACE_EXTENT",
	FreeSpaceBitmapKey:  "FREE_SPACE_BITMAP",
	DevExtentKey:        "DEV_EXTENT",
	DevItemKey:          "DEV_ITEM",
	ChunkItemKey:        "CHUNK_ITEM",
	QGroupStatusKey:     "QGROUP_STATUS",
	QGroupInfoKey:       "QGROUP_INFO",
	QGroupLimitKey:      "QGROUP_LIMIT",
	QGroupRelationKey:   "QGROUP_RELATION",
	TemporaryItemKey:    "TEMPORARY_ITEM",
	PersistentItemKey:   "PERSISTENT_ITEM",
	DevReplaceKey:       "DEV_REPLACE",
	UUIDKeySubvolKey:    "UUID_KEY_SUBVOL",
	UUIDKeyReceivedKey:  "UUID_KEY_RECEIVED_SUBVOL",
	StringItemKey:       "STRING_ITEM",
	MaxKey:              "MAX",
}

func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%#02x", uint8(t))
}
