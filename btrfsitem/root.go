package btrfsitem

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// inodeItemSize is the fixed size of the embedded inode record at the
// front of a Root record. Its individual fields aren't needed by the
// subvolume-tree walk, so it's kept as an opaque byte span.
const inodeItemSize = 0xa0

// rootItemSize is the fixed, packed size of a Root record.
const rootItemSize = 0x1b7

// RootFlags records subvolume-level flags.
type RootFlags uint64

const RootSubvolReadOnly = RootFlags(1)

func (f RootFlags) Has(req RootFlags) bool { return f&req == req }

// Root describes one subvolume or tree root: its tree's own root
// block address, generation, UUID lineage, and flags. Its key carries
// key.ObjectID = the subvolume id and key.ItemType = RootItemKey.
type Root struct {
	InodeRaw     [inodeItemSize]byte
	Generation   btrfsprim.Generation
	RootDirID    btrfsprim.ObjID
	ByteNr       btrfsvol.LogicalAddr
	ByteLimit    int64
	BytesUsed    int64
	LastSnapshot int64
	Flags        RootFlags
	Refs         int32
	DropProgress btrfsprim.Key
	DropLevel    uint8
	Level        uint8
	GenerationV2 btrfsprim.Generation
	UUID         btrfsprim.UUID
	ParentUUID   btrfsprim.UUID
	ReceivedUUID btrfsprim.UUID
}

func (Root) isItem() {}

func (r *Root) UnmarshalBinary(dat []byte) error {
	if len(dat) < rootItemSize {
		return fmt.Errorf("btrfsitem: root: need %d bytes, have %d", rootItemSize, len(dat))
	}
	copy(r.InodeRaw[:], dat[0x000:0x0a0])
	r.Generation = btrfsprim.Generation(binary.LittleEndian.Uint64(dat[0x0a0:0x0a8]))
	r.RootDirID = btrfsprim.ObjID(binary.LittleEndian.Uint64(dat[0x0a8:0x0b0]))
	r.ByteNr = btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(dat[0x0b0:0x0b8]))
	r.ByteLimit = int64(binary.LittleEndian.Uint64(dat[0x0b8:0x0c0]))
	r.BytesUsed = int64(binary.LittleEndian.Uint64(dat[0x0c0:0x0c8]))
	r.LastSnapshot = int64(binary.LittleEndian.Uint64(dat[0x0c8:0x0d0]))
	r.Flags = RootFlags(binary.LittleEndian.Uint64(dat[0x0d0:0x0d8]))
	r.Refs = int32(binary.LittleEndian.Uint32(dat[0x0d8:0x0dc]))

	key, err := btrfsprim.UnmarshalKey(dat[0x0dc:0x0ed])
	if err != nil {
		return fmt.Errorf("btrfsitem: root: drop_progress: %w", err)
	}
	r.DropProgress = key

	r.DropLevel = dat[0x0ed]
	r.Level = dat[0x0ee]
	r.GenerationV2 = btrfsprim.Generation(binary.LittleEndian.Uint64(dat[0x0ef:0x0f7]))
	copy(r.UUID[:], dat[0x0f7:0x107])
	copy(r.ParentUUID[:], dat[0x107:0x117])
	copy(r.ReceivedUUID[:], dat[0x117:0x127])
	return nil
}
