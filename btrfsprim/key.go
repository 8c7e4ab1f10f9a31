package btrfsprim

import (
	"encoding/binary"
	"fmt"
)

// Key is the 3-tuple every tree item is addressed by. The sole
// ordering used by every tree is: ObjectID, then ItemType (as a raw
// numeric byte), then Offset.
type Key struct {
	ObjectID ObjID
	ItemType ItemType
	Offset   uint64
}

// KeySize is the on-disk size of a disk-key record.
const KeySize = 8 + 1 + 8

// MinKeyVal and MaxKeyVal are range-construction sentinels: the
// smallest and largest key that can ever be compared against a real
// item.
var (
	MinKeyVal = Key{ObjectID: MinObjectID, ItemType: MinKey, Offset: 0}
	MaxKeyVal = Key{ObjectID: MaxObjectID, ItemType: MaxKey, Offset: ^uint64(0)}
)

// Compare implements the lexicographic ordering used by every tree.
func (a Key) Compare(b Key) int {
	switch {
	case a.ObjectID < b.ObjectID:
		return -1
	case a.ObjectID > b.ObjectID:
		return 1
	}
	switch {
	case a.ItemType < b.ItemType:
		return -1
	case a.ItemType > b.ItemType:
		return 1
	}
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	default:
		return 0
	}
}

func (k Key) String() string {
	return fmt.Sprintf("(%d %v %d)", uint64(k.ObjectID), k.ItemType, k.Offset)
}

// UnmarshalKey decodes a packed, little-endian disk-key from the front
// of dat. dat must be at least KeySize bytes.
func UnmarshalKey(dat []byte) (Key, error) {
	if len(dat) < KeySize {
		return Key{}, fmt.Errorf("key: need %d bytes, have %d", KeySize, len(dat))
	}
	return Key{
		ObjectID: ObjID(binary.LittleEndian.Uint64(dat[0:8])),
		ItemType: ItemType(dat[8]),
		Offset:   binary.LittleEndian.Uint64(dat[9:17]),
	}, nil
}

// MarshalBinary encodes the key in its packed, little-endian on-disk
// form.
func (k Key) MarshalBinary() ([]byte, error) {
	dat := make([]byte, KeySize)
	binary.LittleEndian.PutUint64(dat[0:8], uint64(k.ObjectID))
	dat[8] = byte(k.ItemType)
	binary.LittleEndian.PutUint64(dat[9:17], k.Offset)
	return dat, nil
}
