package btrfsitem

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
)

// rootRefHeaderSize is the fixed portion of a RootRef record, before
// its variable-length name.
const rootRefHeaderSize = 0x12

// MaxNameLen bounds a RootRef/DirItem name, matching the on-disk path
// component limit.
const MaxNameLen = 255

// RootRef links a subvolume into its parent directory (ROOT_REF) or
// back to its parent subvolume (ROOT_BACKREF). Its key carries
// key.Offset = the other subvolume's id.
type RootRef struct {
	DirID    btrfsprim.ObjID
	Sequence int64
	Name     []byte
}

func (RootRef) isItem() {}

func (r *RootRef) UnmarshalBinary(dat []byte) error {
	if len(dat) < rootRefHeaderSize {
		return fmt.Errorf("btrfsitem: rootref: need %d bytes, have %d", rootRefHeaderSize, len(dat))
	}
	r.DirID = btrfsprim.ObjID(binary.LittleEndian.Uint64(dat[0x00:0x08]))
	r.Sequence = int64(binary.LittleEndian.Uint64(dat[0x08:0x10]))
	nameLen := binary.LittleEndian.Uint16(dat[0x10:0x12])
	if nameLen > MaxNameLen {
		return fmt.Errorf("btrfsitem: rootref: name length %d exceeds maximum %d", nameLen, MaxNameLen)
	}
	need := rootRefHeaderSize + int(nameLen)
	if len(dat) < need {
		return fmt.Errorf("btrfsitem: rootref: need %d bytes for name, have %d", need, len(dat))
	}
	r.Name = append([]byte(nil), dat[rootRefHeaderSize:need]...)
	return nil
}
