package btrfsitem

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
)

// extentHeaderSize is the fixed portion of an Extent record; whatever
// follows is a variable-length sequence of inline backrefs this
// package doesn't decode further.
const extentHeaderSize = 0x18

// ExtentFlags records what kind of thing an Extent describes: a data
// extent, a tree block, or (historically) both.
type ExtentFlags uint64

const (
	ExtentFlagData ExtentFlags = 1 << iota
	ExtentFlagTreeBlock
)

func (f ExtentFlags) Has(req ExtentFlags) bool { return f&req == req }

// Extent is an EXTENT_ITEM record: the allocation accounting for one
// range of the virtual address space. Its key carries
// key.ObjectID = the extent's virtual start address and
// key.Offset = the extent's length.
type Extent struct {
	Refs       int64
	Generation btrfsprim.Generation
	Flags      ExtentFlags

	// InlineRefs holds whatever bytes follow the header, undecoded.
	// Extent backrefs come in four shapes (tree block, shared block,
	// extent data, shared data) that this package does not need to
	// tell apart to support read-only tree walking.
	InlineRefs []byte
}

func (Extent) isItem() {}

func (e *Extent) UnmarshalBinary(dat []byte) error {
	if len(dat) < extentHeaderSize {
		return fmt.Errorf("btrfsitem: extent: need %d bytes, have %d", extentHeaderSize, len(dat))
	}
	e.Refs = int64(binary.LittleEndian.Uint64(dat[0x0:0x8]))
	e.Generation = btrfsprim.Generation(binary.LittleEndian.Uint64(dat[0x8:0x10]))
	e.Flags = ExtentFlags(binary.LittleEndian.Uint64(dat[0x10:0x18]))
	e.InlineRefs = append([]byte(nil), dat[extentHeaderSize:]...)
	return nil
}
