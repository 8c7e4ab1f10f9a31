package btrfsitem

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// chunkHeaderSize is the fixed portion of a Chunk record, before its
// variable-length stripe vector.
const chunkHeaderSize = 0x30

// chunkStripeSize is the size of one ChunkStripe record.
const chunkStripeSize = 0x20

// Chunk maps a virtual address range onto one or more device stripes.
// Its key carries key.ObjectID = FirstChunkTreeObjectID and
// key.Offset = the chunk's virtual start address.
type Chunk struct {
	Size           btrfsvol.AddrDelta
	Owner          btrfsprim.ObjID
	StripeLen      uint64
	Type           btrfsvol.BlockGroupFlags
	IOOptimalAlign uint32
	IOOptimalWidth uint32
	IOMinSize      uint32
	SubStripes     uint16
	Stripes        []ChunkStripe
}

func (Chunk) isItem() {}

// ChunkStripe is one device's contribution to a Chunk.
type ChunkStripe struct {
	DeviceID   btrfsvol.DeviceID
	Offset     btrfsvol.PhysicalAddr
	DeviceUUID btrfsprim.UUID
}

// Mappings expands a decoded Chunk into the generic Mapping rows the
// chunk mapper works with, keyed on the chunk item's own key (whose
// offset field is the chunk's virtual start address).
func (c Chunk) Mappings(key btrfsprim.Key) []btrfsvol.Mapping {
	ret := make([]btrfsvol.Mapping, 0, len(c.Stripes))
	for _, s := range c.Stripes {
		ret = append(ret, btrfsvol.Mapping{
			LAddr: btrfsvol.LogicalAddr(key.Offset),
			PAddr: btrfsvol.QualifiedPhysicalAddr{
				Dev:  s.DeviceID,
				Addr: s.Offset,
			},
			Size:       c.Size,
			SizeLocked: true,
			Flags:      c.Type,
		})
	}
	return ret
}

func (c *Chunk) UnmarshalBinary(dat []byte) error {
	if len(dat) < chunkHeaderSize {
		return fmt.Errorf("btrfsitem: chunk: need %d bytes, have %d", chunkHeaderSize, len(dat))
	}
	c.Size = btrfsvol.AddrDelta(binary.LittleEndian.Uint64(dat[0x0:0x8]))
	c.Owner = btrfsprim.ObjID(binary.LittleEndian.Uint64(dat[0x8:0x10]))
	c.StripeLen = binary.LittleEndian.Uint64(dat[0x10:0x18])
	c.Type = btrfsvol.BlockGroupFlags(binary.LittleEndian.Uint64(dat[0x18:0x20]))
	c.IOOptimalAlign = binary.LittleEndian.Uint32(dat[0x20:0x24])
	c.IOOptimalWidth = binary.LittleEndian.Uint32(dat[0x24:0x28])
	c.IOMinSize = binary.LittleEndian.Uint32(dat[0x28:0x2c])
	numStripes := binary.LittleEndian.Uint16(dat[0x2c:0x2e])
	c.SubStripes = binary.LittleEndian.Uint16(dat[0x2e:0x30])

	need := chunkHeaderSize + int(numStripes)*chunkStripeSize
	if len(dat) < need {
		return fmt.Errorf("btrfsitem: chunk: need %d bytes for %d stripes, have %d", need, numStripes, len(dat))
	}
	c.Stripes = make([]ChunkStripe, numStripes)
	for i := range c.Stripes {
		off := chunkHeaderSize + i*chunkStripeSize
		c.Stripes[i] = ChunkStripe{
			DeviceID: btrfsvol.DeviceID(binary.LittleEndian.Uint64(dat[off : off+8])),
			Offset:   btrfsvol.PhysicalAddr(binary.LittleEndian.Uint64(dat[off+8 : off+16])),
		}
		copy(c.Stripes[i].DeviceUUID[:], dat[off+16:off+32])
	}
	return nil
}
