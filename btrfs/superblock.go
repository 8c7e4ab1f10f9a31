package btrfs

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfssum"
	"github.com/btrfsforensic/core/btrfsvol"
)

// SuperblockSize is the fixed on-disk size of a superblock record.
const SuperblockSize = 4096

// Magic is the 8-byte constant every valid superblock begins its
// magic field with.
var Magic = [8]byte{'_', 'B', 'H', 'R', 'f', 'S', '_', 'M'}

// SuperblockAddrs lists the physical offsets of the primary
// superblock and its mirrors: 64KiB, 64MiB, 256GiB.
var SuperblockAddrs = []btrfsvol.PhysicalAddr{
	0x0001_0000,
	0x0400_0000,
	0x40_0000_0000,
}

// IncompatFlags records on-disk feature flags that readers must
// understand to safely interpret the filesystem.
type IncompatFlags uint64

const (
	FeatureIncompatMixedBackref = IncompatFlags(1 << iota)
	FeatureIncompatDefaultSubvol
	FeatureIncompatMixedGroups
	FeatureIncompatCompressLZO
	FeatureIncompatCompressZSTD
	FeatureIncompatBigMetadata
	FeatureIncompatExtendedIRef
	FeatureIncompatRAID56
	FeatureIncompatSkinnyMetadata
	FeatureIncompatNoHoles
	FeatureIncompatMetadataUUID
	FeatureIncompatRAID1C34
	FeatureIncompatZoned
	FeatureIncompatExtentTreeV2
)

func (f IncompatFlags) Has(req IncompatFlags) bool { return f&req == req }

// Superblock is the filesystem's root descriptor: a fixed 4096-byte
// record present at SuperblockAddrs[0] and mirrored at the remaining
// entries.
type Superblock struct {
	Checksum   btrfssum.CSum
	FSUUID     btrfsprim.UUID
	Self       btrfsvol.PhysicalAddr
	Flags      uint64
	Generation btrfsprim.Generation

	RootTree  btrfsvol.LogicalAddr
	ChunkTree btrfsvol.LogicalAddr
	LogTree   btrfsvol.LogicalAddr

	TotalBytes uint64
	BytesUsed  uint64
	NumDevices uint64

	SectorSize        uint32
	NodeSize          uint32
	StripeSize        uint32
	SysChunkArraySize uint32

	IncompatFlags IncompatFlags
	ChecksumType  btrfssum.CSumType

	DevItem btrfsitem.Dev

	MetadataUUID btrfsprim.UUID

	SysChunkArray [0x800]byte
}

func (sb Superblock) EffectiveMetadataUUID() btrfsprim.UUID {
	if !sb.IncompatFlags.Has(FeatureIncompatMetadataUUID) {
		return sb.FSUUID
	}
	return sb.MetadataUUID
}

// CalculateChecksum recomputes the checksum over bytes [0x20, 0x1000)
// of raw, the same bytes this superblock was decoded from.
func (sb Superblock) CalculateChecksum(raw []byte) (btrfssum.CSum, error) {
	return sb.ChecksumType.Sum(raw[0x20:SuperblockSize])
}

func (sb Superblock) ValidateChecksum(raw []byte) error {
	calced, err := sb.CalculateChecksum(raw)
	if err != nil {
		return err
	}
	if calced != sb.Checksum {
		return &SchemaViolationError{
			Context: "superblock checksum",
			Err:     fmt.Errorf("stored=%v calculated=%v", sb.Checksum, calced),
		}
	}
	return nil
}

// ParseSuperblock decodes a 4096-byte superblock record. It does not
// validate the checksum; call ValidateChecksum separately.
func ParseSuperblock(raw []byte) (*Superblock, error) {
	if len(raw) < SuperblockSize {
		return nil, &SchemaViolationError{
			Context: "superblock",
			Err:     fmt.Errorf("need %d bytes, have %d", SuperblockSize, len(raw)),
		}
	}

	var magic [8]byte
	copy(magic[:], raw[0x40:0x48])
	if magic != Magic {
		return nil, &SchemaViolationError{
			Context: "superblock magic",
			Err:     fmt.Errorf("got %q, want %q", magic, Magic),
		}
	}

	sb := &Superblock{}
	copy(sb.Checksum[:], raw[0x00:0x20])
	copy(sb.FSUUID[:], raw[0x20:0x30])
	sb.Self = btrfsvol.PhysicalAddr(binary.LittleEndian.Uint64(raw[0x30:0x38]))
	sb.Flags = binary.LittleEndian.Uint64(raw[0x38:0x40])
	sb.Generation = btrfsprim.Generation(binary.LittleEndian.Uint64(raw[0x48:0x50]))

	sb.RootTree = btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(raw[0x50:0x58]))
	sb.ChunkTree = btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(raw[0x58:0x60]))
	sb.LogTree = btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(raw[0x60:0x68]))

	sb.TotalBytes = binary.LittleEndian.Uint64(raw[0x70:0x78])
	sb.BytesUsed = binary.LittleEndian.Uint64(raw[0x78:0x80])
	sb.NumDevices = binary.LittleEndian.Uint64(raw[0x88:0x90])

	sb.SectorSize = binary.LittleEndian.Uint32(raw[0x90:0x94])
	sb.NodeSize = binary.LittleEndian.Uint32(raw[0x94:0x98])
	sb.StripeSize = binary.LittleEndian.Uint32(raw[0x9c:0xa0])
	sb.SysChunkArraySize = binary.LittleEndian.Uint32(raw[0xa0:0xa4])

	sb.IncompatFlags = IncompatFlags(binary.LittleEndian.Uint64(raw[0xbc:0xc4]))
	sb.ChecksumType = btrfssum.CSumType(binary.LittleEndian.Uint16(raw[0xc4:0xc6]))

	if err := sb.DevItem.UnmarshalBinary(raw[0xc9:0x12b]); err != nil {
		return nil, &SchemaViolationError{Context: "superblock dev_item", Err: err}
	}

	copy(sb.MetadataUUID[:], raw[0x23b:0x24b])
	copy(sb.SysChunkArray[:], raw[0x32b:0x32b+0x800])

	if err := sb.validate(); err != nil {
		return nil, err
	}
	return sb, nil
}

func (sb *Superblock) validate() error {
	switch {
	case sb.TotalBytes == 0:
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("total_bytes is zero")}
	case sb.NumDevices == 0:
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("num_devices is zero")}
	case sb.SectorSize == 0:
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("sectorsize is zero")}
	case sb.NodeSize == 0:
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("nodesize is zero")}
	case sb.StripeSize == 0:
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("stripesize is zero")}
	case sb.SysChunkArraySize > uint32(len(sb.SysChunkArray)):
		return &SchemaViolationError{Context: "superblock", Err: fmt.Errorf("sys_chunk_array_size %d exceeds buffer", sb.SysChunkArraySize)}
	}
	return nil
}

// SysChunk is one (key, chunk) record from the superblock's bootstrap
// chunk array.
type SysChunk struct {
	Key   btrfsprim.Key
	Chunk btrfsitem.Chunk
}

// ParseSysChunkArray decodes the densely packed sequence of
// (disk-key, chunk-header, stripes) records that bootstraps the
// virtual-to-physical mapping before the chunk tree itself is
// reachable.
func (sb Superblock) ParseSysChunkArray() ([]SysChunk, error) {
	dat := sb.SysChunkArray[:sb.SysChunkArraySize]
	var ret []SysChunk
	for len(dat) > 0 {
		if len(dat) < btrfsprim.KeySize {
			return nil, &SchemaViolationError{
				Context: "sys_chunk_array",
				Err:     fmt.Errorf("array ended mid-record: %d bytes left, need at least %d for a key", len(dat), btrfsprim.KeySize),
			}
		}
		key, err := btrfsprim.UnmarshalKey(dat)
		if err != nil {
			return nil, &SchemaViolationError{Context: "sys_chunk_array key", Err: err}
		}
		if key.ItemType != btrfsprim.ChunkItemKey || key.ObjectID != btrfsprim.FirstChunkTreeObjectID {
			return nil, &SchemaViolationError{
				Context: "sys_chunk_array",
				Err:     fmt.Errorf("unexpected key %v, want (%v, CHUNK_ITEM, *)", key, btrfsprim.FirstChunkTreeObjectID),
			}
		}
		dat = dat[btrfsprim.KeySize:]

		var chunk btrfsitem.Chunk
		if err := chunk.UnmarshalBinary(dat); err != nil {
			return nil, &SchemaViolationError{Context: "sys_chunk_array chunk", Err: err}
		}
		consumed := 0x30 + len(chunk.Stripes)*0x20
		dat = dat[consumed:]

		ret = append(ret, SysChunk{Key: key, Chunk: chunk})
	}
	return ret, nil
}
