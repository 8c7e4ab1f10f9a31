package btrfsitem

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// devItemSize is the fixed, packed size of a Dev record.
const devItemSize = 0x62

// Dev describes one member device of the filesystem. Its key carries
// key.ObjectID = 1 (the dev-items object id) and key.Offset = the
// device id.
type Dev struct {
	DevID btrfsvol.DeviceID

	NumBytes     uint64
	NumBytesUsed uint64

	IOOptimalAlign uint32
	IOOptimalWidth uint32
	IOMinSize      uint32

	Type        uint64
	Generation  btrfsprim.Generation
	StartOffset uint64
	DevGroup    uint32
	SeekSpeed   uint8
	Bandwidth   uint8

	DevUUID btrfsprim.UUID
	FSUUID  btrfsprim.UUID
}

func (Dev) isItem() {}

func (d *Dev) UnmarshalBinary(dat []byte) error {
	if len(dat) < devItemSize {
		return fmt.Errorf("btrfsitem: dev: need %d bytes, have %d", devItemSize, len(dat))
	}
	d.DevID = btrfsvol.DeviceID(binary.LittleEndian.Uint64(dat[0x00:0x08]))
	d.NumBytes = binary.LittleEndian.Uint64(dat[0x08:0x10])
	d.NumBytesUsed = binary.LittleEndian.Uint64(dat[0x10:0x18])
	d.IOOptimalAlign = binary.LittleEndian.Uint32(dat[0x18:0x1c])
	d.IOOptimalWidth = binary.LittleEndian.Uint32(dat[0x1c:0x20])
	d.IOMinSize = binary.LittleEndian.Uint32(dat[0x20:0x24])
	d.Type = binary.LittleEndian.Uint64(dat[0x24:0x2c])
	d.Generation = btrfsprim.Generation(binary.LittleEndian.Uint64(dat[0x2c:0x34]))
	d.StartOffset = binary.LittleEndian.Uint64(dat[0x34:0x3c])
	d.DevGroup = binary.LittleEndian.Uint32(dat[0x3c:0x40])
	d.SeekSpeed = dat[0x40]
	d.Bandwidth = dat[0x41]
	copy(d.DevUUID[:], dat[0x42:0x52])
	copy(d.FSUUID[:], dat[0x52:0x62])
	return nil
}
