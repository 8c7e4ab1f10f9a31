package btrfs

import (
	"fmt"

	"github.com/btrfsforensic/core/diskio"
)

// Device is one open, memory-mapped member of the filesystem.
type Device struct {
	file diskio.File

	superblocks []*Superblock
}

// OpenDevice maps path read-only and wraps it as a Device.
func OpenDevice(path string) (*Device, error) {
	f, err := diskio.Open(path)
	if err != nil {
		return nil, &IoFailureError{Context: fmt.Sprintf("open device %s", path), Err: err}
	}
	return &Device{file: f}, nil
}

func (dev *Device) Close() error { return dev.file.Close() }
func (dev *Device) Name() string { return dev.file.Name() }
func (dev *Device) Size() int64  { return dev.file.Size() }

func (dev *Device) ReadAt(off, length int64) ([]byte, error) {
	dat, err := dev.file.Slice(off, length)
	if err != nil {
		return nil, &BoundsError{Context: fmt.Sprintf("%s: %v", dev.file.Name(), err)}
	}
	return dat, nil
}

// Superblocks reads every superblock mirror that fits within the
// device, without validating checksums or requiring they agree.
func (dev *Device) Superblocks() ([]*Superblock, error) {
	if dev.superblocks != nil {
		return dev.superblocks, nil
	}

	var ret []*Superblock
	for i, addr := range SuperblockAddrs {
		if int64(addr)+SuperblockSize > dev.Size() {
			continue
		}
		raw, err := dev.ReadAt(int64(addr), SuperblockSize)
		if err != nil {
			return nil, fmt.Errorf("superblock mirror %d: %w", i, err)
		}
		sb, err := ParseSuperblock(raw)
		if err != nil {
			continue // unreadable mirror; later FreshestSuperblock decides if that's fatal
		}
		ret = append(ret, sb)
	}
	if len(ret) == 0 {
		return nil, &SchemaViolationError{Context: "device", Err: fmt.Errorf("no valid superblock found on %s", dev.Name())}
	}
	dev.superblocks = ret
	return ret, nil
}

// FreshestSuperblock selects, among this device's valid superblock
// mirrors, the one with the highest generation and a matching
// checksum, supporting the case where a crash left a stale mirror
// behind.
func (dev *Device) FreshestSuperblock() (*Superblock, error) {
	sbs, err := dev.Superblocks()
	if err != nil {
		return nil, err
	}

	var best *Superblock
	for _, sb := range sbs {
		raw, err := dev.ReadAt(int64(sb.Self), SuperblockSize)
		if err != nil {
			continue
		}
		if err := sb.ValidateChecksum(raw); err != nil {
			continue
		}
		if best == nil || sb.Generation > best.Generation {
			best = sb
		}
	}
	if best == nil {
		return nil, &SchemaViolationError{Context: "device", Err: fmt.Errorf("no superblock on %s has a valid checksum", dev.Name())}
	}
	return best, nil
}
