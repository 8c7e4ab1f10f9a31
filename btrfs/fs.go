package btrfs

import (
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfstree"
	"github.com/btrfsforensic/core/btrfsvol"
)

// FS is a read-only handle onto an unmounted filesystem: its member
// devices, the chosen master superblock, and the chunk mapper built
// from its bootstrap chunks. It is immutable after Open returns.
type FS struct {
	devicesByID   map[btrfsvol.DeviceID]*Device
	devicesByUUID map[btrfsprim.UUID]*Device

	sb     Superblock
	chunks *ChunkMapper
	nodes  *cachedNodeSource
}

// Open maps every device in paths, selects the freshest agreeing
// superblock, and builds the chunk-tree bootstrap. The first device
// in paths need not be the one whose superblock turns out freshest.
func Open(paths ...string) (*FS, error) {
	if len(paths) == 0 {
		return nil, &SchemaViolationError{Context: "open", Err: fmt.Errorf("no device paths given")}
	}

	devicesByID := make(map[btrfsvol.DeviceID]*Device, len(paths))
	devicesByUUID := make(map[btrfsprim.UUID]*Device, len(paths))

	var master, reference *Superblock
	for _, path := range paths {
		dev, err := OpenDevice(path)
		if err != nil {
			return nil, err
		}
		sb, err := dev.FreshestSuperblock()
		if err != nil {
			return nil, err
		}

		if sb.FSUUID != sb.DevItem.FSUUID {
			return nil, &SchemaViolationError{
				Context: fmt.Sprintf("device %q", path),
				Err:     fmt.Errorf("superblock fsid %v does not match embedded dev_item fsid %v", sb.FSUUID, sb.DevItem.FSUUID),
			}
		}
		if reference == nil {
			reference = sb
		} else {
			if sb.FSUUID != reference.FSUUID {
				return nil, &SchemaViolationError{
					Context: fmt.Sprintf("device %q", path),
					Err:     fmt.Errorf("fsid %v does not match fsid %v of earlier device", sb.FSUUID, reference.FSUUID),
				}
			}
			if sb.NumDevices != reference.NumDevices {
				return nil, &SchemaViolationError{
					Context: fmt.Sprintf("device %q", path),
					Err:     fmt.Errorf("num_devices %d does not match num_devices %d of earlier device", sb.NumDevices, reference.NumDevices),
				}
			}
		}

		devID := btrfsvol.DeviceID(sb.DevItem.DevID)
		devicesByID[devID] = dev
		devicesByUUID[sb.DevItem.DevUUID] = dev

		if master == nil || sb.Generation > master.Generation {
			master = sb
		}
	}

	bootstrap, err := master.ParseSysChunkArray()
	if err != nil {
		return nil, &SchemaViolationError{Context: "sys_chunk_array", Err: err}
	}

	fs := &FS{
		devicesByID:   devicesByID,
		devicesByUUID: devicesByUUID,
		sb:            *master,
	}
	fs.chunks = NewChunkMapper(bootstrap, devicesByID, master.ChunkTree, nil)
	nodes, err := newCachedNodeSource(fs.chunks, int64(master.NodeSize), master.ChecksumType, master.EffectiveMetadataUUID())
	if err != nil {
		return nil, err
	}
	fs.nodes = nodes
	fs.chunks.tree = nodes

	return fs, nil
}

// Close releases every mapped device.
func (fs *FS) Close() error {
	var firstErr error
	for _, dev := range fs.devicesByID {
		if err := dev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Superblock returns the master superblock this handle was opened
// with, by value.
func (fs *FS) Superblock() Superblock { return fs.sb }

// NodeSource exposes the checksum-validating, cache-backed node
// reader backing every tree walk on this handle.
func (fs *FS) NodeSource() btrfstree.NodeSource { return fs.nodes }

// ChunkMapper exposes the virtual-to-physical translator, for repair
// paths that need every reachable replica of an address.
func (fs *FS) ChunkMapper() *ChunkMapper { return fs.chunks }

// TreeRootOffset locates treeID's own root block by searching the
// root tree for its ROOT_ITEM. The root tree and the chunk tree are
// answered from the superblock, which records their roots directly.
func (fs *FS) TreeRootOffset(treeID btrfsprim.ObjID) (btrfsvol.LogicalAddr, error) {
	switch treeID {
	case btrfsprim.RootTreeObjectID:
		return fs.sb.RootTree, nil
	case btrfsprim.ChunkTreeObjectID:
		return fs.sb.ChunkTree, nil
	default:
		return btrfstree.LookupTreeRoot(fs.nodes, fs.sb.RootTree, treeID)
	}
}

// TreeSearch opens an iterator over treeID bounded to opt.
func (fs *FS) TreeSearch(treeID btrfsprim.ObjID, opt btrfstree.SearchOption) (*btrfstree.Iterator, error) {
	root, err := fs.TreeRootOffset(treeID)
	if err != nil {
		return nil, fmt.Errorf("btrfs: tree %v: %w", treeID, err)
	}
	return btrfstree.NewIterator(fs.nodes, root, opt)
}

// TreeSearchAll drains TreeSearch's iterator.
func (fs *FS) TreeSearchAll(treeID btrfsprim.ObjID, opt btrfstree.SearchOption) ([]btrfstree.Result, error) {
	it, err := fs.TreeSearch(treeID, opt)
	if err != nil {
		return nil, err
	}
	return btrfstree.All(it)
}
