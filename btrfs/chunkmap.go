package btrfs

import (
	"fmt"

	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfstree"
	"github.com/btrfsforensic/core/btrfsvol"
)

// ChunkMapper answers virtual-to-physical translation queries: first
// against the bootstrap chunks embedded in the superblock, falling
// back to the chunk tree once it's searchable.
type ChunkMapper struct {
	bootstrap []SysChunk
	devices   map[btrfsvol.DeviceID]*Device
	chunkRoot btrfsvol.LogicalAddr
	tree      btrfstree.NodeSource
}

// NewChunkMapper builds a mapper from the superblock's bootstrap
// chunks; tree must resolve nodes of the chunk tree rooted at
// chunkRoot for addresses the bootstrap chunks don't cover.
func NewChunkMapper(bootstrap []SysChunk, devices map[btrfsvol.DeviceID]*Device, chunkRoot btrfsvol.LogicalAddr, tree btrfstree.NodeSource) *ChunkMapper {
	return &ChunkMapper{bootstrap: bootstrap, devices: devices, chunkRoot: chunkRoot, tree: tree}
}

// findMapping locates the chunk (bootstrap or tree) that covers virt,
// returning every stripe of that chunk.
func (m *ChunkMapper) findMapping(virt btrfsvol.LogicalAddr) ([]btrfsvol.Mapping, error) {
	for _, sc := range m.bootstrap {
		start := btrfsvol.LogicalAddr(sc.Key.Offset)
		end := start.Add(sc.Chunk.Size)
		if virt >= start && virt < end {
			return sc.Chunk.Mappings(sc.Key), nil
		}
	}

	if m.tree == nil {
		return nil, &NotMappedError{Addr: virt}
	}

	opt := btrfstree.SearchOption{
		MinKey: btrfsprim.Key{ObjectID: btrfsprim.FirstChunkTreeObjectID, ItemType: btrfsprim.ChunkItemKey, Offset: 0},
		MaxKey: btrfsprim.Key{ObjectID: btrfsprim.FirstChunkTreeObjectID, ItemType: btrfsprim.ChunkItemKey, Offset: uint64(virt)},
	}
	it, err := btrfstree.NewIterator(m.tree, m.chunkRoot, opt)
	if err != nil {
		return nil, err
	}

	var best *btrfstree.Result
	for {
		r, err := it.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			break
		}
		chunk, ok := r.Item.Body.(btrfsitem.Chunk)
		if !ok {
			continue
		}
		start := btrfsvol.LogicalAddr(r.Item.Key.Offset)
		if virt >= start && virt < start.Add(chunk.Size) {
			best = r
		}
	}
	if best == nil {
		return nil, &NotMappedError{Addr: virt}
	}
	chunk := best.Item.Body.(btrfsitem.Chunk) //nolint:forcetypeassert // checked above
	return chunk.Mappings(best.Item.Key), nil
}

// firstReachableStripe returns the first mapping whose device is
// currently open, per the "choose any reachable stripe for reads"
// policy.
func firstReachableStripe(mappings []btrfsvol.Mapping, devices map[btrfsvol.DeviceID]*Device) (btrfsvol.Mapping, *Device, bool) {
	for _, mp := range mappings {
		if dev, ok := devices[mp.PAddr.Dev]; ok {
			return mp, dev, true
		}
	}
	return btrfsvol.Mapping{}, nil, false
}

// LoadVirtBlock returns a byte slice of one nodesize-aligned block at
// virt, reading from the first reachable stripe of the chunk that
// covers it.
func (m *ChunkMapper) LoadVirtBlock(virt btrfsvol.LogicalAddr, nodesize int64) ([]byte, error) {
	mappings, err := m.findMapping(virt)
	if err != nil {
		return nil, err
	}
	mp, dev, ok := firstReachableStripe(mappings, m.devices)
	if !ok {
		return nil, &NotMappedError{Addr: virt}
	}
	physAddr := mp.Translate(virt)
	return dev.ReadAt(int64(physAddr.Addr), nodesize)
}

// LoadVirt returns a byte slice of length n at virt, rejecting with a
// BoundsError a read that runs past the end of the containing chunk.
// A read that crosses a tree-block boundary inside the chunk is not
// rejected.
func (m *ChunkMapper) LoadVirt(virt btrfsvol.LogicalAddr, n int64) ([]byte, error) {
	mappings, err := m.findMapping(virt)
	if err != nil {
		return nil, err
	}
	mp, dev, ok := firstReachableStripe(mappings, m.devices)
	if !ok {
		return nil, &NotMappedError{Addr: virt}
	}
	if virt.Add(btrfsvol.AddrDelta(n)) > mp.LAddr.Add(mp.Size) {
		return nil, &BoundsError{Context: fmt.Sprintf("read of %d bytes at %v crosses chunk boundary", n, virt)}
	}
	physAddr := mp.Translate(virt)
	return dev.ReadAt(int64(physAddr.Addr), n)
}

// VirtualOffsetToPhysical returns every reachable stripe's physical
// address for virt, for repair paths that must write every replica.
func (m *ChunkMapper) VirtualOffsetToPhysical(virt btrfsvol.LogicalAddr) ([]btrfsvol.QualifiedPhysicalAddr, error) {
	mappings, err := m.findMapping(virt)
	if err != nil {
		return nil, err
	}
	var ret []btrfsvol.QualifiedPhysicalAddr
	for _, mp := range mappings {
		if _, ok := m.devices[mp.PAddr.Dev]; !ok {
			continue
		}
		ret = append(ret, mp.Translate(virt))
	}
	if len(ret) == 0 {
		return nil, &NotMappedError{Addr: virt}
	}
	return ret, nil
}
