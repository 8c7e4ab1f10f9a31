// Package btrfstree implements the generic B-tree: node decoding,
// key-ordered search, and range iteration over any tree rooted at a
// virtual address.
package btrfstree

import (
	"encoding/binary"
	"fmt"

	"github.com/btrfsforensic/core/btrfsitem"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfssum"
	"github.com/btrfsforensic/core/btrfsvol"
)

const (
	nodeHeaderSize = 0x65
	keyPointerSize = 0x21
	itemHeaderSize = 0x19
)

// NodeFlags records node-level attributes stored in the header's
// 7-byte flags field.
type NodeFlags uint64

const (
	NodeWritten NodeFlags = 1 << iota
	NodeReloc
)

func (f NodeFlags) Has(req NodeFlags) bool { return f&req == req }

// NodeHeader is the fixed 0x65-byte prefix of every tree block.
type NodeHeader struct {
	Checksum      btrfssum.CSum
	MetadataUUID  btrfsprim.UUID
	Addr          btrfsvol.LogicalAddr
	Flags         NodeFlags
	ChunkTreeUUID btrfsprim.UUID
	Generation    btrfsprim.Generation
	Owner         btrfsprim.ObjID
	NumItems      uint32
	Level         uint8
}

// KeyPointer is one entry of an interior node's body: a child key
// range plus the child's own virtual address and generation.
type KeyPointer struct {
	Key        btrfsprim.Key
	BlockPtr   btrfsvol.LogicalAddr
	Generation btrfsprim.Generation
}

// ItemHeader is the fixed-size part of a leaf item record; its
// variable-length data lives elsewhere in the block, addressed by
// DataOffset relative to the end of the node header.
type ItemHeader struct {
	Key        btrfsprim.Key
	DataOffset uint32
	DataSize   uint32
}

// Item is a fully decoded leaf entry: its key, and either its typed
// payload (Body) or, for a type this package doesn't model, the raw
// bytes preserved in Body as btrfsitem.Untyped.
type Item struct {
	Key  btrfsprim.Key
	Body btrfsitem.Item
}

// Node is a decoded tree block: either an interior node (Level > 0,
// BodyInterior populated) or a leaf (Level == 0, BodyLeaf populated).
type Node struct {
	Size         uint32
	ChecksumType btrfssum.CSumType

	Head NodeHeader

	BodyInterior []KeyPointer
	BodyLeaf     []Item
}

// MaxItems returns the largest NumItems a node of this size could
// hold at this level, used to sanity-check a decoded header before
// trusting it.
func (n Node) MaxItems() uint32 {
	bodyBytes := n.Size - nodeHeaderSize
	if n.Head.Level > 0 {
		return bodyBytes / keyPointerSize
	}
	return bodyBytes / itemHeaderSize
}

func (n Node) MinItem() (btrfsprim.Key, bool) {
	if n.Head.Level > 0 {
		if len(n.BodyInterior) == 0 {
			return btrfsprim.Key{}, false
		}
		return n.BodyInterior[0].Key, true
	}
	if len(n.BodyLeaf) == 0 {
		return btrfsprim.Key{}, false
	}
	return n.BodyLeaf[0].Key, true
}

func (n Node) MaxItem() (btrfsprim.Key, bool) {
	if n.Head.Level > 0 {
		if len(n.BodyInterior) == 0 {
			return btrfsprim.Key{}, false
		}
		return n.BodyInterior[len(n.BodyInterior)-1].Key, true
	}
	if len(n.BodyLeaf) == 0 {
		return btrfsprim.Key{}, false
	}
	return n.BodyLeaf[len(n.BodyLeaf)-1].Key, true
}

// ValidateChecksum recomputes the checksum over bytes [32, Size) of
// raw (the same bytes this node was decoded from) and compares it
// against the stored header checksum.
func (n Node) ValidateChecksum(raw []byte) error {
	calced, err := n.ChecksumType.Sum(raw[32:])
	if err != nil {
		return err
	}
	if calced != n.Head.Checksum {
		return fmt.Errorf("btrfstree: node at %v: checksum mismatch: stored=%v calculated=%v",
			n.Head.Addr, n.Head.Checksum, calced)
	}
	return nil
}

// ParseNode decodes a raw, nodesize-aligned block. csumType selects
// the algorithm used for ValidateChecksum, not for parsing itself.
func ParseNode(csumType btrfssum.CSumType, raw []byte) (*Node, error) {
	if len(raw) <= nodeHeaderSize {
		return nil, fmt.Errorf("btrfstree: node: size must be greater than %d, have %d", nodeHeaderSize, len(raw))
	}
	n := &Node{
		Size:         uint32(len(raw)),
		ChecksumType: csumType,
	}
	copy(n.Head.Checksum[:], raw[0x00:0x20])
	copy(n.Head.MetadataUUID[:], raw[0x20:0x30])
	n.Head.Addr = btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(raw[0x30:0x38]))
	var flagBytes [8]byte
	copy(flagBytes[:7], raw[0x38:0x3f])
	n.Head.Flags = NodeFlags(binary.LittleEndian.Uint64(flagBytes[:]))
	copy(n.Head.ChunkTreeUUID[:], raw[0x40:0x50])
	n.Head.Generation = btrfsprim.Generation(binary.LittleEndian.Uint64(raw[0x50:0x58]))
	n.Head.Owner = btrfsprim.ObjID(binary.LittleEndian.Uint64(raw[0x58:0x60]))
	n.Head.NumItems = binary.LittleEndian.Uint32(raw[0x60:0x64])
	n.Head.Level = raw[0x64]

	if n.Head.NumItems > n.MaxItems() {
		return nil, fmt.Errorf("btrfstree: node at %v: NumItems=%d exceeds maximum %d for a block of size %d",
			n.Head.Addr, n.Head.NumItems, n.MaxItems(), n.Size)
	}

	body := raw[nodeHeaderSize:]
	if n.Head.Level > 0 {
		if err := n.unmarshalInterior(body); err != nil {
			return nil, fmt.Errorf("btrfstree: node at %v: %w", n.Head.Addr, err)
		}
	} else {
		if err := n.unmarshalLeaf(body); err != nil {
			return nil, fmt.Errorf("btrfstree: node at %v: %w", n.Head.Addr, err)
		}
	}
	return n, nil
}

func (n *Node) unmarshalInterior(body []byte) error {
	n.BodyInterior = make([]KeyPointer, n.Head.NumItems)
	for i := range n.BodyInterior {
		off := i * keyPointerSize
		if off+keyPointerSize > len(body) {
			return fmt.Errorf("key-pointer %d: out of bounds", i)
		}
		key, err := btrfsprim.UnmarshalKey(body[off:])
		if err != nil {
			return fmt.Errorf("key-pointer %d: %w", i, err)
		}
		n.BodyInterior[i] = KeyPointer{
			Key:        key,
			BlockPtr:   btrfsvol.LogicalAddr(binary.LittleEndian.Uint64(body[off+0x11 : off+0x19])),
			Generation: btrfsprim.Generation(binary.LittleEndian.Uint64(body[off+0x19 : off+0x21])),
		}
	}
	return checkKeyOrderInterior(n.BodyInterior)
}

func (n *Node) unmarshalLeaf(body []byte) error {
	headers := make([]ItemHeader, n.Head.NumItems)
	for i := range headers {
		off := i * itemHeaderSize
		if off+itemHeaderSize > len(body) {
			return fmt.Errorf("item %d: header out of bounds", i)
		}
		key, err := btrfsprim.UnmarshalKey(body[off:])
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		headers[i] = ItemHeader{
			Key:        key,
			DataOffset: binary.LittleEndian.Uint32(body[off+0x11 : off+0x15]),
			DataSize:   binary.LittleEndian.Uint32(body[off+0x15 : off+0x19]),
		}
	}

	n.BodyLeaf = make([]Item, n.Head.NumItems)
	for i, h := range headers {
		start := int(h.DataOffset)
		end := start + int(h.DataSize)
		if start < 0 || end > len(body) || start > end {
			return fmt.Errorf("item %d: data region [%d, %d) out of bounds for body of size %d",
				i, start, end, len(body))
		}
		n.BodyLeaf[i] = Item{Key: h.Key, Body: btrfsitem.Decode(h.Key.ItemType, body[start:end])}
	}
	return checkKeyOrderLeaf(n.BodyLeaf)
}

func checkKeyOrderInterior(items []KeyPointer) error {
	for i := 1; i < len(items); i++ {
		if items[i-1].Key.Compare(items[i].Key) >= 0 {
			return fmt.Errorf("key-pointers not strictly ordered at index %d", i)
		}
	}
	return nil
}

func checkKeyOrderLeaf(items []Item) error {
	for i := 1; i < len(items); i++ {
		if items[i-1].Key.Compare(items[i].Key) >= 0 {
			return fmt.Errorf("items not strictly ordered at index %d", i)
		}
	}
	return nil
}
