package btrfs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfssum"
	"github.com/btrfsforensic/core/btrfstree"
	"github.com/btrfsforensic/core/btrfsvol"
)

// defaultNodeCacheSize bounds how many decoded tree blocks are kept
// warm; a full tree walk re-visits ancestors far more than it visits
// any one leaf, so even a small cache cuts most re-reads.
const defaultNodeCacheSize = 256

// cachedNodeSource decodes tree blocks through a ChunkMapper and
// keeps the most recently used ones decoded, implementing
// btrfstree.NodeSource.
type cachedNodeSource struct {
	chunks   *ChunkMapper
	nodesize int64
	csumType btrfssum.CSumType
	fsid     btrfsprim.UUID
	cache    *lru.Cache
}

var _ btrfstree.NodeSource = (*cachedNodeSource)(nil)

func newCachedNodeSource(chunks *ChunkMapper, nodesize int64, csumType btrfssum.CSumType, fsid btrfsprim.UUID) (*cachedNodeSource, error) {
	if !csumType.Supported() {
		return nil, &UnsupportedError{Feature: fmt.Sprintf("checksum algorithm %v", csumType)}
	}
	cache, err := lru.New(defaultNodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("btrfs: node cache: %w", err)
	}
	return &cachedNodeSource{chunks: chunks, nodesize: nodesize, csumType: csumType, fsid: fsid, cache: cache}, nil
}

func (s *cachedNodeSource) ReadNode(addr btrfsvol.LogicalAddr) (*btrfstree.Node, error) {
	if v, ok := s.cache.Get(addr); ok {
		return v.(*btrfstree.Node), nil
	}

	raw, err := s.chunks.LoadVirtBlock(addr, s.nodesize)
	if err != nil {
		return nil, fmt.Errorf("btrfs: read node at %v: %w", addr, err)
	}
	node, err := btrfstree.ParseNode(s.csumType, raw)
	if err != nil {
		return nil, &SchemaViolationError{Context: fmt.Sprintf("node at %v", addr), Err: err}
	}
	if err := node.ValidateChecksum(raw); err != nil {
		return nil, &SchemaViolationError{Context: fmt.Sprintf("node at %v", addr), Err: err}
	}
	if node.Head.Addr != addr {
		return nil, &SchemaViolationError{
			Context: fmt.Sprintf("node at %v", addr),
			Err:     fmt.Errorf("header claims address %v", node.Head.Addr),
		}
	}
	if node.Head.MetadataUUID != s.fsid {
		return nil, &SchemaViolationError{
			Context: fmt.Sprintf("node at %v", addr),
			Err:     fmt.Errorf("header fsid %v does not match filesystem fsid %v", node.Head.MetadataUUID, s.fsid),
		}
	}

	s.cache.Add(addr, node)
	return node, nil
}
