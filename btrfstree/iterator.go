package btrfstree

import (
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// Result is one yielded leaf entry: its item, the virtual address of
// the leaf block it came from, and its position within that leaf.
// The block address and index let a repair tool locate the exact
// bytes to rewrite.
type Result struct {
	Item      Item
	BlockAddr btrfsvol.LogicalAddr
	Index     int
}

// frame records one step of the path from the tree root down to the
// current leaf: the interior node, and the index of the child we
// descended into.
type frame struct {
	node *Node
	idx  int
}

// Iterator walks a tree's leaf items in ascending key order, bounded
// to a SearchOption's closed key range. It is pull-driven: call Next
// until it returns (nil, nil).
type Iterator struct {
	src  NodeSource
	opt  SearchOption
	path []frame
	leaf *Node
	idx  int
	done bool
}

// NewIterator positions an Iterator at the first item in opt's range
// reachable from root.
func NewIterator(src NodeSource, root btrfsvol.LogicalAddr, opt SearchOption) (*Iterator, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	it := &Iterator{src: src, opt: opt}
	node, err := src.ReadNode(root)
	if err != nil {
		return nil, err
	}
	if err := it.descendFrom(node); err != nil {
		return nil, err
	}
	return it, nil
}

// chooseChild scans an interior node's entries in order with a
// one-ahead window, returning the index of the single child whose
// subtree may contain minKey, or -1 if no child's subtree can
// intersect [minKey, maxKey].
func chooseChild(entries []KeyPointer, minKey, maxKey btrfsprim.Key) int {
	for i, cur := range entries {
		cmpMin := cur.Key.Compare(minKey)
		cmpMax := cur.Key.Compare(maxKey)

		if cmpMin > 0 && cmpMax > 0 {
			// This child, and every child after it, starts
			// beyond maxKey.
			return -1
		}
		if cmpMin == 0 {
			return i
		}
		if cmpMin > 0 && cmpMax <= 0 {
			// Subtree starts inside the range.
			return i
		}
		if cmpMin < 0 {
			if i+1 >= len(entries) {
				// Last candidate; its subtree may still
				// reach minKey.
				return i
			}
			if entries[i+1].Key.Compare(minKey) > 0 {
				// The next key is past minKey, so minKey
				// (if present) lives in this child's range.
				return i
			}
			// Otherwise the next key is a closer candidate;
			// keep scanning.
		}
	}
	return -1
}

// descendFrom walks down from node to a leaf, pushing a frame for
// every interior level visited.
func (it *Iterator) descendFrom(node *Node) error {
	for node.Head.Level > 0 {
		idx := chooseChild(node.BodyInterior, it.opt.MinKey, it.opt.MaxKey)
		if idx < 0 {
			it.done = true
			return nil
		}
		it.path = append(it.path, frame{node: node, idx: idx})
		child, err := it.src.ReadNode(node.BodyInterior[idx].BlockPtr)
		if err != nil {
			return err
		}
		node = child
	}
	it.leaf = node
	it.idx = 0
	return nil
}

// descendLeftmost walks down from node to its leftmost leaf, used
// when resuming iteration in a fresh subtree reached via ascent.
func (it *Iterator) descendLeftmost(node *Node) error {
	for node.Head.Level > 0 {
		it.path = append(it.path, frame{node: node, idx: 0})
		child, err := it.src.ReadNode(node.BodyInterior[0].BlockPtr)
		if err != nil {
			return err
		}
		node = child
	}
	it.leaf = node
	it.idx = 0
	return nil
}

// ascend pops the path stack until it finds an ancestor with an
// unconsumed next child, then descends leftmost into that child's
// subtree to find the next leaf. Returns false once the path is
// exhausted.
func (it *Iterator) ascend() (bool, error) {
	for len(it.path) > 0 {
		top := it.path[len(it.path)-1]
		it.path = it.path[:len(it.path)-1]
		nextIdx := top.idx + 1
		if nextIdx >= len(top.node.BodyInterior) {
			continue
		}
		it.path = append(it.path, frame{node: top.node, idx: nextIdx})
		child, err := it.src.ReadNode(top.node.BodyInterior[nextIdx].BlockPtr)
		if err != nil {
			return false, err
		}
		if err := it.descendLeftmost(child); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Next returns the next item in range, or (nil, nil) once iteration
// is exhausted.
func (it *Iterator) Next() (*Result, error) {
	if it.done {
		return nil, nil
	}
	for {
		if it.leaf == nil {
			it.done = true
			return nil, nil
		}
		if it.idx >= len(it.leaf.BodyLeaf) {
			ok, err := it.ascend()
			if err != nil {
				it.done = true
				return nil, err
			}
			if !ok {
				it.done = true
				return nil, nil
			}
			continue
		}

		cand := it.leaf.BodyLeaf[it.idx]
		blockAddr := it.leaf.Head.Addr
		pos := it.idx
		it.idx++

		if cand.Key.Compare(it.opt.MaxKey) > 0 {
			it.done = true
			return nil, nil
		}
		if cand.Key.Compare(it.opt.MinKey) < 0 {
			continue
		}
		return &Result{Item: cand, BlockAddr: blockAddr, Index: pos}, nil
	}
}

// All drains the iterator, collecting every yielded result.
func All(it *Iterator) ([]Result, error) {
	var out []Result
	for {
		r, err := it.Next()
		if err != nil {
			return out, err
		}
		if r == nil {
			return out, nil
		}
		out = append(out, *r)
	}
}
