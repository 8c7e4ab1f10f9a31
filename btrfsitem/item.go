// Package btrfsitem decodes the typed payloads carried by leaf items:
// chunk records, device records, subvolume root records, and so on.
// Types not modeled here fall back to Untyped, preserving their raw
// bytes rather than failing the whole tree walk; types that are
// modeled but whose bytes don't parse fall back to Error the same
// way, so one corrupt item never aborts a caller's walk over the rest
// of the tree.
package btrfsitem

import (
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
)

// Item is anything a leaf item's data region can decode into.
type Item interface {
	isItem()
}

// Untyped is the fallback payload for item types this package does
// not model: the raw data region, unparsed.
type Untyped struct {
	Type btrfsprim.ItemType
	Data []byte
}

func (Untyped) isItem() {}

// Error is returned in place of a modeled type when that type's
// decoder rejects the bytes: a length check fails, a child struct
// fails to decode, and so on. Dat preserves the original bytes so a
// caller can still inspect or repair the item by hand.
type Error struct {
	Type btrfsprim.ItemType
	Dat  []byte
	Err  error
}

func (Error) isItem() {}

func (e Error) Error() string { return fmt.Sprintf("btrfsitem: %v: %v", e.Type, e.Err) }
func (e Error) Unwrap() error { return e.Err }

// Decode parses a leaf item's data region according to the item type
// recorded in its key. It never returns an error: unrecognized types
// decode to Untyped, and recognized types whose bytes fail to parse
// decode to Error, so a walk over a tree with unexpected or corrupt
// items can still proceed item by item.
func Decode(typ btrfsprim.ItemType, dat []byte) Item {
	buf := make([]byte, len(dat))
	copy(buf, dat)

	switch typ {
	case btrfsprim.ChunkItemKey:
		var v Chunk
		if err := v.UnmarshalBinary(dat); err != nil {
			return Error{Type: typ, Dat: buf, Err: err}
		}
		return v
	case btrfsprim.DevItemKey:
		var v Dev
		if err := v.UnmarshalBinary(dat); err != nil {
			return Error{Type: typ, Dat: buf, Err: err}
		}
		return v
	case btrfsprim.RootItemKey:
		var v Root
		if err := v.UnmarshalBinary(dat); err != nil {
			return Error{Type: typ, Dat: buf, Err: err}
		}
		return v
	case btrfsprim.RootRefKey, btrfsprim.RootBackRefKey:
		var v RootRef
		if err := v.UnmarshalBinary(dat); err != nil {
			return Error{Type: typ, Dat: buf, Err: err}
		}
		return v
	case btrfsprim.ExtentItemKey:
		var v Extent
		if err := v.UnmarshalBinary(dat); err != nil {
			return Error{Type: typ, Dat: buf, Err: err}
		}
		return v
	default:
		return Untyped{Type: typ, Data: buf}
	}
}
