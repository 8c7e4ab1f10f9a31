package btrfstree

import (
	"fmt"

	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfsvol"
)

// NodeSource resolves a tree block's virtual address to its decoded
// contents. Implementations own the chunk-map lookup and checksum
// validation; the iterator only ever asks for nodes by address.
type NodeSource interface {
	ReadNode(addr btrfsvol.LogicalAddr) (*Node, error)
}

// MatchPolicy names how a search range's endpoints could behave when
// no item carries exactly that key. It is carried on SearchOption, but
// the iterator does not act on it.
type MatchPolicy int

const (
	MatchLess MatchPolicy = iota
	MatchEqual
	MatchGreater
)

// SearchOption bounds a tree walk to the closed key range
// [MinKey, MaxKey]. MinMatch/MaxMatch are accepted for API
// compatibility with callers that construct them, but this
// implementation always yields every item in the closed range
// regardless of their value. Items outside the range are never
// yielded: no last key below MinKey, and no first key above MaxKey,
// is returned when no exact endpoint match exists.
type SearchOption struct {
	MinKey   btrfsprim.Key
	MaxKey   btrfsprim.Key
	MinMatch MatchPolicy
	MaxMatch MatchPolicy
}

// ExactKey returns a SearchOption that matches exactly one key.
func ExactKey(key btrfsprim.Key) SearchOption {
	return SearchOption{MinKey: key, MaxKey: key, MinMatch: MatchEqual, MaxMatch: MatchEqual}
}

// validate checks the search-range precondition.
func (o SearchOption) validate() error {
	if o.MinKey.Compare(o.MaxKey) > 0 {
		return fmt.Errorf("btrfstree: search: min_key %v is greater than max_key %v", o.MinKey, o.MaxKey)
	}
	return nil
}
