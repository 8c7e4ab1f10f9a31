// Package btrfssum implements the checksum algorithms used to
// validate superblocks, tree nodes, and data extents.
package btrfssum

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// CSum is a checksum value. Only the first CSumType.Size() bytes are
// meaningful; the rest is padding to the widest supported algorithm.
type CSum [32]byte

var (
	_ fmt.Stringer             = CSum{}
	_ encoding.TextMarshaler   = CSum{}
	_ encoding.TextUnmarshaler = (*CSum)(nil)
)

func (csum CSum) String() string {
	return hex.EncodeToString(csum[:])
}

func (csum CSum) MarshalText() ([]byte, error) {
	var ret [len(csum) * 2]byte
	hex.Encode(ret[:], csum[:])
	return ret[:], nil
}

func (csum *CSum) UnmarshalText(text []byte) error {
	*csum = CSum{}
	_, err := hex.Decode(csum[:], text)
	return err
}

// Fmt renders only the bytes that matter for typ.
func (csum CSum) Fmt(typ CSumType) string {
	return hex.EncodeToString(csum[:typ.Size()])
}

// CSumType identifies one of the four algorithms a filesystem may be
// formatted with. Only one is used for an entire filesystem; it is
// recorded in the superblock.
type CSumType uint16

const (
	TypeCRC32 = CSumType(iota)
	TypeXXHash
	TypeSHA256
	TypeBlake2
)

func (typ CSumType) String() string {
	names := map[CSumType]string{
		TypeCRC32:  "crc32c",
		TypeXXHash: "xxhash64",
		TypeSHA256: "sha256",
		TypeBlake2: "blake2",
	}
	if name, ok := names[typ]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint16(typ))
}

// Supported reports whether typ is one of the four algorithms this
// package knows how to compute.
func (typ CSumType) Supported() bool {
	switch typ {
	case TypeCRC32, TypeXXHash, TypeSHA256, TypeBlake2:
		return true
	default:
		return false
	}
}

// Size returns the number of meaningful bytes typ writes into a CSum.
func (typ CSumType) Size() int {
	sizes := map[CSumType]int{
		TypeCRC32:  4,
		TypeXXHash: 8,
		TypeSHA256: 32,
		TypeBlake2: 32,
	}
	if size, ok := sizes[typ]; ok {
		return size
	}
	return len(CSum{})
}

// Sum hashes data under typ.
func (typ CSumType) Sum(data []byte) (CSum, error) {
	switch typ {
	case TypeCRC32:
		crc := crc32.Update(0, crc32.MakeTable(crc32.Castagnoli), data)
		var ret CSum
		binary.LittleEndian.PutUint32(ret[:], crc)
		return ret, nil
	case TypeXXHash:
		sum := xxhash.Sum64(data)
		var ret CSum
		binary.LittleEndian.PutUint64(ret[:], sum)
		return ret, nil
	case TypeSHA256:
		sum := sha256.Sum256(data)
		var ret CSum
		copy(ret[:], sum[:])
		return ret, nil
	case TypeBlake2:
		sum := blake2b.Sum256(data)
		var ret CSum
		copy(ret[:], sum[:])
		return ret, nil
	default:
		return CSum{}, fmt.Errorf("unknown checksum type: %v", uint16(typ))
	}
}
