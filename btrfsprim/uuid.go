package btrfsprim

import (
	"fmt"

	"github.com/google/uuid"
)

// UUID is an on-disk 16-byte UUID, stored and compared as raw bytes
// rather than through string parsing on every hot-path comparison.
type UUID [16]byte

// NilUUID is the all-zero UUID used as a default/absent value.
var NilUUID UUID

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// ParseUUID parses the canonical hyphenated string form.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("uuid: %w", err)
	}
	return UUID(id), nil
}

// Generation is a monotonically increasing transaction counter. Every
// superblock, chunk, and tree root carries one; the freshest
// generation wins when multiple candidates claim to be authoritative.
type Generation uint64
