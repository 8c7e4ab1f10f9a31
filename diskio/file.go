// Package diskio provides a read-only, memory-mapped window over a
// block-device image or a regular file, plus byte-safe typed access
// into it.
package diskio

import (
	"fmt"
)

// File is the byte-addressable source that everything above it reads
// through. It is intentionally narrow: open/size/slice/close. Writers
// (repair tools) are a separate, external collaborator.
type File interface {
	Name() string
	Size() int64
	// Slice returns a read-only view of [off, off+length). The
	// returned slice aliases the mapping; it must not be retained
	// past Close.
	Slice(off int64, length int64) ([]byte, error)
	Close() error
}

// BoundsError reports a read that would straddle the end of the
// mapping. It is a programming error, not a recoverable condition.
type BoundsError struct {
	Name   string
	Offset int64
	Length int64
	Size   int64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: read [%d, %d) is out of bounds for a file of size %d",
		e.Name, e.Offset, e.Offset+e.Length, e.Size)
}
