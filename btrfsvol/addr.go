// Package btrfsvol implements the virtual-to-physical address space:
// logical and physical addresses, device identifiers, and the chunk
// layout types that relate them.
package btrfsvol

import "fmt"

type (
	// PhysicalAddr is a byte offset within a single block device.
	PhysicalAddr int64
	// LogicalAddr is a byte offset in the filesystem-wide virtual
	// address space that chunks map onto physical storage.
	LogicalAddr int64
	// AddrDelta is the signed difference between two addresses of
	// the same kind.
	AddrDelta int64
)

func (a PhysicalAddr) String() string { return fmt.Sprintf("%#016x", int64(a)) }
func (a LogicalAddr) String() string  { return fmt.Sprintf("%#016x", int64(a)) }
func (d AddrDelta) String() string    { return fmt.Sprintf("%#016x", int64(d)) }

func (a PhysicalAddr) Sub(b PhysicalAddr) AddrDelta { return AddrDelta(a - b) }
func (a LogicalAddr) Sub(b LogicalAddr) AddrDelta   { return AddrDelta(a - b) }

func (a PhysicalAddr) Add(b AddrDelta) PhysicalAddr { return a + PhysicalAddr(b) }
func (a LogicalAddr) Add(b AddrDelta) LogicalAddr   { return a + LogicalAddr(b) }

// DeviceID identifies one member device of a multi-device filesystem.
type DeviceID uint64

// QualifiedPhysicalAddr is a physical address paired with the device
// it lives on; a logical address may map to one or more of these
// depending on the owning chunk's profile.
type QualifiedPhysicalAddr struct {
	Dev  DeviceID
	Addr PhysicalAddr
}

func (a QualifiedPhysicalAddr) Add(b AddrDelta) QualifiedPhysicalAddr {
	return QualifiedPhysicalAddr{Dev: a.Dev, Addr: a.Addr.Add(b)}
}

func (a QualifiedPhysicalAddr) Cmp(b QualifiedPhysicalAddr) int {
	if d := int(a.Dev) - int(b.Dev); d != 0 {
		return d
	}
	return int(a.Addr - b.Addr)
}
