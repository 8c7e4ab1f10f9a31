package diskio

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// MappedFile is a read-only mmap(2) window over a regular file or a
// block device. It satisfies File.
type MappedFile struct {
	f    *os.File
	name string
	size int64
	mmap mmap.MMap
}

var _ File = (*MappedFile)(nil)

// blkGetSize64 is Linux's BLKGETSIZE64 ioctl request number; it
// returns the byte size of a block device, which os.File.Stat cannot.
const blkGetSize64 = 0x80081272

// Open maps path read-only. For a regular file the length is the
// file's size; for a block device, the kernel is probed via the
// BLKGETSIZE64 ioctl since Stat does not report block-device length.
func Open(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoFailureError{Op: "open", Path: path, Err: err}
	}

	size, err := probeSize(f)
	if err != nil {
		f.Close()
		return nil, &IoFailureError{Op: "probe length of", Path: path, Err: err}
	}
	if size == 0 {
		f.Close()
		return nil, &IoFailureError{Op: "probe length of", Path: path, Err: fmt.Errorf("zero-length device")}
	}

	m, err := mmap.MapRegion(f, int(size), mmap.RDONLY, 0, 0)
	if err != nil {
		f.Close()
		return nil, &IoFailureError{Op: "mmap", Path: path, Err: err}
	}

	return &MappedFile{f: f, name: path, size: size, mmap: m}, nil
}

func probeSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if fi.Mode().IsRegular() {
		return fi.Size(), nil
	}
	// Block device: Stat().Size() is usually 0; ask the kernel.
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), blkGetSize64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}

func (m *MappedFile) Name() string { return m.name }
func (m *MappedFile) Size() int64  { return m.size }

func (m *MappedFile) Slice(off, length int64) ([]byte, error) {
	if off < 0 || length < 0 || off+length > m.size {
		return nil, &BoundsError{Name: m.name, Offset: off, Length: length, Size: m.size}
	}
	return m.mmap[off : off+length], nil
}

func (m *MappedFile) Close() error {
	if err := m.mmap.Unmap(); err != nil {
		return err
	}
	return m.f.Close()
}

// IoFailureError wraps an open/probe/map failure for one device path.
type IoFailureError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoFailureError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoFailureError) Unwrap() error { return e.Err }
