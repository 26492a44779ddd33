//go:build linux

package register

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
}

func mmap(devicePath string, physOffset int64, length int) ([]byte, Kind, error) {
	//nolint:gosec
	f, err := os.OpenFile(devicePath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, kindOf(err), err
	}
	// The mapping outlives the descriptor.
	defer f.Close() //nolint:errcheck

	mem, err := unix.Mmap(int(f.Fd()), physOffset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		switch {
		case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
			return nil, PermissionDenied, err
		default:
			return nil, Unsupported, err
		}
	}
	return mem, 0, nil
}

func munmap(mem []byte) error {
	return unix.Munmap(mem)
}

// asWords reinterprets a page aligned mapping as 32-bit registers.
func asWords(mem []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4)
}
