//go:build !linux

package register

import (
	"os"

	"github.com/pkg/errors"
)

func pageSize() int {
	return os.Getpagesize()
}

func mmap(devicePath string, physOffset int64, length int) ([]byte, Kind, error) {
	return nil, Unsupported, errors.New("physical memory mapping is only implemented on linux")
}

func munmap(mem []byte) error {
	return nil
}

func asWords(mem []byte) []uint32 {
	return nil
}
