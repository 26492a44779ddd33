package register

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// A Map is a physical address range mapped into the process as an array of 32-bit
// registers. It exclusively owns the mapping until Close.
type Map struct {
	devicePath string
	physOffset int64
	length     int

	mem   []byte
	words []uint32
}

var _ = Block(&Map{})

// Open maps length bytes at physOffset of the physical-memory device at devicePath.
// physOffset must be page aligned and length a positive multiple of four.
func Open(devicePath string, physOffset int64, length int) (*Map, error) {
	fail := func(kind Kind, err error) (*Map, error) {
		return nil, &MapError{Kind: kind, Path: devicePath, Offset: physOffset, Length: length, Err: err}
	}
	if length <= 0 || length%4 != 0 {
		return fail(Unsupported, errors.Errorf("length %d is not a positive multiple of 4", length))
	}
	if physOffset < 0 || physOffset%int64(pageSize()) != 0 {
		return fail(Unsupported, errors.Errorf("offset %#x is not aligned to the %d byte page size", physOffset, pageSize()))
	}

	mem, kind, err := mmap(devicePath, physOffset, length)
	if err != nil {
		return fail(kind, err)
	}
	return &Map{
		devicePath: devicePath,
		physOffset: physOffset,
		length:     length,
		mem:        mem,
		words:      asWords(mem),
	}, nil
}

// PhysOffset returns the physical address the block was mapped from.
func (m *Map) PhysOffset() int64 {
	return m.physOffset
}

// Len returns the number of registers in the block.
func (m *Map) Len() int {
	return m.length / 4
}

// Read loads the register at offset.
func (m *Map) Read(offset Offset) uint32 {
	return atomic.LoadUint32(m.word(offset))
}

// Write stores value to the register at offset.
func (m *Map) Write(offset Offset, value uint32) {
	atomic.StoreUint32(m.word(offset), value)
}

func (m *Map) word(offset Offset) *uint32 {
	if m.words == nil {
		panic(errors.Errorf("register %s of %q at %#x accessed after close", offset, m.devicePath, m.physOffset))
	}
	if int(offset) >= len(m.words) {
		panic(errors.Errorf("register %s outside the %d byte block at %#x", offset, m.length, m.physOffset))
	}
	return &m.words[offset]
}

// Close releases the mapping. Closing an already closed Map does nothing.
func (m *Map) Close() error {
	if m.mem == nil {
		return nil
	}
	mem := m.mem
	m.mem = nil
	m.words = nil
	return munmap(mem)
}
