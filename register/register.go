// Package register maps physical peripheral register blocks into the process and
// exposes them as ordered, non-elided 32-bit word accessors.
//
// All unsafe pointer handling lives in this package. Callers only ever see an
// Accessor, which addresses registers by their word offset inside the block.
package register

import (
	"fmt"
	"io"
)

// An Offset is the index of a 32-bit register inside a mapped block, counted in
// words rather than bytes.
type Offset uint32

// Bytes returns the byte offset of the register from the start of its block.
func (o Offset) Bytes() int {
	return int(o) * 4
}

func (o Offset) String() string {
	return fmt.Sprintf("word %d (+%#x)", uint32(o), o.Bytes())
}

// An Accessor issues volatile reads and writes against a block of registers.
//
// Every call reaches the hardware exactly once and in program order. A Write is an
// action with side effects, not a value store, and consecutive Reads of the same
// offset may legitimately return different values.
type Accessor interface {
	Read(offset Offset) uint32
	Write(offset Offset, value uint32)
}

// A Block is an Accessor that owns a mapping and must be released with Close.
type Block interface {
	Accessor
	io.Closer
}

// An Opener acquires a Block of length bytes at the physical offset exposed by the
// given device. Open is the production implementation.
type Opener func(devicePath string, physOffset int64, length int) (Block, error)

// OpenBlock is Open returning the Block interface, for use as an Opener.
func OpenBlock(devicePath string, physOffset int64, length int) (Block, error) {
	m, err := Open(devicePath, physOffset, length)
	if err != nil {
		return nil, err
	}
	return m, nil
}
