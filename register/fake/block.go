// Package fake implements in-memory register blocks that record every write.
package fake

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/regmotor/logging"
	"go.viam.com/regmotor/register"
)

// A Write is one recorded register write.
type Write struct {
	Block  string
	Offset register.Offset
	Value  uint32
}

func (w Write) String() string {
	return fmt.Sprintf("%s[%d] <- %#08x", w.Block, uint32(w.Offset), w.Value)
}

// A Journal records writes across several blocks in the order they were issued.
type Journal struct {
	mu     sync.Mutex
	writes []Write
}

func (j *Journal) record(w Write) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.writes = append(j.writes, w)
}

// Writes returns a copy of everything recorded so far.
func (j *Journal) Writes() []Write {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Write(nil), j.writes...)
}

// WritesTo returns the recorded writes to the named block.
func (j *Journal) WritesTo(block string) []Write {
	var out []Write
	for _, w := range j.Writes() {
		if w.Block == block {
			out = append(out, w)
		}
	}
	return out
}

// Reset discards the recorded writes.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.writes = nil
}

// levelModel mirrors write-1-to-set / write-1-to-clear registers into a level register.
type levelModel struct {
	set, clear, level register.Offset
}

// A Block is a fake register.Block. Reads return the last value written unless the
// block models GPIO output levels.
type Block struct {
	Name   string
	Logger logging.Logger

	journal *Journal
	levels  *levelModel

	mu     sync.Mutex
	regs   map[register.Offset]uint32
	closed bool
}

var _ = register.Block(&Block{})

// NewBlock returns an empty block that records into journal, which may be nil.
func NewBlock(name string, journal *Journal) *Block {
	return &Block{Name: name, journal: journal, regs: map[register.Offset]uint32{}}
}

// NewGPIOBlock returns a block where writes to set and clear update the level register.
func NewGPIOBlock(name string, journal *Journal, set, clear, level register.Offset) *Block {
	b := NewBlock(name, journal)
	b.levels = &levelModel{set: set, clear: clear, level: level}
	return b
}

// Read returns the current value of the register at offset.
func (b *Block) Read(offset register.Offset) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen(offset)
	return b.regs[offset]
}

// Write stores value at offset and records it.
func (b *Block) Write(offset register.Offset, value uint32) {
	b.mu.Lock()
	b.mustBeOpen(offset)
	switch {
	case b.levels != nil && offset == b.levels.set:
		b.regs[b.levels.level] |= value
	case b.levels != nil && offset == b.levels.clear:
		b.regs[b.levels.level] &^= value
	default:
		b.regs[offset] = value
	}
	b.mu.Unlock()

	w := Write{Block: b.Name, Offset: offset, Value: value}
	if b.journal != nil {
		b.journal.record(w)
	}
	if b.Logger != nil {
		b.Logger.Debugw("register write", "block", b.Name, "offset", uint32(offset), "value", fmt.Sprintf("%#08x", value))
	}
}

// Value is Read without the closed check, for inspecting state after a run.
func (b *Block) Value(offset register.Offset) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[offset]
}

// Set presets a register without recording a write.
func (b *Block) Set(offset register.Offset, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[offset] = value
}

// Close marks the block released. Further access panics like a real unmapped block.
func (b *Block) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Block) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Block) mustBeOpen(offset register.Offset) {
	if b.closed {
		panic(errors.Errorf("fake block %s: register %s accessed after close", b.Name, offset))
	}
}
