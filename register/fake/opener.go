package fake

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/regmotor/register"
)

// An Opener hands out fake blocks in place of register.Open.
type Opener struct {
	// Prepare returns the block to hand out for physOffset, or an error to fail the
	// request. When nil every request gets an empty block.
	Prepare func(physOffset int64) (*Block, error)

	mu       sync.Mutex
	requests []int64
	blocks   map[int64]*Block
}

// Open records the request and returns the prepared block.
func (o *Opener) Open(devicePath string, physOffset int64, length int) (register.Block, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, physOffset)

	var b *Block
	if o.Prepare != nil {
		var err error
		if b, err = o.Prepare(physOffset); err != nil {
			return nil, err
		}
	}
	if b == nil {
		b = NewBlock(devicePath, nil)
	}
	if o.blocks == nil {
		o.blocks = map[int64]*Block{}
	}
	if _, ok := o.blocks[physOffset]; ok {
		return nil, errors.Errorf("block at %#x already open", physOffset)
	}
	o.blocks[physOffset] = b
	return b, nil
}

// Requests returns the physical offsets requested so far, in order.
func (o *Opener) Requests() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int64(nil), o.requests...)
}

// Block returns the block handed out for physOffset, or nil.
func (o *Opener) Block(physOffset int64) *Block {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.blocks[physOffset]
}
