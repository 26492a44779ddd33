package bcm283x

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/regmotor/register"
)

// A Pin is a BCM GPIO number.
type Pin uint8

// MaxPin is the highest pin reachable through GPFSEL0..2.
const MaxPin Pin = 29

// AllPins addresses every output of bank 0 in a set or clear write.
const AllPins uint32 = 0xFFFFFFFF

// Mask returns the set/clear bit pattern addressing the given pins.
func Mask(pins ...Pin) uint32 {
	return lo.Reduce(pins, func(mask uint32, p Pin, _ int) uint32 {
		return mask | 1<<p
	}, 0)
}

// A Function is the 3-bit function select field of a pin.
type Function uint32

// Pin functions. The alternate function codes are not in numeric order.
const (
	Input  Function = 0b000
	Output Function = 0b001
	Alt0   Function = 0b100
	Alt1   Function = 0b101
	Alt2   Function = 0b110
	Alt3   Function = 0b111
	Alt4   Function = 0b011
	Alt5   Function = 0b010
)

func (f Function) String() string {
	switch f {
	case Input:
		return "in"
	case Output:
		return "out"
	case Alt0:
		return "alt0"
	case Alt1:
		return "alt1"
	case Alt2:
		return "alt2"
	case Alt3:
		return "alt3"
	case Alt4:
		return "alt4"
	case Alt5:
		return "alt5"
	default:
		return fmt.Sprintf("Function(%d)", uint32(f))
	}
}

// PWMFunction returns the alternate function that routes a PWM channel to pin, and
// which channel it is.
func PWMFunction(pin Pin) (Function, Channel, error) {
	switch pin {
	case 12:
		return Alt0, Channel0, nil
	case 13:
		return Alt0, Channel1, nil
	case 18:
		return Alt5, Channel0, nil
	case 19:
		return Alt5, Channel1, nil
	default:
		return 0, Channel{}, errors.Errorf("gpio %d has no PWM function", pin)
	}
}

// GPIO sets pin functions and drives output levels.
type GPIO struct {
	regs register.Accessor
}

// NewGPIO returns a GPIO over the mapped GPIO block.
func NewGPIO(regs register.Accessor) *GPIO {
	return &GPIO{regs: regs}
}

// SetFunction rewrites the 3-bit function field of pin, leaving the other nine
// pins sharing its select word untouched.
func (g *GPIO) SetFunction(pin Pin, fn Function) {
	if pin > MaxPin {
		panic(errors.Errorf("gpio %d is outside the function select range", pin))
	}
	reg := GPFSEL0 + register.Offset(pin/10)
	shift := uint32(pin%10) * 3
	v := g.regs.Read(reg)
	v = v&^(0b111<<shift) | uint32(fn)<<shift
	g.regs.Write(reg, v)
}

// SetOutputs drives every pin in mask high. Pins outside mask are unaffected.
func (g *GPIO) SetOutputs(mask uint32) {
	g.regs.Write(GPSET0, mask)
}

// ClearOutputs drives every pin in mask low. Pins outside mask are unaffected.
func (g *GPIO) ClearOutputs(mask uint32) {
	g.regs.Write(GPCLR0, mask)
}

// Levels returns the current level of bank 0.
func (g *GPIO) Levels() uint32 {
	return g.regs.Read(GPLEV0)
}
