package bcm283x

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"

	"go.viam.com/regmotor/register"
)

// Every clock manager write must carry the password in bits 31:24 or it is ignored.
const clockPasswd uint32 = 0x5A << 24

const (
	clockEnable   uint32 = 1 << 4
	clockDiviShift       = 12
	clockDivMax   uint32 = 1<<12 - 1
)

// A ClockSource selects the input of a clock generator.
type ClockSource uint32

// Clock sources usable for PWM.
const (
	SourceGND        ClockSource = 0
	SourceOscillator ClockSource = 1
	SourcePLLD       ClockSource = 6
)

// Frequency returns the nominal input frequency of the source.
func (s ClockSource) Frequency() physic.Frequency {
	switch s {
	case SourceOscillator:
		return 19200 * physic.KiloHertz
	case SourcePLLD:
		return 500 * physic.MegaHertz
	default:
		return 0
	}
}

func (s ClockSource) String() string {
	switch s {
	case SourceGND:
		return "GND"
	case SourceOscillator:
		return "oscillator"
	case SourcePLLD:
		return "PLLD"
	default:
		return fmt.Sprintf("ClockSource(%d)", uint32(s))
	}
}

// A Divisor is the 12.12 fixed point divisor of a clock generator.
type Divisor struct {
	Integer  uint32
	Fraction uint32
}

// Validate ensures the divisor fits the register fields.
func (d Divisor) Validate() error {
	if d.Integer < 1 || d.Integer > clockDivMax {
		return errors.Errorf("integer divisor %d must be between 1 and %d", d.Integer, clockDivMax)
	}
	if d.Fraction > clockDivMax {
		return errors.Errorf("fractional divisor %d must be at most %d", d.Fraction, clockDivMax)
	}
	return nil
}

func (d Divisor) word() uint32 {
	return clockPasswd | (d.Integer&clockDivMax)<<clockDiviShift | d.Fraction&clockDivMax
}

// Output returns the frequency produced from the source by this divisor.
func (d Divisor) Output(src ClockSource) physic.Frequency {
	div := float64(d.Integer) + float64(d.Fraction)/float64(clockDivMax+1)
	if div == 0 {
		return 0
	}
	return physic.Frequency(float64(src.Frequency()) / div)
}

// Clock configures the clock generator that feeds the PWM block.
type Clock struct {
	regs register.Accessor
}

// NewClock returns a Clock over the mapped clock manager block.
func NewClock(regs register.Accessor) *Clock {
	return &Clock{regs: regs}
}

// Configure parks the PWM clock, loads the divisor and restarts it from src.
// The divisor must not change while the generator runs, so the order is fixed.
// There is no busy-flag handshake.
func (c *Clock) Configure(src ClockSource, div Divisor) {
	c.regs.Write(CMPWMCTL, clockPasswd|uint32(src))
	c.regs.Write(CMPWMDIV, div.word())
	c.regs.Write(CMPWMCTL, clockPasswd|clockEnable|uint32(src))
}
