package motor

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"periph.io/x/conn/v3/physic"

	"go.viam.com/regmotor/bcm283x"
)

// DefaultDevicePath is the physical-memory device the register blocks are mapped from.
const DefaultDevicePath = "/dev/mem"

// Wiring is the GPIO assignment of the dual H-bridge driver.
type Wiring struct {
	LeftPWM       bcm283x.Pin
	RightPWM      bcm283x.Pin
	LeftForward   bcm283x.Pin
	LeftBackward  bcm283x.Pin
	RightForward  bcm283x.Pin
	RightBackward bcm283x.Pin
	Standby       bcm283x.Pin
}

// DefaultWiring matches the usual TB6612FNG hookup on a 40-pin header.
func DefaultWiring() Wiring {
	return Wiring{
		LeftPWM:       12,
		RightPWM:      13,
		LeftForward:   23,
		LeftBackward:  24,
		RightForward:  17,
		RightBackward: 27,
		Standby:       22,
	}
}

// Validate ensures every pin is addressable, the PWM pins reach both channels, and
// no pin is used twice.
func (w Wiring) Validate() error {
	all := []bcm283x.Pin{w.LeftPWM, w.RightPWM, w.LeftForward, w.LeftBackward, w.RightForward, w.RightBackward, w.Standby}
	for _, p := range all {
		if p > bcm283x.MaxPin {
			return errors.Errorf("gpio %d is above the highest supported pin %d", p, bcm283x.MaxPin)
		}
	}
	if dups := lo.FindDuplicates(all); len(dups) != 0 {
		return errors.Errorf("gpio %v assigned more than once", dups)
	}
	_, left, err := bcm283x.PWMFunction(w.LeftPWM)
	if err != nil {
		return errors.Wrap(err, "left pwm pin")
	}
	_, right, err := bcm283x.PWMFunction(w.RightPWM)
	if err != nil {
		return errors.Wrap(err, "right pwm pin")
	}
	if left == right {
		return errors.Errorf("gpio %d and %d are both routed to %s", w.LeftPWM, w.RightPWM, left.Name)
	}
	return nil
}

// outputPins are the pins switched to plain output: four direction pins and standby.
func (w Wiring) outputPins() []bcm283x.Pin {
	return []bcm283x.Pin{w.LeftForward, w.LeftBackward, w.RightForward, w.RightBackward, w.Standby}
}

// outputMask returns the single set-register pattern for the two directions. Standby
// is included only when at least one motor moves.
func (w Wiring) outputMask(left, right Direction) uint32 {
	var pins []bcm283x.Pin
	switch left {
	case Forward:
		pins = append(pins, w.LeftForward)
	case Backward:
		pins = append(pins, w.LeftBackward)
	case Stopped:
	}
	switch right {
	case Forward:
		pins = append(pins, w.RightForward)
	case Backward:
		pins = append(pins, w.RightBackward)
	case Stopped:
	}
	if len(pins) != 0 {
		pins = append(pins, w.Standby)
	}
	return bcm283x.Mask(pins...)
}

// Settings are the fixed hardware parameters of a Driver.
type Settings struct {
	DevicePath  string
	Layout      bcm283x.Layout
	Wiring      Wiring
	Range       uint32
	ClockSource bcm283x.ClockSource
	Divisor     bcm283x.Divisor
}

// DefaultSettings drives the default wiring at 9.6kHz with 0.1% duty resolution.
func DefaultSettings() Settings {
	return Settings{
		DevicePath:  DefaultDevicePath,
		Layout:      bcm283x.DefaultLayout(),
		Wiring:      DefaultWiring(),
		Range:       bcm283x.DefaultRange,
		ClockSource: bcm283x.SourceOscillator,
		Divisor:     bcm283x.Divisor{Integer: 2},
	}
}

// Validate ensures the settings can be written to the hardware.
func (s Settings) Validate() error {
	if s.DevicePath == "" {
		return errors.New("device path is required")
	}
	if s.Range == 0 {
		return errors.New("pwm range must be positive")
	}
	if s.ClockSource.Frequency() == 0 {
		return errors.Errorf("clock source %s does not run", s.ClockSource)
	}
	if err := s.Divisor.Validate(); err != nil {
		return err
	}
	return s.Wiring.Validate()
}

// PWMFrequency returns the resulting PWM period frequency.
func (s Settings) PWMFrequency() physic.Frequency {
	if s.Range == 0 {
		return 0
	}
	return s.Divisor.Output(s.ClockSource) / physic.Frequency(s.Range)
}
