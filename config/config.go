// Package config describes the hardware settings of the motor driver as read from a
// JSON file.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	"go.viam.com/regmotor/bcm283x"
	"go.viam.com/regmotor/motor"
)

// AutoDetect as the peripheral base selects the base from the board model.
const AutoDetect uint64 = 0

// Pins is the BCM GPIO wiring of the H-bridge.
type Pins struct {
	LeftPWM       uint8 `json:"left_pwm"`
	RightPWM      uint8 `json:"right_pwm"`
	LeftForward   uint8 `json:"left_forward"`
	LeftBackward  uint8 `json:"left_backward"`
	RightForward  uint8 `json:"right_forward"`
	RightBackward uint8 `json:"right_backward"`
	Standby       uint8 `json:"standby"`
}

// ClockDivisor is the 12.12 fixed point PWM clock divisor.
type ClockDivisor struct {
	Integer  uint32 `json:"integer"`
	Fraction uint32 `json:"fraction"`
}

// A Config describes how the driver reaches the hardware.
type Config struct {
	Device string `json:"device"`
	// PeripheralBase accepts a number, a hex string or "auto".
	PeripheralBase uint64       `json:"peripheral_base"`
	Pins           Pins         `json:"pins"`
	PWMRange       uint32       `json:"pwm_range"`
	ClockDivisor   ClockDivisor `json:"clock_divisor"`
	LogFile        string       `json:"log_file"`

	ConfigFilePath string `json:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	s := motor.DefaultSettings()
	w := s.Wiring
	return &Config{
		Device:         s.DevicePath,
		PeripheralBase: s.Layout.PeripheralBase,
		Pins: Pins{
			LeftPWM:       uint8(w.LeftPWM),
			RightPWM:      uint8(w.RightPWM),
			LeftForward:   uint8(w.LeftForward),
			LeftBackward:  uint8(w.LeftBackward),
			RightForward:  uint8(w.RightForward),
			RightBackward: uint8(w.RightBackward),
			Standby:       uint8(w.Standby),
		},
		PWMRange:     s.Range,
		ClockDivisor: ClockDivisor{Integer: s.Divisor.Integer, Fraction: s.Divisor.Fraction},
	}
}

var knownBases = []uint64{
	AutoDetect,
	bcm283x.PeripheralBaseBCM2835,
	bcm283x.PeripheralBaseBCM2836,
	bcm283x.PeripheralBaseBCM2711,
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.Device == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "device")
	}
	if !lo.Contains(knownBases, c.PeripheralBase) {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown peripheral base %#x", c.PeripheralBase))
	}
	if err := c.Pins.Validate(fmt.Sprintf("%s.%s", path, "pins")); err != nil {
		return err
	}
	if c.PWMRange == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "pwm_range")
	}
	if err := c.divisor().Validate(); err != nil {
		return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "clock_divisor"), err)
	}
	return nil
}

// Validate ensures the pins can drive the bridge.
func (p *Pins) Validate(path string) error {
	if err := p.wiring().Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

func (p *Pins) wiring() motor.Wiring {
	return motor.Wiring{
		LeftPWM:       bcm283x.Pin(p.LeftPWM),
		RightPWM:      bcm283x.Pin(p.RightPWM),
		LeftForward:   bcm283x.Pin(p.LeftForward),
		LeftBackward:  bcm283x.Pin(p.LeftBackward),
		RightForward:  bcm283x.Pin(p.RightForward),
		RightBackward: bcm283x.Pin(p.RightBackward),
		Standby:       bcm283x.Pin(p.Standby),
	}
}

func (c *Config) divisor() bcm283x.Divisor {
	return bcm283x.Divisor{Integer: c.ClockDivisor.Integer, Fraction: c.ClockDivisor.Fraction}
}

// detectLayout is swapped out in tests.
var detectLayout = bcm283x.DetectLayout

// Settings converts the config into driver settings, detecting the board when the
// peripheral base is AutoDetect.
func (c *Config) Settings() (motor.Settings, error) {
	layout := bcm283x.Layout{PeripheralBase: c.PeripheralBase}
	if c.PeripheralBase == AutoDetect {
		var err error
		if layout, err = detectLayout(); err != nil {
			return motor.Settings{}, errors.Wrap(err, "set peripheral_base in the config")
		}
	}
	return motor.Settings{
		DevicePath:  c.Device,
		Layout:      layout,
		Wiring:      c.Pins.wiring(),
		Range:       c.PWMRange,
		ClockSource: bcm283x.SourceOscillator,
		Divisor:     c.divisor(),
	}, nil
}
