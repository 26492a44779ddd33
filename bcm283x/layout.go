// Package bcm283x drives the clock manager, GPIO and PWM register blocks of the
// Broadcom SoCs used on Raspberry Pi boards.
//
// Every offset and bit pattern here is a fixed hardware constant. Nothing in this
// package is derived from user input apart from pin numbers, which are validated by
// the caller before any block is mapped.
package bcm283x

import (
	"strings"

	"github.com/pkg/errors"
	"periph.io/x/host/v3/distro"

	"go.viam.com/regmotor/register"
)

// BlockSize is the size of each mapped peripheral window: one page.
const BlockSize = 4096

// Physical peripheral base addresses as seen from the ARM cores.
const (
	PeripheralBaseBCM2835 uint64 = 0x20000000 // Pi 1, Zero, CM1
	PeripheralBaseBCM2836 uint64 = 0x3F000000 // Pi 2, Pi 3, Zero 2, CM3
	PeripheralBaseBCM2711 uint64 = 0xFE000000 // Pi 4, Pi 400, CM4
)

// Offsets of the register blocks from the peripheral base.
const (
	clockBlockOffset uint64 = 0x101000
	gpioBlockOffset  uint64 = 0x200000
	pwmBlockOffset   uint64 = 0x20C000
)

// Clock manager registers for the PWM clock.
const (
	CMPWMCTL register.Offset = 160
	CMPWMDIV register.Offset = 161
)

// GPIO registers. Function select words 0..2 cover pins 0..29.
const (
	GPFSEL0 register.Offset = 0
	GPFSEL1 register.Offset = 1
	GPFSEL2 register.Offset = 2
	GPSET0  register.Offset = 7
	GPCLR0  register.Offset = 10
	GPLEV0  register.Offset = 13
)

// PWM registers.
const (
	PWMCTL  register.Offset = 0
	PWMRNG1 register.Offset = 4
	PWMDAT1 register.Offset = 5
	PWMRNG2 register.Offset = 8
	PWMDAT2 register.Offset = 9
)

// A Layout locates the three register blocks in physical memory.
type Layout struct {
	PeripheralBase uint64
}

// DefaultLayout is the layout of the BCM2836/7 found on the Pi 2 and Pi 3.
func DefaultLayout() Layout {
	return Layout{PeripheralBase: PeripheralBaseBCM2836}
}

// Clock returns the physical address of the clock manager block.
func (l Layout) Clock() int64 {
	return int64(l.PeripheralBase + clockBlockOffset)
}

// GPIO returns the physical address of the GPIO block.
func (l Layout) GPIO() int64 {
	return int64(l.PeripheralBase + gpioBlockOffset)
}

// PWM returns the physical address of the PWM block.
func (l Layout) PWM() int64 {
	return int64(l.PeripheralBase + pwmBlockOffset)
}

// PeripheralBaseForModel returns the peripheral base for a device tree model string
// such as "Raspberry Pi 3 Model B Rev 1.2".
func PeripheralBaseForModel(model string) (uint64, error) {
	m := strings.ToLower(strings.TrimRight(model, "\x00\n "))
	switch {
	case !strings.Contains(m, "raspberry pi"):
		return 0, errors.Errorf("%q is not a Raspberry Pi", model)
	case strings.Contains(m, "raspberry pi 5"), strings.Contains(m, "compute module 5"):
		return 0, errors.Errorf("%q routes GPIO and PWM through the RP1 and is not supported", model)
	case strings.Contains(m, "raspberry pi 4"), strings.Contains(m, "raspberry pi 400"),
		strings.Contains(m, "compute module 4"):
		return PeripheralBaseBCM2711, nil
	case strings.Contains(m, "raspberry pi 2"), strings.Contains(m, "raspberry pi 3"),
		strings.Contains(m, "zero 2"), strings.Contains(m, "compute module 3"):
		return PeripheralBaseBCM2836, nil
	default:
		return PeripheralBaseBCM2835, nil
	}
}

// DetectLayout builds a Layout for the board this process runs on.
func DetectLayout() (Layout, error) {
	base, err := PeripheralBaseForModel(distro.DTModel())
	if err != nil {
		return Layout{}, errors.Wrap(err, "cannot detect peripheral base")
	}
	return Layout{PeripheralBase: base}, nil
}
