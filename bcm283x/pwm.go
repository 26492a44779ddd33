package bcm283x

import (
	"math"

	"go.viam.com/regmotor/register"
)

// PWMCTL enable bits. MSEN selects mark-space output so the duty cycle is a
// single pulse of DAT clocks every RNG clocks.
const (
	ctlPWEN1 uint32 = 1 << 0
	ctlMSEN1 uint32 = 1 << 7
	ctlPWEN2 uint32 = 1 << 8
	ctlMSEN2 uint32 = 1 << 15
)

// DefaultRange is the duty cycle resolution, 0.1% per step.
const DefaultRange uint32 = 1000

// A Channel is the register pair and enable bits of one PWM output.
type Channel struct {
	Name   string
	Range  register.Offset
	Data   register.Offset
	enable uint32
}

// The two PWM channels.
var (
	Channel0 = Channel{Name: "pwm0", Range: PWMRNG1, Data: PWMDAT1, enable: ctlPWEN1 | ctlMSEN1}
	Channel1 = Channel{Name: "pwm1", Range: PWMRNG2, Data: PWMDAT2, enable: ctlPWEN2 | ctlMSEN2}
)

// DutyFor maps a speed to the data register value for rng: round(|speed| * rng),
// held within [0, rng].
func DutyFor(speed float64, rng uint32) uint32 {
	magnitude := math.Abs(speed)
	switch {
	case math.IsNaN(magnitude), magnitude <= 0:
		return 0
	case magnitude >= 1:
		return rng
	default:
		return uint32(math.Round(magnitude * float64(rng)))
	}
}

// PWM sets duty cycles and enables the PWM channels.
type PWM struct {
	regs register.Accessor
}

// NewPWM returns a PWM over the mapped PWM block.
func NewPWM(regs register.Accessor) *PWM {
	return &PWM{regs: regs}
}

// Configure sets the duty cycle denominator of ch.
func (p *PWM) Configure(ch Channel, rng uint32) {
	p.regs.Write(ch.Range, rng)
}

// SetDuty sets the duty cycle numerator of ch. The realized ratio is data/range.
func (p *PWM) SetDuty(ch Channel, data uint32) {
	p.regs.Write(ch.Data, data)
}

// Enable turns on exactly the given channels; any other channel is turned off.
func (p *PWM) Enable(chs ...Channel) {
	var ctl uint32
	for _, ch := range chs {
		ctl |= ch.enable
	}
	p.regs.Write(PWMCTL, ctl)
}

// Disable turns off every channel.
func (p *PWM) Disable() {
	p.regs.Write(PWMCTL, 0)
}

// Off disables every channel, then zeroes the data register of each given channel
// so nothing resumes if the block is enabled again.
func (p *PWM) Off(chs ...Channel) {
	p.Disable()
	for _, ch := range chs {
		p.SetDuty(ch, 0)
	}
}

// Enabled reports whether ch is currently enabled.
func (p *PWM) Enabled(ch Channel) bool {
	return p.regs.Read(PWMCTL)&ch.enable != 0
}
