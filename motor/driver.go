package motor

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/regmotor/bcm283x"
	"go.viam.com/regmotor/logging"
	"go.viam.com/regmotor/register"
)

// ErrDriverUsed is returned when Run is called on a driver that already ran.
var ErrDriverUsed = errors.New("motor driver has already run; create a new one")

// State is the lifecycle position of a Driver.
type State int

// Driver states. A run moves Idle, Configuring, Running, ShuttingDown and back to Idle.
const (
	Idle State = iota
	Configuring
	Running
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// An Option customizes a Driver.
type Option func(*Driver)

// WithOpener replaces the function used to map register blocks.
func WithOpener(open register.Opener) Option {
	return func(d *Driver) {
		d.open = open
	}
}

// WithClock replaces the time source used for the hold.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) {
		d.timeSource = c
	}
}

type plan struct {
	dir  Direction
	duty uint32
}

// A Driver performs a single command run against the PWM, GPIO and clock blocks.
type Driver struct {
	settings   Settings
	logger     logging.Logger
	open       register.Opener
	timeSource clock.Clock

	leftFn, rightFn bcm283x.Function
	leftCh, rightCh bcm283x.Channel

	mu     sync.Mutex
	state  State
	used   bool
	blocks []register.Block
	clk    *bcm283x.Clock
	gpio   *bcm283x.GPIO
	pwm    *bcm283x.PWM
}

// NewDriver returns an idle Driver for the given settings. Nothing is mapped until Run.
func NewDriver(settings Settings, logger logging.Logger, opts ...Option) (*Driver, error) {
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid motor settings")
	}
	d := &Driver{
		settings:   settings,
		logger:     logger,
		open:       register.OpenBlock,
		timeSource: clock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	// both lookups succeeded in Validate
	d.leftFn, d.leftCh, _ = bcm283x.PWMFunction(settings.Wiring.LeftPWM)
	d.rightFn, d.rightCh, _ = bcm283x.PWMFunction(settings.Wiring.RightPWM)
	return d, nil
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	from := d.state
	d.state = s
	d.mu.Unlock()
	d.logger.Debugw("state transition", "from", from.String(), "to", s.String())
}

// Run drives both motors at the commanded speeds for the commanded duration and
// then de-energizes them. The outputs are shut off on every path out of Run once
// any register has been written, including cancellation of ctx and panics.
func (d *Driver) Run(ctx context.Context, cmd Command) error {
	d.mu.Lock()
	if d.used {
		d.mu.Unlock()
		return ErrDriverUsed
	}
	d.used = true
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	left := d.plan(cmd.Left)
	right := d.plan(cmd.Right)

	d.setState(Configuring)
	if err := d.acquire(); err != nil {
		d.setState(Idle)
		return err
	}
	defer func() {
		d.setState(ShuttingDown)
		d.Shutdown()
		d.release()
		d.setState(Idle)
	}()

	d.configure(left, right)
	d.logger.Infow("motors running",
		"left_direction", left.dir.String(),
		"left_duty", left.duty,
		"right_direction", right.dir.String(),
		"right_duty", right.duty,
		"range", d.settings.Range,
		"pwm_frequency", d.settings.PWMFrequency().String(),
		"duration", cmd.Duration().String(),
	)

	if cmd.DurationMS == 0 {
		d.setState(Running)
		return nil
	}
	timer := d.timeSource.Timer(cmd.Duration())
	defer timer.Stop()
	d.setState(Running)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		d.logger.Infow("run interrupted", "error", ctx.Err())
		return ctx.Err()
	}
}

func (d *Driver) plan(speed float64) plan {
	dir, magnitude := Decompose(speed)
	return plan{dir: dir, duty: bcm283x.DutyFor(magnitude, d.settings.Range)}
}

// acquire maps the clock, GPIO and PWM blocks in that order. On failure the blocks
// already mapped are released untouched.
func (d *Driver) acquire() error {
	layout := d.settings.Layout
	var blocks []register.Block
	for _, req := range []struct {
		name   string
		offset int64
	}{
		{"clock", layout.Clock()},
		{"gpio", layout.GPIO()},
		{"pwm", layout.PWM()},
	} {
		b, err := d.open(d.settings.DevicePath, req.offset, bcm283x.BlockSize)
		if err != nil {
			for i := len(blocks) - 1; i >= 0; i-- {
				err = multierr.Combine(err, blocks[i].Close())
			}
			return errors.Wrapf(err, "cannot map %s registers", req.name)
		}
		d.logger.Debugw("mapped registers", "block", req.name, "offset", fmt.Sprintf("%#x", req.offset))
		blocks = append(blocks, b)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks = blocks
	d.clk = bcm283x.NewClock(blocks[0])
	d.gpio = bcm283x.NewGPIO(blocks[1])
	d.pwm = bcm283x.NewPWM(blocks[2])
	return nil
}

func (d *Driver) configure(left, right plan) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.settings.Wiring

	d.gpio.ClearOutputs(bcm283x.AllPins)
	d.gpio.SetFunction(w.LeftPWM, d.leftFn)
	d.gpio.SetFunction(w.RightPWM, d.rightFn)
	for _, p := range w.outputPins() {
		d.gpio.SetFunction(p, bcm283x.Output)
	}

	d.clk.Configure(d.settings.ClockSource, d.settings.Divisor)

	if mask := w.outputMask(left.dir, right.dir); mask != 0 {
		d.gpio.SetOutputs(mask)
	}

	d.pwm.Configure(d.leftCh, d.settings.Range)
	d.pwm.Configure(d.rightCh, d.settings.Range)
	d.pwm.SetDuty(d.leftCh, left.duty)
	d.pwm.SetDuty(d.rightCh, right.duty)
	d.pwm.Enable(d.leftCh, d.rightCh)
}

// Shutdown disables both PWM channels, zeroes their duty and drives every output
// low. It may be called any number of times; it does nothing when no registers are
// mapped.
func (d *Driver) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pwm == nil || d.gpio == nil {
		return
	}
	d.pwm.Off(bcm283x.Channel0, bcm283x.Channel1)
	d.gpio.ClearOutputs(bcm283x.AllPins)
}

func (d *Driver) release() {
	d.mu.Lock()
	blocks := d.blocks
	d.blocks = nil
	d.clk, d.gpio, d.pwm = nil, nil, nil
	d.mu.Unlock()

	var err error
	for i := len(blocks) - 1; i >= 0; i-- {
		err = multierr.Combine(err, blocks[i].Close())
	}
	if err != nil {
		d.logger.Errorw("error releasing registers", "error", err)
	}
}
