// Package motor turns a two-motor speed command into the register sequence that
// drives a dual H-bridge from the BCM283x PWM and GPIO blocks.
package motor

import (
	"fmt"
	"math"
	"time"
)

// Speed limits for either motor. The sign selects direction.
const (
	MinSpeed = -1.0
	MaxSpeed = 1.0
)

// A ValidationError reports an unusable command value. It is produced before any
// hardware is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewMissingValueError reports a command value that was never supplied.
func NewMissingValueError(field string) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("No value provided for %s", field)}
}

// A Command is one open-loop run: both speeds are held for the duration, then the
// motors are de-energized.
type Command struct {
	Left       float64
	Right      float64
	DurationMS uint32
}

// NewCommand returns a validated Command.
func NewCommand(left, right float64, durationMS uint32) (Command, error) {
	cmd := Command{Left: left, Right: right, DurationMS: durationMS}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Validate ensures both speeds are within [MinSpeed, MaxSpeed].
func (c Command) Validate() error {
	if err := checkSpeed("left", c.Left); err != nil {
		return err
	}
	return checkSpeed("right", c.Right)
}

// Duration returns how long the speeds are held.
func (c Command) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

func checkSpeed(name string, speed float64) error {
	field := name + " speed"
	switch {
	case math.IsNaN(speed):
		return &ValidationError{Field: field, Message: fmt.Sprintf("Given value for %s speed is not a number", name)}
	case speed > MaxSpeed:
		return &ValidationError{Field: field, Message: fmt.Sprintf("Given value for %s speed above %.2f", name, MaxSpeed)}
	case speed < MinSpeed:
		return &ValidationError{Field: field, Message: fmt.Sprintf("Given value for %s speed below %.2f", name, MinSpeed)}
	default:
		return nil
	}
}
