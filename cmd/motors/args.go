package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/regmotor/motor"
)

// keywordArgs holds the values given as "left <v> right <v> time <ms>".
type keywordArgs struct {
	left  *float64
	right *float64
	time  *uint32
	help  bool
}

// parseKeywordArgs reads keyword/value pairs in any order. Words that are not
// keywords are skipped. A later value for the same keyword replaces an earlier one.
func parseKeywordArgs(args []string) (keywordArgs, error) {
	var parsed keywordArgs
	for i := 0; i < len(args); i++ {
		word := args[i]
		switch word {
		case "-h", "--help":
			parsed.help = true
			continue
		case "left", "right", "time":
		default:
			continue
		}
		if i+1 >= len(args) {
			return keywordArgs{}, motor.NewMissingValueError(keywordField(word))
		}
		i++
		value := args[i]

		if word == "time" {
			ms, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return keywordArgs{}, errors.Wrapf(err, "invalid value %q for time", value)
			}
			t := uint32(ms)
			parsed.time = &t
			continue
		}
		speed, err := cast.ToFloat64E(value)
		if err != nil {
			return keywordArgs{}, errors.Wrapf(err, "invalid value %q for %s", value, keywordField(word))
		}
		if word == "left" {
			parsed.left = &speed
		} else {
			parsed.right = &speed
		}
	}
	return parsed, nil
}

func keywordField(word string) string {
	if word == "time" {
		return word
	}
	return word + " speed"
}

// command builds the validated command. Values missing from both the keywords and
// the flags are reported in left, right, time order.
func (k keywordArgs) command(flags flagValues) (motor.Command, error) {
	left, right, ms := k.left, k.right, k.time
	if left == nil {
		left = flags.left
	}
	if right == nil {
		right = flags.right
	}
	if ms == nil {
		ms = flags.time
	}
	switch {
	case left == nil:
		return motor.Command{}, motor.NewMissingValueError("left speed")
	case right == nil:
		return motor.Command{}, motor.NewMissingValueError("right speed")
	case ms == nil:
		return motor.Command{}, motor.NewMissingValueError("time")
	}
	return motor.NewCommand(*left, *right, *ms)
}

// flagValues are the command values given as flags; nil when the flag was not set.
type flagValues struct {
	left  *float64
	right *float64
	time  *uint32
}
