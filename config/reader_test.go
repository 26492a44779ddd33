package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/regmotor/bcm283x"
	"go.viam.com/regmotor/logging"
	"go.viam.com/regmotor/motor"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motors.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate("config"), test.ShouldBeNil)

	settings, err := cfg.Settings()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, settings, test.ShouldResemble, motor.DefaultSettings())
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("MOTOR_DEVICE", "/dev/gpiomem-test")
	path := writeConfig(t, `{
		"device": "${MOTOR_DEVICE}",
		"peripheral_base": "0xFE000000",
		"pins": {"left_pwm": 18, "right_pwm": 19, "standby": "5"},
		"pwm_range": 500,
		"clock_divisor": {"integer": 4, "fraction": 2048},
		"log_file": "/tmp/motors.log"
	}`)

	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Device, test.ShouldEqual, "/dev/gpiomem-test")
	test.That(t, cfg.PeripheralBase, test.ShouldEqual, bcm283x.PeripheralBaseBCM2711)
	test.That(t, cfg.LogFile, test.ShouldEqual, "/tmp/motors.log")

	settings, err := cfg.Settings()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, settings.Layout.PWM(), test.ShouldEqual, int64(0xFE20C000))
	test.That(t, settings.Range, test.ShouldEqual, uint32(500))
	test.That(t, settings.Divisor, test.ShouldResemble, bcm283x.Divisor{Integer: 4, Fraction: 2048})

	want := motor.DefaultWiring()
	want.LeftPWM, want.RightPWM, want.Standby = 18, 19, 5
	test.That(t, settings.Wiring, test.ShouldResemble, want)
}

func TestReadNumericBase(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(`{"peripheral_base": 536870912}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.PeripheralBase, test.ShouldEqual, bcm283x.PeripheralBaseBCM2835)
}

func TestReadErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := Read(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)

	for _, tc := range []struct {
		name, contents, msg string
	}{
		{"not json", `{"device":`, "decode"},
		{"unknown key", `{"devcie": "/dev/mem"}`, "devcie"},
		{"bad number", `{"pwm_range": "lots"}`, "lots"},
		{"negative", `{"pwm_range": -1}`, "pwm_range"},
		{"overflow", `{"pins": {"standby": 300}}`, "300"},
		{"empty device", `{"device": ""}`, `"device" is required`},
		{"unknown base", `{"peripheral_base": "0x40000000"}`, "unknown peripheral base"},
		{"duplicate pins", `{"pins": {"standby": 23}}`, "config.pins"},
		{"non pwm pin", `{"pins": {"left_pwm": 4}}`, "left pwm pin"},
		{"zero range", `{"pwm_range": 0}`, `"pwm_range" is required`},
		{"bad divisor", `{"clock_divisor": {"integer": 0}}`, "config.clock_divisor"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("", strings.NewReader(tc.contents), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestAutoDetect(t *testing.T) {
	orig := detectLayout
	defer func() {
		detectLayout = orig
	}()

	cfg, err := FromReader("", strings.NewReader(`{"peripheral_base": "auto"}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.PeripheralBase, test.ShouldEqual, AutoDetect)

	detectLayout = func() (bcm283x.Layout, error) {
		return bcm283x.Layout{PeripheralBase: bcm283x.PeripheralBaseBCM2711}, nil
	}
	settings, err := cfg.Settings()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, settings.Layout.PeripheralBase, test.ShouldEqual, bcm283x.PeripheralBaseBCM2711)

	detectLayout = func() (bcm283x.Layout, error) {
		return bcm283x.Layout{}, errors.New("no device tree")
	}
	_, err = cfg.Settings()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "set peripheral_base")
}
