package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/regmotor/bcm283x"
	"go.viam.com/regmotor/logging"
	"go.viam.com/regmotor/motor"
	"go.viam.com/regmotor/register/fake"
)

func TestParseKeywordArgs(t *testing.T) {
	parsed, err := parseKeywordArgs([]string{"time", "1000", "right", "-0.5", "ignored", "left", "0.5"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *parsed.left, test.ShouldEqual, 0.5)
	test.That(t, *parsed.right, test.ShouldEqual, -0.5)
	test.That(t, *parsed.time, test.ShouldEqual, uint32(1000))
	test.That(t, parsed.help, test.ShouldBeFalse)

	parsed, err = parseKeywordArgs([]string{"left", "0.1", "left", "0.2", "--help"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *parsed.left, test.ShouldEqual, 0.2)
	test.That(t, parsed.right, test.ShouldBeNil)
	test.That(t, parsed.help, test.ShouldBeTrue)

	for _, tc := range []struct {
		args []string
		msg  string
	}{
		{[]string{"left"}, "No value provided for left speed"},
		{[]string{"time"}, "No value provided for time"},
		{[]string{"left", "fast"}, `invalid value "fast" for left speed`},
		{[]string{"time", "-1"}, `invalid value "-1" for time`},
		{[]string{"time", "4294967296"}, "for time"},
	} {
		_, err := parseKeywordArgs(tc.args)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
	}
}

func TestKeywordCommand(t *testing.T) {
	left, right, ms := 0.25, -1.0, uint32(50)

	cmd, err := keywordArgs{left: &left, right: &right, time: &ms}.command(flagValues{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd, test.ShouldResemble, motor.Command{Left: 0.25, Right: -1, DurationMS: 50})

	other := 0.75
	cmd, err = keywordArgs{left: &left}.command(flagValues{left: &other, right: &other, time: &ms})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.Left, test.ShouldEqual, 0.25)
	test.That(t, cmd.Right, test.ShouldEqual, 0.75)

	_, err = keywordArgs{}.command(flagValues{})
	test.That(t, err.Error(), test.ShouldEqual, "No value provided for left speed")
	_, err = keywordArgs{left: &left}.command(flagValues{})
	test.That(t, err.Error(), test.ShouldEqual, "No value provided for right speed")
	_, err = keywordArgs{left: &left, right: &right}.command(flagValues{})
	test.That(t, err.Error(), test.ShouldEqual, "No value provided for time")

	tooFast := 1.5
	_, err = keywordArgs{left: &tooFast, right: &right, time: &ms}.command(flagValues{})
	var verr *motor.ValidationError
	test.That(t, errors.As(err, &verr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldEqual, "Given value for left speed above 1.00")
}

func TestHelp(t *testing.T) {
	for _, args := range [][]string{{"motors"}, {"motors", "-h"}, {"motors", "left", "0.5", "-h"}} {
		var buf bytes.Buffer
		app := newApp(logging.NewTestLogger(t))
		app.Writer = &buf
		test.That(t, runApp(context.Background(), app, args), test.ShouldBeNil)
		out := buf.String()
		test.That(t, out, test.ShouldContainSubstring, "Runs left and right motors for a given amount of time")
		test.That(t, out, test.ShouldContainSubstring, "within the range of -1.00 to 1.00")
		test.That(t, out, test.ShouldContainSubstring, "Sets the amount of time to run in milliseconds")
		test.That(t, out, test.ShouldContainSubstring, "--dry-run")
	}
}

func TestMainDryRun(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	err := mainWithArgs(context.Background(), []string{"motors", "--dry-run", "left", "0.5", "right", "-0.5", "time", "0"}, logger)
	test.That(t, err, test.ShouldBeNil)

	running := logs.FilterMessage("running motors").All()
	test.That(t, running, test.ShouldHaveLength, 1)
	test.That(t, running[0].ContextMap()["left"], test.ShouldEqual, 0.5)
	test.That(t, running[0].ContextMap()["time_ms"], test.ShouldEqual, uint32(0))

	finished := logs.FilterMessage("dry run finished").All()
	test.That(t, finished, test.ShouldHaveLength, 1)
	test.That(t, finished[0].ContextMap()["register_writes"], test.ShouldEqual, int64(21))
	test.That(t, logs.FilterMessage("register write").Len(), test.ShouldEqual, 21)
}

func TestJournalTable(t *testing.T) {
	out := journalTable([]fake.Write{
		{Block: "clock", Offset: bcm283x.CMPWMCTL, Value: 0x5A000001},
		{Block: "pwm", Offset: bcm283x.PWMCTL, Value: 0x8181},
	})
	test.That(t, out, test.ShouldContainSubstring, "REGISTER")
	test.That(t, out, test.ShouldContainSubstring, "word 160 (+0x280)")
	test.That(t, out, test.ShouldContainSubstring, "0x5a000001")
	test.That(t, out, test.ShouldContainSubstring, "0x00008181")
	test.That(t, strings.Count(out, "\n"), test.ShouldBeGreaterThanOrEqualTo, 5)
}

func TestMainDryRunFlagsAndConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motors.json")
	test.That(t, os.WriteFile(path, []byte(`{"peripheral_base": "0xFE000000", "pwm_range": 100}`), 0o600), test.ShouldBeNil)

	logger, logs := logging.NewObservedTestLogger(t)
	err := mainWithArgs(context.Background(),
		[]string{"motors", "--config", path, "--dry-run", "--left", "1", "--right", "0", "--time", "1"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("motors running").All()[0].ContextMap()["range"], test.ShouldEqual, uint32(100))
}

func TestMainErrors(t *testing.T) {
	for _, tc := range []struct {
		args []string
		msg  string
	}{
		{[]string{"motors", "left", "0.5"}, "No value provided for right speed"},
		{[]string{"motors", "left", "2", "right", "0", "time", "10"}, "Given value for left speed above 1.00"},
		{[]string{"motors", "left", "0", "right", "-1.5", "time", "10"}, "Given value for right speed below -1.00"},
		{[]string{"motors", "--config", "/nonexistent/motors.json", "left", "0", "right", "0", "time", "0"}, "motors.json"},
		{[]string{"motors", "--bogus"}, "bogus"},
	} {
		t.Run(tc.msg, func(t *testing.T) {
			err := mainWithArgs(context.Background(), tc.args, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}
