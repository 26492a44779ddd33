// Package main runs the left and right motors for a given amount of time.
package main

import (
	"context"
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/regmotor/bcm283x"
	"go.viam.com/regmotor/config"
	"go.viam.com/regmotor/logging"
	"go.viam.com/regmotor/motor"
	"go.viam.com/regmotor/register/fake"
)

var logger = logging.NewLogger("motors")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	return runApp(ctx, newApp(logger), args)
}

// runApp prints the help text when no arguments are given.
func runApp(ctx context.Context, app *cli.App, args []string) error {
	if len(args) < 2 {
		app.Setup()
		return cli.ShowAppHelp(cli.NewContext(app, nil, nil))
	}
	return app.RunContext(ctx, args)
}

var helpTemplate = fmt.Sprintf(`Runs left and right motors for a given amount of time
Speed for the motors must be within the range of %.2f to %.2f

Usage:
    {{.HelpName}} [flags] left <value> right <value> time <value>

Flags:
{{range .VisibleFlags}}    {{.}}
{{end}}
Commands:
    left <value>     Sets the left motor speed
    right <value>    Sets the right motor speed
    time             Sets the amount of time to run in milliseconds
`, motor.MinSpeed, motor.MaxSpeed)

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:                  "motors",
		Usage:                 "runs left and right motors for a given amount of time",
		CustomAppHelpTemplate: helpTemplate,
		HideHelpCommand:       true,
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "left",
				Usage: "left motor speed",
			},
			&cli.Float64Flag{
				Name:  "right",
				Usage: "right motor speed",
			},
			&cli.Uint64Flag{
				Name:  "time",
				Usage: "time to run in milliseconds",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load hardware configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "record register writes instead of touching hardware",
			},
		},
		Action: func(c *cli.Context) error {
			return runAction(c, logger)
		},
	}
}

func runAction(c *cli.Context, logger logging.Logger) error {
	keywords, err := parseKeywordArgs(c.Args().Slice())
	if err != nil {
		return err
	}
	if keywords.help {
		return cli.ShowAppHelp(c)
	}

	debug := c.Bool("debug")
	if debug {
		logger = logging.NewDebugLogger("motors")
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		if cfg, err = config.Read(path, logger); err != nil {
			return err
		}
	}
	logFile := c.String("log-file")
	if logFile == "" {
		logFile = cfg.LogFile
	}
	if logFile != "" {
		logger = logging.NewFileLogger("motors", logFile, debug)
	}

	flags, err := flagsFrom(c)
	if err != nil {
		return err
	}
	cmd, err := keywords.command(flags)
	if err != nil {
		return err
	}
	logger.Infow("running motors", "left", cmd.Left, "right", cmd.Right, "time_ms", cmd.DurationMS)

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	var opts []motor.Option
	var journal *fake.Journal
	if c.Bool("dry-run") {
		journal = &fake.Journal{}
		opts = append(opts, motor.WithOpener(dryRunOpener(settings.Layout, journal, logger).Open))
	}
	driver, err := motor.NewDriver(settings, logger, opts...)
	if err != nil {
		return err
	}
	err = driver.Run(c.Context, cmd)
	if journal != nil {
		writes := journal.Writes()
		logger.Infow("dry run finished", "register_writes", len(writes))
		fmt.Fprintln(c.App.Writer, journalTable(writes))
	}
	return err
}

// journalTable renders recorded writes in issue order.
func journalTable(writes []fake.Write) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Block", "Register", "Value"})
	for i, w := range writes {
		t.AppendRow(table.Row{i + 1, w.Block, w.Offset.String(), fmt.Sprintf("%#08x", w.Value)})
	}
	return t.Render()
}

func flagsFrom(c *cli.Context) (flagValues, error) {
	var flags flagValues
	if c.IsSet("left") {
		v := c.Float64("left")
		flags.left = &v
	}
	if c.IsSet("right") {
		v := c.Float64("right")
		flags.right = &v
	}
	if c.IsSet("time") {
		ms := c.Uint64("time")
		if ms > math.MaxUint32 {
			return flagValues{}, errors.Errorf("time %d ms is too long", ms)
		}
		v := uint32(ms)
		flags.time = &v
	}
	return flags, nil
}

// dryRunOpener hands out fake register blocks that record every write into journal
// and log it at debug level.
func dryRunOpener(layout bcm283x.Layout, journal *fake.Journal, logger logging.Logger) *fake.Opener {
	return &fake.Opener{Prepare: func(physOffset int64) (*fake.Block, error) {
		var b *fake.Block
		switch physOffset {
		case layout.Clock():
			b = fake.NewBlock("clock", journal)
		case layout.GPIO():
			b = fake.NewGPIOBlock("gpio", journal, bcm283x.GPSET0, bcm283x.GPCLR0, bcm283x.GPLEV0)
		case layout.PWM():
			b = fake.NewBlock("pwm", journal)
		default:
			return nil, errors.Errorf("no register block at %#x", physOffset)
		}
		b.Logger = logger
		return b, nil
	}}
}
