// Package cli contains the lanefollow command line.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig   = "config"
	generalFlagLogLevel = "log-level"
	generalFlagDebug    = "debug"

	runFlagControlHz = "control-hz"
	runFlagTelemetry = "telemetry"

	replayFlagMaxCycles      = "max-cycles"
	replayFlagNoTrafficLight = "no-traffic-light"
)

var app = &cli.App{
	Name:            "lanefollow",
	Usage:           "drive a vehicle down a lane marked by two boundary lines",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  generalFlagLogLevel,
			Usage: "one of debug, info, warn or error; overrides the config",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "build the vehicle from the config and follow the lane until interrupted",
			Action: RunAction,
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  runFlagControlHz,
					Usage: "override the control loop rate",
				},
				&cli.StringFlag{
					Name:  runFlagTelemetry,
					Usage: "record every cycle into the SQLite database at `PATH`",
				},
			},
		},
		{
			Name:      "replay",
			Usage:     "run the control loop over recorded frames with simulated actuators",
			ArgsUsage: "<frames.jsonl>",
			Action:    ReplayAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  runFlagTelemetry,
					Usage: "record every cycle into the SQLite database at `PATH`",
				},
				&cli.IntFlag{
					Name:  replayFlagMaxCycles,
					Usage: "stop after this many cycles; 0 plays every frame",
				},
				&cli.BoolFlag{
					Name:  replayFlagNoTrafficLight,
					Usage: "ignore recorded traffic light observations",
				},
			},
		},
		{
			Name:   "validate",
			Usage:  "check a config file and print the component build order",
			Action: ValidateAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
