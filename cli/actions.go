package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	fakemotor "go.viam.com/lanefollow/components/motor/fake"
	fakeservo "go.viam.com/lanefollow/components/servo/fake"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/robot"
	"go.viam.com/lanefollow/telemetry"
	"go.viam.com/lanefollow/vision/classification"
	"go.viam.com/lanefollow/vision/source"
	"go.viam.com/lanefollow/vision/trafficlight"
)

// RunAction builds the vehicle and runs the control loop until SIGINT or SIGTERM.
func RunAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := readConfig(c, logger)
	if err != nil {
		return err
	}
	if hz := c.Float64(runFlagControlHz); hz > 0 {
		cfg.ControlHz = hz
	}
	if p := c.String(runFlagTelemetry); p != "" {
		cfg.Telemetry.Path = p
	}
	if err := applyLogConfig(c, cfg, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := robot.New(ctx, cfg, clock.New(), logger)
	if err != nil {
		return err
	}
	runErr := r.Run(ctx)
	return multierr.Combine(runErr, r.Close(context.WithoutCancel(ctx)), logger.Sync())
}

// ReplayAction drives the control loop from a recording on a simulated clock and prints what
// every cycle commanded. Components in the config are not built.
func ReplayAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("replay requires a frames file")
	}
	logger := newLogger(c)
	cfg := config.Default()
	if c.String(generalFlagConfig) != "" {
		var err error
		if cfg, err = readConfig(c, logger); err != nil {
			return err
		}
	}
	if err := applyLogConfig(c, cfg, logger); err != nil {
		return err
	}
	if c.Bool(replayFlagNoTrafficLight) {
		cfg.TrafficLight.Enabled = false
	}

	src, err := source.OpenReplay(path)
	if err != nil {
		return err
	}
	in := robot.Inputs{Lines: src, TrafficLight: src, Range: src}
	if cfg.Classification.Enabled {
		in.Classifier = classification.NewClassifier(cfg.Classification, src, logger.Sublogger("classifier"))
	}
	steering := &fakeservo.Servo{}
	throttle := &fakemotor.Motor{Name: "replay", Logger: logger}

	mock := clock.NewMock()
	loopConf := robot.LoopConfigFromConfig(cfg)
	loop, err := robot.NewLoop(loopConf, in, robot.Outputs{Steering: steering, Throttle: throttle}, mock, logger.Sublogger("loop"))
	if err != nil {
		return err
	}

	ctx := c.Context
	if p := c.String(runFlagTelemetry); p != "" {
		rec, err := telemetry.Open(ctx, p, path, mock.Now(), logger.Sublogger("telemetry"))
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Warnw("failed to close telemetry", "error", err)
			}
		}()
		loop.SetRecorder(rec)
	}

	if err := loop.Startup(ctx); err != nil {
		return err
	}
	maxCycles := c.Int(replayFlagMaxCycles)
	cycles := 0
	for !src.Done() && (maxCycles <= 0 || cycles < maxCycles) {
		printCycle(c, loop.Cycle(ctx))
		cycles++
		mock.Add(loopConf.Period())
	}
	if err := loop.Shutdown(ctx); err != nil {
		return err
	}
	printf(c, "replayed %d of %d frames, %d obstacle maneuvers", cycles, src.Len(), loop.Sequencer().Maneuvers())
	return nil
}

// ValidateAction reads and validates the config and prints the order components would be built in.
func ValidateAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := readConfig(c, logger)
	if err != nil {
		return err
	}
	printf(c, "%s is valid", cfg.ConfigFilePath)
	for _, comp := range cfg.Components {
		line := "  " + comp.String()
		if deps := comp.Dependencies(); len(deps) > 0 {
			line += " after " + strings.Join(deps, ", ")
		}
		printf(c, "%s", line)
	}
	return nil
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewLogger("lanefollow", c.App.ErrWriter)
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

// applyLogConfig sets the level from the flag, falling back to the config, and adds the file
// appender the config asks for.
func applyLogConfig(c *cli.Context, cfg *config.Config, logger logging.Logger) error {
	if !c.Bool(generalFlagDebug) {
		levelStr := cfg.Log.Level
		if c.String(generalFlagLogLevel) != "" {
			levelStr = c.String(generalFlagLogLevel)
		}
		level, err := logging.LevelFromString(levelStr)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	if cfg.Log.File != nil {
		logger.AddAppender(logging.NewFileAppender(*cfg.Log.File))
	}
	return nil
}

func readConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return nil, errors.Errorf("--%s is required", generalFlagConfig)
	}
	return config.Read(path, logger.Sublogger("config"))
}

func printCycle(c *cli.Context, res robot.CycleResult) {
	throttle := "-"
	if res.Throttle != nil {
		throttle = fmt.Sprintf("%g", *res.Throttle)
	}
	line := fmt.Sprintf("%d lines=%d center=%g filtered=%.2f error=%.2f state=%s steering=%v throttle=%s",
		res.Cycle, res.LinesSeen, res.Estimate.Center, res.Estimate.FilteredCenter, res.Estimate.Error,
		res.Bypass, res.Steering, throttle)
	if res.Signal != trafficlight.SignalNone {
		line += fmt.Sprintf(" light=%s", res.Signal)
	}
	printf(c, "%s", line)
}

// printf prints a message with no decoration.
func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format+"\n", a...)
}
