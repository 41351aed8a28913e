// Package robot assembles the vehicle from its config and runs the lane following control loop.
package robot

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/lanefollow/components/motor"
	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/telemetry"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
)

// Robot is the vehicle: its built parts and the loop driving them.
type Robot struct {
	parts    *robotParts
	loop     *Loop
	recorder *telemetry.Recorder
	clock    clock.Clock
	logger   logging.Logger
}

// New builds every configured component and wires the control loop to the roles in cfg. cfg must
// have come from config.Read or config.FromReader.
func New(ctx context.Context, cfg *config.Config, clk clock.Clock, logger logging.Logger) (_ *Robot, err error) {
	if clk == nil {
		clk = clock.New()
	}
	parts := newRobotParts(logger.Sublogger("parts"))
	defer func() {
		if err != nil {
			err = multierr.Combine(err, parts.Close(ctx))
		}
	}()
	if err := parts.processConfig(ctx, cfg); err != nil {
		return nil, err
	}

	steering, err := partByName[servo.Servo](parts, "steering", cfg.Roles.Steering)
	if err != nil {
		return nil, err
	}
	throttle, err := partByName[motor.Motor](parts, "throttle", cfg.Roles.Throttle)
	if err != nil {
		return nil, err
	}
	camera, err := partByName[vision.Camera](parts, "camera", cfg.Roles.Camera)
	if err != nil {
		return nil, err
	}
	in := Inputs{Lines: camera, TrafficLight: camera}
	if cfg.Roles.RangeSensor != "" {
		if in.Range, err = partByName[sensor.RangeSensor](parts, "range_sensor", cfg.Roles.RangeSensor); err != nil {
			return nil, err
		}
	}
	if cfg.Classification.Enabled {
		model, _ := camera.(classification.Model)
		in.Classifier = classification.NewClassifier(cfg.Classification, model, logger.Sublogger("classifier"))
	}

	loop, err := NewLoop(LoopConfigFromConfig(cfg), in, Outputs{Steering: steering, Throttle: throttle}, clk, logger.Sublogger("loop"))
	if err != nil {
		return nil, err
	}

	r := &Robot{parts: parts, loop: loop, clock: clk, logger: logger}
	if cfg.Telemetry.Path != "" {
		rec, err := telemetry.Open(ctx, cfg.Telemetry.Path, cfg.ConfigFilePath, clk.Now(), logger.Sublogger("telemetry"))
		if err != nil {
			return nil, err
		}
		r.recorder = rec
		loop.SetRecorder(rec)
	}
	logger.Infow("robot built", "components", parts.Names())
	return r, nil
}

// Loop returns the control loop.
func (r *Robot) Loop() *Loop {
	return r.loop
}

// Recorder returns the telemetry recorder, or nil when telemetry is off.
func (r *Robot) Recorder() *telemetry.Recorder {
	return r.recorder
}

// Run disengages the actuators and then cycles until ctx is done.
func (r *Robot) Run(ctx context.Context) error {
	if err := r.loop.Startup(ctx); err != nil {
		return err
	}
	r.logger.Infow("control loop running", "period", r.loop.conf.Period().String())
	return r.loop.Run(ctx)
}

// Close stops the drive motor, logs cycle statistics and closes every part.
func (r *Robot) Close(ctx context.Context) error {
	err := r.loop.Shutdown(ctx)
	if summary, sErr := r.loop.Stats().Summary(); sErr == nil {
		r.logger.Infow("control loop stopped",
			"cycles", summary.Cycles,
			"p50_ms", summary.P50Ms,
			"p99_ms", summary.P99Ms,
			"max_ms", summary.MaxMs,
			"overruns", r.loop.Stats().Overruns(),
			"maneuvers", r.loop.Sequencer().Maneuvers(),
		)
	}
	if r.recorder != nil {
		err = multierr.Combine(err, errors.Wrap(r.recorder.Close(), "closing telemetry"))
	}
	return multierr.Combine(err, r.parts.Close(ctx))
}
