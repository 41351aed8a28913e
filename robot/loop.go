package robot

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/lanefollow/components/motor"
	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/control"
	"go.viam.com/lanefollow/control/bypass"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/telemetry"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
	"go.viam.com/lanefollow/vision/lines"
	"go.viam.com/lanefollow/vision/trafficlight"
)

// LoopConfig is everything the control loop is tuned with.
type LoopConfig struct {
	RateHz       float64
	ROI          image.Rectangle
	LineParams   vision.LineParams
	ImageWidth   int
	Lane         control.LaneConfig
	Steering     control.SteeringConfig
	Speed        control.SpeedConfig
	Obstacle     bypass.Config
	TrafficLight trafficlight.Config
}

// LoopConfigFromConfig pulls the loop settings out of a vehicle config.
func LoopConfigFromConfig(cfg *config.Config) LoopConfig {
	return LoopConfig{
		RateHz:       cfg.ControlHz,
		ROI:          cfg.Vision.ROI.Rect(),
		LineParams:   cfg.Vision.Lines,
		ImageWidth:   cfg.Vision.ImageWidth,
		Lane:         cfg.Lane,
		Steering:     cfg.Steering,
		Speed:        cfg.Speed,
		Obstacle:     cfg.Obstacle,
		TrafficLight: cfg.TrafficLight,
	}
}

// Period returns the time between cycles.
func (conf LoopConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / conf.RateHz)
}

// Inputs are the loop's observation sources. Only Lines is required.
type Inputs struct {
	Lines        vision.LineDetector
	TrafficLight vision.TrafficLightDetector
	Range        sensor.RangeSensor
	Classifier   *classification.Classifier
}

// Outputs are the actuators the loop commands.
type Outputs struct {
	Steering servo.Servo
	Throttle motor.Motor
}

// A CycleRecorder stores a summary of every cycle.
type CycleRecorder interface {
	Record(ctx context.Context, c telemetry.Cycle) error
}

// CycleResult is what one cycle observed and commanded.
type CycleResult struct {
	Cycle     uint64
	LinesSeen int
	Estimate  control.LaneEstimate
	// Steering lists the pulse widths sent this cycle, in order.
	Steering []int
	// Throttle is the throttle sent this cycle, if any.
	Throttle *float64
	Bypass   bypass.State
	Signal   trafficlight.Signal
	// Distance is the range reading taken this cycle, if any.
	Distance   *float64
	Classified []classification.Labeled
}

// Loop runs the lane following control cycle. All of its state is owned by the goroutine calling
// Cycle or Run.
type Loop struct {
	conf     LoopConfig
	in       Inputs
	out      Outputs
	clock    clock.Clock
	logger   logging.Logger
	recorder CycleRecorder

	state     *control.LaneState
	estimator *control.LaneErrorEstimator
	steering  *control.SteeringController
	speed     *control.SpeedPolicy
	lights    *trafficlight.Policy
	sequencer *bypass.Sequencer

	cycle uint64
	stats *LoopStats
}

// NewLoop validates conf and returns a loop with fresh lane state.
func NewLoop(conf LoopConfig, in Inputs, out Outputs, clk clock.Clock, logger logging.Logger) (*Loop, error) {
	if in.Lines == nil {
		return nil, errors.New("control loop requires a line detector")
	}
	if out.Steering == nil || out.Throttle == nil {
		return nil, errors.New("control loop requires steering and throttle actuators")
	}
	if conf.RateHz <= 0 {
		return nil, errors.Errorf("control rate must be positive, got %v", conf.RateHz)
	}
	for _, v := range []interface{ Validate() error }{conf.Lane, conf.Steering, conf.Speed, conf.Obstacle, conf.TrafficLight} {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		conf:      conf,
		in:        in,
		out:       out,
		clock:     clk,
		logger:    logger,
		state:     control.NewLaneState(conf.Lane, conf.Steering.Range),
		estimator: control.NewLaneErrorEstimator(conf.Lane),
		steering:  control.NewSteeringController(conf.Steering),
		speed:     control.NewSpeedPolicy(conf.Speed),
		lights:    trafficlight.NewPolicy(conf.TrafficLight),
		sequencer: bypass.NewSequencer(conf.Obstacle, conf.Steering.Range, clk, logger.Sublogger("bypass")),
		stats:     NewLoopStats(defaultStatsWindow),
	}, nil
}

// SetRecorder makes every following cycle be recorded.
func (l *Loop) SetRecorder(r CycleRecorder) {
	l.recorder = r
}

// State returns the lane state. It must not be modified while the loop runs.
func (l *Loop) State() *control.LaneState {
	return l.state
}

// Sequencer returns the obstacle maneuver state machine.
func (l *Loop) Sequencer() *bypass.Sequencer {
	return l.sequencer
}

// Stats returns the cycle timing statistics.
func (l *Loop) Stats() *LoopStats {
	return l.stats
}

// Startup disengages both actuators: zero throttle and no servo pulse.
func (l *Loop) Startup(ctx context.Context) error {
	return errors.Wrap(
		multierr.Combine(l.out.Throttle.SetThrottle(ctx, 0), l.out.Steering.SetPulseWidth(ctx, 0)),
		"failed to disengage actuators",
	)
}

// Shutdown stops the drive motor.
func (l *Loop) Shutdown(ctx context.Context) error {
	return errors.Wrap(l.out.Throttle.Stop(ctx), "failed to stop drive motor")
}

// Run cycles at the configured rate until ctx is done. A cycle in progress always completes.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.Ticker(l.conf.Period())
	defer ticker.Stop()
	cycleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// a tick and cancellation can race; cancellation wins
		if ctx.Err() != nil {
			return nil
		}
		l.Cycle(cycleCtx)
	}
}

// Cycle runs one sensor to actuator pass. It never fails: a missing observation is carried
// forward and actuator errors are logged.
func (l *Loop) Cycle(ctx context.Context) CycleResult {
	start := l.clock.Now()
	l.cycle++
	res := CycleResult{Cycle: l.cycle}

	segments, err := l.in.Lines.DetectLines(ctx, l.conf.ROI, l.conf.LineParams)
	if err != nil {
		l.logger.Debugw("no line observation", "cycle", l.cycle, "error", err)
		segments = nil
	}
	obs := lines.Select(segments, l.conf.ImageWidth)
	res.LinesSeen = obs.Count()
	res.Estimate = l.estimator.Update(obs, l.state)

	if l.in.Classifier != nil {
		classified := l.in.Classifier.Classify(ctx)
		if classified.Err != nil {
			l.logger.Debugw("classification failed", "error", classified.Err)
		} else {
			res.Classified = classified.Detections
			for _, d := range classified.Detections {
				if top := d.Classifications.TopN(1); len(top) > 0 {
					l.logger.Debugw("classified", "rect", d.Rect.String(), "label", top[0].Label(), "score", top[0].Score())
				}
			}
		}
	}

	var reading bypass.Reading
	if l.in.Range != nil && l.sequencer.NeedsReading() {
		d, err := l.in.Range.Distance(ctx)
		if err != nil {
			if !errors.Is(err, sensor.ErrNoReading) {
				l.logger.Debugw("range sensor failed", "error", err)
			}
		} else {
			reading = bypass.Reading{Distance: d, Valid: true}
			res.Distance = &d
		}
	}

	throttle := l.speed.Throttle(res.Estimate.Deflection)
	if l.sequencer.State() == bypass.Tracking && l.lights.Enabled() && l.in.TrafficLight != nil {
		tl, err := l.in.TrafficLight.DetectTrafficLight(ctx)
		if err != nil {
			l.logger.Debugw("traffic light detection failed", "error", err)
		} else {
			throttle, res.Signal = l.lights.Throttle(tl, throttle)
		}
	}

	cmd := l.sequencer.Update(reading, throttle)
	res.Bypass = cmd.State
	if cmd.Entered {
		l.logger.Infow("obstacle maneuver", "state", cmd.State.String(), "maneuvers", l.sequencer.Maneuvers())
	}

	if cmd.Active {
		if cmd.Throttle != nil {
			l.setThrottle(ctx, *cmd.Throttle, &res)
		}
		for _, w := range cmd.Steering {
			l.setSteering(ctx, w, &res)
		}
	} else {
		if cmd.Throttle != nil {
			throttle = *cmd.Throttle
		}
		steer := l.steering.Update(res.Estimate.Error, l.state)
		l.setSteering(ctx, steer.Command, &res)
		l.setThrottle(ctx, throttle, &res)
	}

	elapsed := l.clock.Since(start)
	l.stats.Record(elapsed)
	if elapsed > l.conf.Period() {
		l.stats.RecordOverrun()
	}
	l.record(ctx, start, res)
	return res
}

func (l *Loop) setSteering(ctx context.Context, width int, res *CycleResult) {
	if err := l.out.Steering.SetPulseWidth(ctx, width); err != nil {
		l.logger.Warnw("failed to set steering", "width", width, "error", err)
		return
	}
	res.Steering = append(res.Steering, width)
}

func (l *Loop) setThrottle(ctx context.Context, dutyPct float64, res *CycleResult) {
	if err := l.out.Throttle.SetThrottle(ctx, dutyPct); err != nil {
		l.logger.Warnw("failed to set throttle", "throttle", dutyPct, "error", err)
		return
	}
	res.Throttle = &dutyPct
}

func (l *Loop) record(ctx context.Context, at time.Time, res CycleResult) {
	if l.recorder == nil {
		return
	}
	c := telemetry.Cycle{
		Cycle:          res.Cycle,
		At:             at,
		LinesSeen:      res.LinesSeen,
		Center:         res.Estimate.Center,
		FilteredCenter: res.Estimate.FilteredCenter,
		Error:          res.Estimate.Error,
		Deflection:     res.Estimate.Deflection,
		Throttle:       res.Throttle,
		BypassState:    res.Bypass.String(),
		Distance:       res.Distance,
	}
	if n := len(res.Steering); n > 0 {
		last := res.Steering[n-1]
		c.Steering = &last
	}
	if err := l.recorder.Record(ctx, c); err != nil {
		l.logger.Warnw("failed to record cycle", "error", err)
	}
}
