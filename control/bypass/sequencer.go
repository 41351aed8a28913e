// Package bypass implements the obstacle avoidance maneuver: brake, swing out toward the servo's
// max, swing back toward its min, then hand control back to lane following.
package bypass

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/logging"
)

// State is the maneuver phase.
type State int

// Maneuver phases, in the order they run.
const (
	Tracking State = iota
	Braking
	Turning
	Returning
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Braking:
		return "braking"
	case Turning:
		return "turning"
	case Returning:
		return "returning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// stuckAfter is how many back to back maneuvers are tolerated before warning about the sensor.
const stuckAfter = 3

// Config configures the maneuver. Distances are in the range sensor's units.
type Config struct {
	Threshold     float64 `json:"threshold"`
	BrakeMs       int     `json:"brake_ms"`
	TurnMs        int     `json:"turn_ms"`
	ReturnMs      int     `json:"return_ms"`
	AvoidThrottle float64 `json:"avoid_throttle"`
	Disabled      bool    `json:"disabled,omitempty"`
}

// DefaultConfig returns the maneuver timings the vehicle was tuned with.
func DefaultConfig() Config {
	return Config{
		Threshold:     440,
		BrakeMs:       1000,
		TurnMs:        500,
		ReturnMs:      500,
		AvoidThrottle: 25,
	}
}

// Validate ensures all parts of the config are valid.
func (conf Config) Validate() error {
	if conf.BrakeMs < 0 || conf.TurnMs < 0 || conf.ReturnMs < 0 {
		return errors.New("obstacle delays cannot be negative")
	}
	if conf.AvoidThrottle < 0 || conf.AvoidThrottle > 100 {
		return errors.Errorf("obstacle avoid_throttle must be in [0, 100], got %v", conf.AvoidThrottle)
	}
	return nil
}

func (conf Config) delay(s State) time.Duration {
	switch s {
	case Braking:
		return time.Duration(conf.BrakeMs) * time.Millisecond
	case Turning:
		return time.Duration(conf.TurnMs) * time.Millisecond
	case Returning:
		return time.Duration(conf.ReturnMs) * time.Millisecond
	default:
		return 0
	}
}

// Reading is one range sensor sample. Valid is false when the sensor had nothing to report.
type Reading struct {
	Distance float64
	Valid    bool
}

// Command is what the sequencer wants actuated this cycle.
type Command struct {
	State State
	// Active means lane steering must not be applied this cycle.
	Active bool
	// Entered is true on the cycle a state was entered.
	Entered bool
	// Throttle is set when the throttle must change.
	Throttle *float64
	// Steering lists pulse widths to send, in order.
	Steering []int
}

// Sequencer is the maneuver state machine. It never blocks: each Update compares the clock
// against the time the current state was entered and advances at most one state.
type Sequencer struct {
	cfg    Config
	rng    servo.Range
	clock  clock.Clock
	logger logging.Logger

	state           State
	enteredAt       time.Time
	restoreThrottle float64
	maneuvers       int
	consecutive     int
	trackedSince    bool
}

// NewSequencer returns a sequencer in the Tracking state.
func NewSequencer(conf Config, rng servo.Range, clk clock.Clock, logger logging.Logger) *Sequencer {
	if clk == nil {
		clk = clock.New()
	}
	return &Sequencer{
		cfg:       conf,
		rng:       rng,
		clock:     clk,
		logger:    logger,
		state:     Tracking,
		enteredAt: clk.Now(),
	}
}

// State returns the current phase.
func (s *Sequencer) State() State {
	return s.state
}

// NeedsReading reports whether Update will look at a range reading, which only happens while
// tracking.
func (s *Sequencer) NeedsReading() bool {
	return s.state == Tracking && !s.cfg.Disabled
}

// Maneuvers returns how many maneuvers have been started.
func (s *Sequencer) Maneuvers() int {
	return s.maneuvers
}

// RestoreThrottle is the throttle that will be restored once the maneuver completes.
func (s *Sequencer) RestoreThrottle() float64 {
	return s.restoreThrottle
}

// Update advances the state machine. trackingThrottle is the throttle lane following is using
// right now; it is captured when a maneuver starts and restored when it ends.
func (s *Sequencer) Update(reading Reading, trackingThrottle float64) Command {
	now := s.clock.Now()
	switch s.state {
	case Tracking:
		if s.cfg.Disabled || !reading.Valid || reading.Distance >= s.cfg.Threshold {
			if reading.Valid {
				s.trackedSince = true
			}
			return Command{State: Tracking}
		}
		s.restoreThrottle = trackingThrottle
		s.maneuvers++
		if s.trackedSince {
			s.consecutive = 0
		}
		s.consecutive++
		s.trackedSince = false
		if s.consecutive >= stuckAfter {
			s.logger.Warnw("obstacle maneuver keeps retriggering; range sensor may be stuck",
				"consecutive", s.consecutive, "distance", reading.Distance)
		}
		s.enter(Braking, now)
		return Command{State: Braking, Active: true, Entered: true, Throttle: throttle(0)}
	case Braking:
		if !s.elapsed(now) {
			return Command{State: Braking, Active: true}
		}
		s.enter(Turning, now)
		return Command{
			State:    Turning,
			Active:   true,
			Entered:  true,
			Throttle: throttle(s.cfg.AvoidThrottle),
			Steering: []int{s.rng.Max},
		}
	case Turning:
		if !s.elapsed(now) {
			return Command{State: Turning, Active: true}
		}
		s.enter(Returning, now)
		return Command{
			State:    Returning,
			Active:   true,
			Entered:  true,
			Steering: []int{s.rng.Neutral, s.rng.Min},
		}
	case Returning:
		if !s.elapsed(now) {
			return Command{State: Returning, Active: true}
		}
		s.enter(Tracking, now)
		return Command{State: Tracking, Entered: true, Throttle: throttle(s.restoreThrottle)}
	default:
		panic(fmt.Sprintf("unreachable bypass state %d", s.state))
	}
}

func (s *Sequencer) elapsed(now time.Time) bool {
	return now.Sub(s.enteredAt) >= s.cfg.delay(s.state)
}

func (s *Sequencer) enter(next State, now time.Time) {
	s.logger.Debugw("bypass transition", "from", s.state.String(), "to", next.String())
	s.state = next
	s.enteredAt = now
}

func throttle(v float64) *float64 {
	return &v
}
