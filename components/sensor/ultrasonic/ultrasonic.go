// Package ultrasonic implements an HC-SR04 style ultrasonic range sensor on two GPIO pins.
package ultrasonic

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	rdkutils "go.viam.com/utils"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

const (
	model = "ultrasonic"

	triggerPulse     = 10 * time.Microsecond
	defaultTimeoutMs = 30
	// mmPerMicrosecond is the speed of sound.
	mmPerMicrosecond = 0.343
)

// Config is used for converting config attributes.
type Config struct {
	Board      string `json:"board"`
	TriggerPin string `json:"trigger_pin"`
	EchoPin    string `json:"echo_pin"`
	TimeoutMs  uint   `json:"timeout_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	var deps []string
	if len(conf.Board) == 0 {
		return nil, rdkutils.NewConfigValidationFieldRequiredError(path, "board")
	}
	deps = append(deps, conf.Board)
	if len(conf.TriggerPin) == 0 {
		return nil, rdkutils.NewConfigValidationFieldRequiredError(path, "trigger_pin")
	}
	if len(conf.EchoPin) == 0 {
		return nil, rdkutils.NewConfigValidationFieldRequiredError(path, "echo_pin")
	}
	return deps, nil
}

func init() {
	registry.RegisterRangeSensor(model, registry.RangeSensorRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (sensor.RangeSensor, error) {
			attrs, err := registry.ConvertedAttributes[*Config](conf)
			if err != nil {
				return nil, err
			}
			b, err := registry.BoardFromDependencies(deps, attrs.Board)
			if err != nil {
				return nil, errors.Wrapf(err, "ultrasonic: board %q missing from dependencies", attrs.Board)
			}
			return NewSensor(ctx, conf.Name, b, attrs, clock.New(), logger)
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

// Sensor measures distance by timing the echo pulse. Distances are in millimetres.
type Sensor struct {
	mu         sync.Mutex
	name       string
	triggerPin board.GPIOPin
	echoPin    board.EdgePin
	timeout    time.Duration
	clock      clock.Clock
	logger     logging.Logger
}

// NewSensor grabs the pins and pulls the trigger low.
func NewSensor(
	ctx context.Context,
	name string,
	b board.Board,
	conf *Config,
	clk clock.Clock,
	logger logging.Logger,
) (*Sensor, error) {
	logger.Debugw("building ultrasonic sensor", "name", name)
	trigger, err := b.GPIOPinByName(conf.TriggerPin)
	if err != nil {
		return nil, errors.Wrapf(err, "ultrasonic: cannot grab gpio %q", conf.TriggerPin)
	}
	echo, err := board.EdgePinByName(b, conf.EchoPin)
	if err != nil {
		return nil, errors.Wrapf(err, "ultrasonic: cannot grab echo pin %q", conf.EchoPin)
	}
	timeoutMs := conf.TimeoutMs
	if timeoutMs == 0 {
		timeoutMs = defaultTimeoutMs
	}
	s := &Sensor{
		name:       name,
		triggerPin: trigger,
		echoPin:    echo,
		timeout:    time.Duration(timeoutMs) * time.Millisecond,
		clock:      clk,
		logger:     logger,
	}
	if err := s.triggerPin.Set(ctx, false); err != nil {
		return nil, s.namedError(errors.Wrap(err, "cannot set trigger pin to low"))
	}
	return s, nil
}

func (s *Sensor) namedError(err error) error {
	return errors.Wrapf(err, "ultrasonic sensor %s", s.name)
}

// Distance fires the trigger and times the echo pulse. A missing edge returns
// sensor.ErrNoReading.
func (s *Sensor) Distance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a high and a low on the trigger pin 10 microseconds apart starts the sonic pulse
	if err := s.triggerPin.Set(ctx, true); err != nil {
		return 0, s.namedError(errors.Wrap(err, "cannot set trigger pin to high"))
	}
	rdkutils.SelectContextOrWait(ctx, triggerPulse)
	if err := s.triggerPin.Set(ctx, false); err != nil {
		return 0, s.namedError(errors.Wrap(err, "cannot set trigger pin to low"))
	}

	// the rising edge marks the pulse being sent, the falling edge the echo arriving
	ok, err := s.echoPin.WaitForEdge(ctx, s.timeout)
	if err != nil {
		return 0, s.namedError(err)
	}
	if !ok {
		return 0, s.namedError(errors.Wrap(sensor.ErrNoReading, "timed out waiting for the pulse to be sent"))
	}
	sent := s.clock.Now()
	ok, err = s.echoPin.WaitForEdge(ctx, s.timeout)
	if err != nil {
		return 0, s.namedError(err)
	}
	if !ok {
		return 0, s.namedError(errors.Wrap(sensor.ErrNoReading, "timed out waiting for the echo"))
	}
	echoed := s.clock.Now()

	us := float64(echoed.Sub(sent)) / float64(time.Microsecond)
	return us * mmPerMicrosecond / 2, nil
}

// Close releases the trigger pin.
func (s *Sensor) Close(ctx context.Context) error {
	return s.triggerPin.Set(ctx, false)
}
