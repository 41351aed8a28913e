// Package gpio implements a pin based servo commanded in timer ticks.
package gpio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	viamutils "go.viam.com/utils"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

const (
	defaultFrequencyHz uint = 100
	maxFrequencyHz     uint = 450
	// defaultPeriodTicks is the timer resolution the stock steering range was tuned against.
	defaultPeriodTicks = 20000
)

type servoConfig struct {
	Pin   string `json:"pin"`   // Pin a GPIO pin with pwm capabilities
	Board string `json:"board"` // Board a board that exposes GPIO pins
	// Frequency is the PWM frequency the pin is set to.
	Frequency uint `json:"frequency_hz,omitempty"`
	// PeriodTicks is the number of timer ticks in one PWM period; pulse widths are in these ticks.
	PeriodTicks int `json:"period_ticks,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *servoConfig) Validate(path string) ([]string, error) {
	var deps []string
	if config.Board == "" {
		return nil, viamutils.NewConfigValidationFieldRequiredError(path, "board")
	}
	deps = append(deps, config.Board)
	if config.Pin == "" {
		return nil, viamutils.NewConfigValidationFieldRequiredError(path, "pin")
	}
	if config.Frequency > maxFrequencyHz {
		return nil, viamutils.NewConfigValidationError(path,
			errors.Errorf("PWM frequencies should not be above %dHz, have %d", maxFrequencyHz, config.Frequency))
	}
	if config.PeriodTicks < 0 {
		return nil, viamutils.NewConfigValidationError(path, errors.New("period_ticks cannot be negative"))
	}
	return deps, nil
}

const model = "gpio"

func init() {
	registry.RegisterServo(model, registry.ServoRegistration{
		Constructor:           newGPIOServo,
		AttributeMapConverter: registry.AttributeConverter[*servoConfig](),
	})
}

type servoGPIO struct {
	mu          sync.Mutex
	pin         board.GPIOPin
	periodTicks int
	logger      logging.Logger
}

func newGPIOServo(ctx context.Context, deps registry.Dependencies, cfg config.Component, logger logging.Logger) (servo.Servo, error) {
	attr, err := registry.ConvertedAttributes[*servoConfig](cfg)
	if err != nil {
		return nil, err
	}

	b, err := registry.BoardFromDependencies(deps, attr.Board)
	if err != nil {
		return nil, errors.Wrap(err, "board doesn't exist")
	}
	pin, err := b.GPIOPinByName(attr.Pin)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get servo pin")
	}

	frequency := attr.Frequency
	if frequency == 0 {
		frequency = defaultFrequencyHz
	}
	if err := pin.SetPWMFreq(ctx, frequency); err != nil {
		return nil, errors.Wrap(err, "error setting servo pin frequency")
	}

	period := attr.PeriodTicks
	if period == 0 {
		period = defaultPeriodTicks
	}
	logger.Debugw("servo ready", "pin", attr.Pin, "frequency_hz", frequency, "period_ticks", period)
	return &servoGPIO{pin: pin, periodTicks: period, logger: logger}, nil
}

// SetPulseWidth drives the pin with a pulse of width ticks. A width of 0 releases the servo.
func (s *servoGPIO) SetPulseWidth(ctx context.Context, width int) error {
	if width < 0 || width > s.periodTicks {
		return errors.Errorf("pulse width %d is outside of [0, %d]", width, s.periodTicks)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pin.SetPWM(ctx, float64(width)/float64(s.periodTicks)); err != nil {
		return errors.Wrap(err, "couldn't set servo pulse width")
	}
	return nil
}
