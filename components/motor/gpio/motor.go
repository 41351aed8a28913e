// Package gpio implements a DC motor driven by a single PWM pin through a motor driver.
package gpio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	viamutils "go.viam.com/utils"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/components/motor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

const (
	model                 = "gpio"
	defaultPWMFreqHz uint = 1500
)

// Config describes the configuration of a motor.
type Config struct {
	BoardName string `json:"board"`
	PWM       string `json:"pwm"`
	PWMFreq   uint   `json:"pwm_freq,omitempty"`
	// MaxPowerPct caps the throttle, in duty cycle percent.
	MaxPowerPct float64 `json:"max_power_pct,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.BoardName == "" {
		return nil, viamutils.NewConfigValidationFieldRequiredError(path, "board")
	}
	if conf.PWM == "" {
		return nil, viamutils.NewConfigValidationFieldRequiredError(path, "pwm")
	}
	if conf.MaxPowerPct < 0 || conf.MaxPowerPct > 100 {
		return nil, viamutils.NewConfigValidationError(path, errors.New("max_power_pct must be in [0, 100]"))
	}
	return []string{conf.BoardName}, nil
}

func init() {
	registry.RegisterMotor(model, registry.MotorRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (motor.Motor, error) {
			attrs, err := registry.ConvertedAttributes[*Config](conf)
			if err != nil {
				return nil, err
			}
			b, err := registry.BoardFromDependencies(deps, attrs.BoardName)
			if err != nil {
				return nil, err
			}
			return NewMotor(ctx, b, attrs, logger)
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

// Motor drives the PWM pin with the requested duty cycle.
type Motor struct {
	mu       sync.Mutex
	pwm      board.GPIOPin
	maxPct   float64
	throttle float64
	logger   logging.Logger
}

// NewMotor sets up the PWM pin. The motor starts stopped.
func NewMotor(ctx context.Context, b board.Board, conf *Config, logger logging.Logger) (*Motor, error) {
	pin, err := b.GPIOPinByName(conf.PWM)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get motor pwm pin")
	}
	freq := conf.PWMFreq
	if freq == 0 {
		freq = defaultPWMFreqHz
	}
	if err := pin.SetPWMFreq(ctx, freq); err != nil {
		return nil, errors.Wrap(err, "error setting motor pwm frequency")
	}
	maxPct := conf.MaxPowerPct
	if maxPct == 0 {
		maxPct = 100
	}
	m := &Motor{pwm: pin, maxPct: maxPct, logger: logger}
	if err := m.Stop(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// SetThrottle sets the duty cycle, capped at the configured maximum.
func (m *Motor) SetThrottle(ctx context.Context, dutyPct float64) error {
	if err := motor.CheckThrottle(dutyPct); err != nil {
		return err
	}
	if dutyPct > m.maxPct {
		m.logger.Debugw("capping throttle", "requested", dutyPct, "max", m.maxPct)
		dutyPct = m.maxPct
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.pwm.SetPWM(ctx, dutyPct/100); err != nil {
		return errors.Wrap(err, "couldn't set motor duty cycle")
	}
	m.throttle = dutyPct
	return nil
}

// Throttle returns the last duty cycle set.
func (m *Motor) Throttle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.throttle
}

// Stop sets the duty cycle to zero.
func (m *Motor) Stop(ctx context.Context) error {
	return m.SetThrottle(ctx, 0)
}
