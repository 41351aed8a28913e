// Package periph implements a board backed by periph.io host drivers, covering the Raspberry Pi
// and other Linux single-board computers periph supports.
package periph

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

const model = "periph"

func init() {
	registry.RegisterBoard(model, registry.BoardRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (board.Board, error) {
			attrs, err := registry.ConvertedAttributes[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewBoard(attrs, logger)
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

// Config describes a periph board.
type Config struct {
	// DefaultPWMFreqHz is used for pins that never had SetPWMFreq called.
	DefaultPWMFreqHz uint `json:"default_pwm_freq_hz,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	return nil, nil
}

const defaultPWMFreqHz = 800

// Board hands out periph pins by their registry name (e.g. "GPIO18").
type Board struct {
	mu          sync.Mutex
	pins        map[string]*gpioPin
	defaultFreq uint
	logger      logging.Logger
}

// NewBoard initializes the periph host drivers.
func NewBoard(conf *Config, logger logging.Logger) (*Board, error) {
	state, err := host.Init()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host drivers")
	}
	for _, failure := range state.Failed {
		logger.Debugw("periph driver failed to load", "driver", failure.D.String(), "error", failure.Err)
	}
	freq := conf.DefaultPWMFreqHz
	if freq == 0 {
		freq = defaultPWMFreqHz
	}
	return &Board{pins: map[string]*gpioPin{}, defaultFreq: freq, logger: logger}, nil
}

// GPIOPinByName returns the pin registered under name.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pin, ok := b.pins[name]; ok {
		return pin, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no gpio pin named %q", name)
	}
	pin := &gpioPin{pin: p, pwmFreq: b.defaultFreq}
	b.pins[name] = pin
	return pin, nil
}

// Close halts every pin handed out.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs error
	for name, pin := range b.pins {
		if err := pin.pin.Halt(); err != nil {
			errs = multierr.Combine(errs, errors.Wrapf(err, "halting pin %s", name))
		}
	}
	return errs
}

type gpioPin struct {
	mu      sync.Mutex
	pin     gpio.PinIO
	pwm     float64
	pwmFreq uint
	input   bool
}

func (gp *gpioPin) Set(ctx context.Context, high bool) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.input = false
	gp.pwm = 0
	return gp.pin.Out(gpio.Level(high))
}

func (gp *gpioPin) Get(ctx context.Context) (bool, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pin.Read() == gpio.High, nil
}

func (gp *gpioPin) PWM(ctx context.Context) (float64, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pwm, nil
}

func (gp *gpioPin) SetPWM(ctx context.Context, dutyCycle float64) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.input = false
	if dutyCycle <= 0 {
		gp.pwm = 0
		return gp.pin.Out(gpio.Low)
	}
	if dutyCycle > 1 {
		dutyCycle = 1
	}
	duty := gpio.Duty(dutyCycle * float64(gpio.DutyMax))
	if err := gp.pin.PWM(duty, physic.Frequency(gp.pwmFreq)*physic.Hertz); err != nil {
		return errors.Wrapf(err, "setting pwm on %s", gp.pin.Name())
	}
	gp.pwm = dutyCycle
	return nil
}

func (gp *gpioPin) PWMFreq(ctx context.Context) (uint, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pwmFreq, nil
}

func (gp *gpioPin) SetPWMFreq(ctx context.Context, freqHz uint) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if freqHz == 0 {
		return nil
	}
	gp.pwmFreq = freqHz
	return nil
}

func (gp *gpioPin) WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	gp.mu.Lock()
	if !gp.input {
		if err := gp.pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
			gp.mu.Unlock()
			return false, errors.Wrapf(err, "configuring %s for edge detection", gp.pin.Name())
		}
		gp.input = true
	}
	gp.mu.Unlock()
	return gp.pin.WaitForEdge(timeout), nil
}

var _ board.EdgePin = (*gpioPin)(nil)
