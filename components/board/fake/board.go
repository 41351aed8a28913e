// Package fake implements a fake board whose pins read back the values written to them.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

func init() {
	registry.RegisterBoard("fake", registry.BoardRegistration{
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
			if attrs.FailNew {
				return nil, errors.New("whoops")
			}
			return NewBoard(nil), nil
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

// Config describes a fake board. FailNew makes construction fail.
type Config struct {
	FailNew bool `json:"fail_new,omitempty"`
}

// Board is a fake board that lazily creates pins on lookup.
type Board struct {
	mu    sync.Mutex
	pins  map[string]*GPIOPin
	clock clock.Clock
}

// NewBoard returns a fake board. Edge waits on its pins advance clk when it is a mock.
func NewBoard(clk clock.Clock) *Board {
	if clk == nil {
		clk = clock.New()
	}
	return &Board{pins: map[string]*GPIOPin{}, clock: clk}
}

// GPIOPinByName returns the pin with the given name, creating it if needed.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	return b.Pin(name), nil
}

// Pin returns the concrete fake pin so tests can inspect or script it.
func (b *Board) Pin(name string) *GPIOPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	pin, ok := b.pins[name]
	if !ok {
		pin = &GPIOPin{clock: b.clock}
		b.pins[name] = pin
	}
	return pin
}

// Close is a no-op.
func (b *Board) Close(ctx context.Context) error {
	return nil
}

// A GPIOPin reads back the same set values and records every PWM write.
type GPIOPin struct {
	high       bool
	pwm        float64
	pwmFreq    uint
	pwmHistory []float64
	setHistory []bool

	// Edges scripts WaitForEdge: each call consumes one entry, advances a mock clock by it and
	// toggles the pin level. An empty script times out.
	Edges []time.Duration

	clock clock.Clock
	mu    sync.Mutex
}

// Set sets the pin to either low or high.
func (gp *GPIOPin) Set(ctx context.Context, high bool) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.high = high
	gp.pwm = 0
	gp.setHistory = append(gp.setHistory, high)
	return nil
}

// Get gets the high/low state of the pin.
func (gp *GPIOPin) Get(ctx context.Context) (bool, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	return gp.high, nil
}

// PWM gets the pin's given duty cycle.
func (gp *GPIOPin) PWM(ctx context.Context) (float64, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	return gp.pwm, nil
}

// SetPWM sets the pin to the given duty cycle.
func (gp *GPIOPin) SetPWM(ctx context.Context, dutyCycle float64) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.pwm = dutyCycle
	gp.pwmHistory = append(gp.pwmHistory, dutyCycle)
	return nil
}

// PWMFreq gets the PWM frequency of the pin.
func (gp *GPIOPin) PWMFreq(ctx context.Context) (uint, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	return gp.pwmFreq, nil
}

// SetPWMFreq sets the given pin to the given PWM frequency.
func (gp *GPIOPin) SetPWMFreq(ctx context.Context, freqHz uint) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.pwmFreq = freqHz
	return nil
}

// WaitForEdge consumes the next scripted edge.
func (gp *GPIOPin) WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error) {
	gp.mu.Lock()
	if len(gp.Edges) == 0 {
		gp.mu.Unlock()
		return false, nil
	}
	wait := gp.Edges[0]
	gp.Edges = gp.Edges[1:]
	gp.high = !gp.high
	gp.mu.Unlock()

	if wait > timeout {
		return false, nil
	}
	if mock, ok := gp.clock.(*clock.Mock); ok {
		mock.Add(wait)
	}
	return true, nil
}

// PWMHistory returns every duty cycle written, oldest first.
func (gp *GPIOPin) PWMHistory() []float64 {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return append([]float64(nil), gp.pwmHistory...)
}

// SetHistory returns every digital level written, oldest first.
func (gp *GPIOPin) SetHistory() []bool {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return append([]bool(nil), gp.setHistory...)
}

var _ board.EdgePin = (*GPIOPin)(nil)
