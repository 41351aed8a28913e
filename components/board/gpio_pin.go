package board

import (
	"context"
	"time"
)

// A GPIOPin is a single digital pin. Duty cycles are fractions in [0, 1].
type GPIOPin interface {
	Set(ctx context.Context, high bool) error
	Get(ctx context.Context) (bool, error)

	// PWM returns the duty cycle last set on the pin.
	PWM(ctx context.Context) (float64, error)
	SetPWM(ctx context.Context, dutyCycle float64) error

	// PWMFreq returns the PWM frequency. 0 means the board default.
	PWMFreq(ctx context.Context) (uint, error)
	SetPWMFreq(ctx context.Context, freqHz uint) error
}

// An EdgePin is an input pin that can block until its level changes.
type EdgePin interface {
	GPIOPin

	// WaitForEdge blocks until the pin changes level or timeout elapses. It returns false on
	// timeout.
	WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error)
}
