// Package fake implements a fake motor that records the throttle it is given.
package fake

import (
	"context"
	"sync"

	"go.viam.com/lanefollow/components/motor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

func init() {
	registry.RegisterMotor("fake", registry.MotorRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (motor.Motor, error) {
			return &Motor{Name: conf.Name, Logger: logger}, nil
		},
	})
}

// A Motor allows setting and reading a throttle without any hardware.
type Motor struct {
	mu      sync.Mutex
	Name    string
	Logger  logging.Logger
	history []float64
}

// SetThrottle records dutyPct.
func (m *Motor) SetThrottle(ctx context.Context, dutyPct float64) error {
	if err := motor.CheckThrottle(dutyPct); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, dutyPct)
	return nil
}

// Stop records a zero throttle.
func (m *Motor) Stop(ctx context.Context) error {
	return m.SetThrottle(ctx, 0)
}

// History returns every throttle set, oldest first.
func (m *Motor) History() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.history...)
}

// Throttle returns the current throttle.
func (m *Motor) Throttle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return 0
	}
	return m.history[len(m.history)-1]
}
