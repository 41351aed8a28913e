// Package fake implements a fake servo that records every pulse width it is sent.
package fake

import (
	"context"
	"sync"

	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

func init() {
	registry.RegisterServo("fake", registry.ServoRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (servo.Servo, error) {
			return &Servo{}, nil
		},
	})
}

// Servo records pulse widths. Err, when set, is returned from every call.
type Servo struct {
	mu     sync.Mutex
	widths []int
	Err    error
}

// SetPulseWidth records width.
func (s *Servo) SetPulseWidth(ctx context.Context, width int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.widths = append(s.widths, width)
	return nil
}

// Widths returns every width sent, oldest first.
func (s *Servo) Widths() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.widths...)
}

// Last returns the most recent width, or -1 if none was sent.
func (s *Servo) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.widths) == 0 {
		return -1
	}
	return s.widths[len(s.widths)-1]
}
