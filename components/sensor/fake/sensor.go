// Package fake implements a fake range sensor that plays back scripted readings.
package fake

import (
	"context"
	"sync"

	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

// Config describes a fake range sensor. Distance is reported whenever the script is empty; a zero
// distance means no reading.
type Config struct {
	Distance float64 `json:"distance,omitempty"`
}

func init() {
	registry.RegisterRangeSensor("fake", registry.RangeSensorRegistration{
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
			return &Sensor{Default: attrs.Distance}, nil
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

// Sensor returns queued readings in order, then Default forever.
type Sensor struct {
	mu      sync.Mutex
	queue   []float64
	reads   int
	Default float64
}

// NewSensor returns a sensor that will report readings in order. A reading of 0 or less means
// no reading.
func NewSensor(readings ...float64) *Sensor {
	return &Sensor{queue: readings}
}

// Push queues more readings.
func (s *Sensor) Push(readings ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, readings...)
}

// Distance returns the next scripted reading.
func (s *Sensor) Distance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	d := s.Default
	if len(s.queue) > 0 {
		d = s.queue[0]
		s.queue = s.queue[1:]
	}
	if d <= 0 {
		return 0, sensor.ErrNoReading
	}
	return d, nil
}

// Reads returns how many times Distance was called.
func (s *Sensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Close is a no-op.
func (s *Sensor) Close(ctx context.Context) error {
	return nil
}
