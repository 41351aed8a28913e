// Package servo defines the steering servo and the command range it accepts.
package servo

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// SubtypeName is the component type servos are configured under.
const SubtypeName = "servo"

// A Servo is driven by a raw pulse width in the driver's timer ticks. A width of 0 releases it.
type Servo interface {
	SetPulseWidth(ctx context.Context, width int) error
}

// Range is the physical steering range in pulse-width ticks. Neutral steers straight ahead.
type Range struct {
	Neutral int `json:"neutral"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// DefaultRange is the range of the vehicle's stock steering servo.
func DefaultRange() Range {
	return Range{Neutral: 2850, Min: 2200, Max: 3700}
}

// Validate checks Min <= Neutral <= Max.
func (r Range) Validate() error {
	if r.Min > r.Max {
		return errors.Errorf("servo min %d is above max %d", r.Min, r.Max)
	}
	if r.Neutral < r.Min || r.Neutral > r.Max {
		return errors.Errorf("servo neutral %d is outside [%d, %d]", r.Neutral, r.Min, r.Max)
	}
	return nil
}

// Clamp limits a command to the range.
func (r Range) Clamp(width int) int {
	return lo.Clamp(width, r.Min, r.Max)
}

// ClampFloat limits an unrounded command to the range.
func (r Range) ClampFloat(width float64) float64 {
	return lo.Clamp(width, float64(r.Min), float64(r.Max))
}

// Contains reports whether width is a command the range allows.
func (r Range) Contains(width int) bool {
	return width >= r.Min && width <= r.Max
}
