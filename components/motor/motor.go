// Package motor defines the DC drive motor that sets the vehicle's speed.
package motor

import "context"

// SubtypeName is the component type motors are configured under.
const SubtypeName = "motor"

// A Motor is driven open loop by PWM duty cycle.
type Motor interface {
	// SetThrottle sets the duty cycle in percent, 0 through 100.
	SetThrottle(ctx context.Context, dutyPct float64) error

	// Stop cuts power to the motor.
	Stop(ctx context.Context) error
}

// CheckThrottle returns an error if dutyPct is not a duty cycle percent.
func CheckThrottle(dutyPct float64) error {
	if dutyPct < 0 || dutyPct > 100 {
		return NewThrottleOutOfRangeError(dutyPct)
	}
	return nil
}
