package motor

import "github.com/pkg/errors"

// NewThrottleOutOfRangeError returns an error representing a duty cycle outside of [0, 100].
func NewThrottleOutOfRangeError(dutyPct float64) error {
	return errors.Errorf("throttle %.2f%% is outside of [0, 100]", dutyPct)
}
