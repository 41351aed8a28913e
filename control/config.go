// Package control turns lane observations into steering and throttle commands. Its state lives in
// LaneState, owned by the control loop.
package control

import (
	"github.com/pkg/errors"

	"go.viam.com/lanefollow/components/servo"
)

// LaneConfig configures the lane error estimator.
type LaneConfig struct {
	// DesiredCenter is the image x coordinate the lane center should sit at.
	DesiredCenter float64 `json:"desired_center"`
	// FilterSize is the number of samples in the moving-average window.
	FilterSize int `json:"filter_size"`
}

// SteeringConfig configures the PD steering controller.
type SteeringConfig struct {
	Kp      float64     `json:"kp"`
	Kd      float64     `json:"kd"`
	Damping float64     `json:"damping"`
	Range   servo.Range `json:"range"`
}

// SpeedConfig configures the deflection based throttle policy. Throttles are duty cycle percents.
type SpeedConfig struct {
	Normal                 float64 `json:"normal"`
	Cautious               float64 `json:"cautious"`
	DeflectionThresholdDeg float64 `json:"deflection_threshold_deg"`
}

// DefaultLaneConfig returns the estimator settings tuned for a 160 pixel wide frame.
func DefaultLaneConfig() LaneConfig {
	return LaneConfig{DesiredCenter: 80, FilterSize: 12}
}

// DefaultSteeringConfig returns the tuned PD gains.
func DefaultSteeringConfig() SteeringConfig {
	return SteeringConfig{Kp: 100, Kd: 0.15, Damping: 0.75, Range: servo.DefaultRange()}
}

// DefaultSpeedConfig returns the tuned throttle policy.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{Normal: 15, Cautious: 18, DeflectionThresholdDeg: 30}
}

// Validate ensures all parts of the config are valid.
func (conf LaneConfig) Validate() error {
	if conf.FilterSize < 1 {
		return errors.Errorf("lane filter_size must be at least 1, got %d", conf.FilterSize)
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (conf SteeringConfig) Validate() error {
	if conf.Damping < 0 || conf.Damping >= 1 {
		return errors.Errorf("steering damping must be in [0, 1), got %v", conf.Damping)
	}
	return errors.Wrap(conf.Range.Validate(), "steering range")
}

// Validate ensures all parts of the config are valid.
func (conf SpeedConfig) Validate() error {
	if conf.Normal < 0 || conf.Normal > 100 || conf.Cautious < 0 || conf.Cautious > 100 {
		return errors.New("speed throttles must be duty cycle percents in [0, 100]")
	}
	if conf.DeflectionThresholdDeg < 0 {
		return errors.New("speed deflection_threshold_deg cannot be negative")
	}
	return nil
}
