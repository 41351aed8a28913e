package control

import (
	"go.viam.com/lanefollow/components/servo"
)

// LaneState is everything the lane pipeline carries from one cycle to the next. It is owned by
// the control loop and mutated once per cycle.
type LaneState struct {
	// LastCenter is the last lane center measured with both boundaries visible.
	LastCenter float64
	// Filter is the moving-average window over lane centers.
	Filter *MovingAverage
	// PrevError is the error fed to the steering controller on the previous cycle.
	PrevError float64
	// PrevServoCommand is the last damped steering command.
	PrevServoCommand int
}

// NewLaneState returns the startup state: centered on the desired center and steering neutral.
func NewLaneState(lane LaneConfig, rng servo.Range) *LaneState {
	return &LaneState{
		LastCenter:       lane.DesiredCenter,
		Filter:           NewMovingAverage(lane.FilterSize, lane.DesiredCenter),
		PrevServoCommand: rng.Neutral,
	}
}
