package control

import (
	"math"

	"go.viam.com/lanefollow/vision/lines"
)

// LaneEstimate is the estimator's output for one cycle.
type LaneEstimate struct {
	// Measured is true when both boundaries were seen and Center was recomputed.
	Measured bool
	// Center is the raw lane center pushed into the filter.
	Center float64
	// FilteredCenter is the moving-average mean after the push.
	FilteredCenter float64
	// Error is DesiredCenter - FilteredCenter.
	Error float64
	// Deflection is half the angle difference between the boundaries, 0 unless both were seen.
	Deflection float64
}

// LaneErrorEstimator turns selected boundaries into a lateral error.
type LaneErrorEstimator struct {
	desiredCenter float64
}

// NewLaneErrorEstimator returns an estimator targeting conf.DesiredCenter.
func NewLaneErrorEstimator(conf LaneConfig) *LaneErrorEstimator {
	return &LaneErrorEstimator{desiredCenter: conf.DesiredCenter}
}

// Update folds obs into st. With fewer than two boundaries the last measured center is carried
// forward, so a dropped frame never produces an error spike.
func (e *LaneErrorEstimator) Update(obs lines.Observation, st *LaneState) LaneEstimate {
	var est LaneEstimate
	if obs.Both() {
		est.Measured = true
		est.Center = math.Floor((obs.Left.MeanX() + obs.Right.MeanX()) / 2)
		st.LastCenter = est.Center
		est.Deflection = float64(obs.Left.Theta-obs.Right.Theta) / 2
	} else {
		est.Center = st.LastCenter
	}

	est.FilteredCenter = st.Filter.Push(est.Center)
	est.Error = e.desiredCenter - est.FilteredCenter
	return est
}
