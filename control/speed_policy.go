package control

import "math"

// SpeedPolicy picks the tracking throttle from the boundary deflection angle.
type SpeedPolicy struct {
	cfg SpeedConfig
}

// NewSpeedPolicy returns a policy using conf.
func NewSpeedPolicy(conf SpeedConfig) *SpeedPolicy {
	return &SpeedPolicy{cfg: conf}
}

// Throttle returns the normal throttle while |deflection| is under the threshold and the
// cautious one otherwise.
func (p *SpeedPolicy) Throttle(deflection float64) float64 {
	if math.Abs(deflection) < p.cfg.DeflectionThresholdDeg {
		return p.cfg.Normal
	}
	return p.cfg.Cautious
}
