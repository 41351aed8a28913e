// Package trafficlight turns blob and circle observations into a go/stop throttle override.
package trafficlight

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/lanefollow/vision"
)

// Signal is the light state read from one frame.
type Signal int

// Possible signals. SignalNone means no lit lamp was confirmed.
const (
	SignalNone Signal = iota
	SignalGo
	SignalStop
)

func (s Signal) String() string {
	switch s {
	case SignalGo:
		return "go"
	case SignalStop:
		return "stop"
	default:
		return "none"
	}
}

// Config configures the traffic light override. It is off unless enabled.
type Config struct {
	Enabled      bool    `json:"enabled"`
	MinArea      int     `json:"min_area"`
	GoThrottle   float64 `json:"go_throttle"`
	StopThrottle float64 `json:"stop_throttle"`
}

// DefaultConfig returns a disabled override with the tuned blob area.
func DefaultConfig() Config {
	return Config{MinArea: 100, GoThrottle: 15, StopThrottle: 0}
}

// Validate ensures all parts of the config are valid.
func (conf Config) Validate() error {
	if conf.MinArea < 0 {
		return errors.New("traffic_light min_area cannot be negative")
	}
	if conf.GoThrottle < 0 || conf.GoThrottle > 100 || conf.StopThrottle < 0 || conf.StopThrottle > 100 {
		return errors.New("traffic_light throttles must be duty cycle percents in [0, 100]")
	}
	return nil
}

// Classify reads the light. A lamp only counts when at least one circle was found; green wins
// over red when both are lit.
func Classify(obs vision.TrafficLightObservation, minArea int) Signal {
	if len(obs.Circles) == 0 {
		return SignalNone
	}
	lit := func(color vision.BlobColor) bool {
		return lo.ContainsBy(obs.Blobs, func(b vision.Blob) bool {
			return b.Color == color && b.Area > minArea
		})
	}
	switch {
	case lit(vision.BlobGreen):
		return SignalGo
	case lit(vision.BlobRed):
		return SignalStop
	default:
		return SignalNone
	}
}

// Policy maps signals to throttle.
type Policy struct {
	conf Config
}

// NewPolicy returns a policy for the given config.
func NewPolicy(conf Config) *Policy {
	return &Policy{conf: conf}
}

// Enabled reports whether the override should run at all.
func (p *Policy) Enabled() bool {
	return p.conf.Enabled
}

// Throttle returns the throttle for obs. fallback is used only when the policy is disabled; an
// enabled policy drives at the go throttle unless a red lamp is confirmed.
func (p *Policy) Throttle(obs vision.TrafficLightObservation, fallback float64) (float64, Signal) {
	if !p.conf.Enabled {
		return fallback, SignalNone
	}
	sig := Classify(obs, p.conf.MinArea)
	if sig == SignalStop {
		return p.conf.StopThrottle, sig
	}
	return p.conf.GoThrottle, sig
}
