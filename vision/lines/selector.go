// Package lines picks lane-boundary candidates out of the raw segments a detector returns.
package lines

import (
	"go.viam.com/lanefollow/vision"
)

// Angles the detector reports for degenerate, near axis-aligned artifacts.
const (
	degenerateHorizontalDeg = 0
	degenerateVerticalDeg   = 89
)

// Observation holds the selected boundaries for one cycle. Either side may be absent.
//
// The naming follows the vehicle's steering convention: Left is the segment with the largest
// mean x and Right the one with the smallest. The error sign downstream depends on this.
type Observation struct {
	Left  *vision.LineSegment
	Right *vision.LineSegment
}

// Both reports whether both boundaries were found.
func (o Observation) Both() bool {
	return o.Left != nil && o.Right != nil
}

// Count returns how many boundaries were found.
func (o Observation) Count() int {
	n := 0
	if o.Left != nil {
		n++
	}
	if o.Right != nil {
		n++
	}
	return n
}

// Degenerate reports whether the detector's angle marks the segment as an artifact.
func Degenerate(seg vision.LineSegment) bool {
	return seg.Theta == degenerateHorizontalDeg || seg.Theta == degenerateVerticalDeg
}

// Select runs a single pass over segments keeping two independent extremum trackers. The left
// tracker is seeded at 0 and the right one at imageWidth; updates use strict inequalities so the
// first segment wins a tie. A segment may be chosen for both sides.
func Select(segments []vision.LineSegment, imageWidth int) Observation {
	var obs Observation
	maxLeft := 0.0
	minRight := float64(imageWidth)
	for i := range segments {
		seg := segments[i]
		if Degenerate(seg) {
			continue
		}
		meanX := seg.MeanX()
		if meanX > maxLeft {
			maxLeft = meanX
			obs.Left = &segments[i]
		}
		if meanX < minRight {
			minRight = meanX
			obs.Right = &segments[i]
		}
	}
	return obs
}
