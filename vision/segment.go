// Package vision defines the observations the lane follower consumes from its vision provider
// and the narrow interfaces that provider must satisfy.
package vision

import (
	"context"
	"image"
	"math"
)

// LineSegment is a single detected line in image coordinates. Theta is the detector's
// orientation angle in whole degrees.
type LineSegment struct {
	X1    int `json:"x1"`
	Y1    int `json:"y1"`
	X2    int `json:"x2"`
	Y2    int `json:"y2"`
	Theta int `json:"theta"`
}

// MeanX returns the average x coordinate of both endpoints.
func (l LineSegment) MeanX() float64 {
	return float64(l.X1+l.X2) / 2
}

// Clip returns the part of the segment that lies inside roi, with the new endpoints rounded to
// whole pixels and Theta kept. ok is false when no part of the segment is inside.
func (l LineSegment) Clip(roi image.Rectangle) (clipped LineSegment, ok bool) {
	if roi.Empty() {
		return LineSegment{}, false
	}
	x0, y0 := float64(l.X1), float64(l.Y1)
	dx, dy := float64(l.X2-l.X1), float64(l.Y2-l.Y1)
	// Max is exclusive, like image.Point.In.
	minX, maxX := float64(roi.Min.X), float64(roi.Max.X-1)
	minY, maxY := float64(roi.Min.Y), float64(roi.Max.Y-1)

	enter, exit := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return LineSegment{}, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			enter = math.Max(enter, r)
		} else {
			exit = math.Min(exit, r)
		}
		if enter > exit {
			return LineSegment{}, false
		}
	}

	clipped = l
	if enter > 0 {
		clipped.X1 = int(math.Round(x0 + enter*dx))
		clipped.Y1 = int(math.Round(y0 + enter*dy))
	}
	if exit < 1 {
		clipped.X2 = int(math.Round(x0 + exit*dx))
		clipped.Y2 = int(math.Round(y0 + exit*dy))
	}
	return clipped, true
}

// LineParams are the detector thresholds passed through to the provider.
type LineParams struct {
	Threshold int `json:"threshold"`
	XStride   int `json:"x_stride"`
	YStride   int `json:"y_stride"`
}

// DefaultLineParams returns the detector thresholds the vehicle was tuned with.
func DefaultLineParams() LineParams {
	return LineParams{Threshold: 1550, XStride: 2, YStride: 1}
}

// DefaultROI is the lane window scanned on a 160x120 frame.
func DefaultROI() image.Rectangle {
	return image.Rect(0, 30, 160, 100)
}

// A LineDetector returns the line segments found inside roi on the current frame.
type LineDetector interface {
	DetectLines(ctx context.Context, roi image.Rectangle, params LineParams) ([]LineSegment, error)
}
