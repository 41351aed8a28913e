// Package source provides cameras that receive already processed frames from an external vision
// provider, either live over UDP or replayed from a recording.
package source

import (
	"encoding/json"
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
)

// Frame is everything the vision provider reports for one camera frame. Distance carries a range
// reading taken alongside the frame, when the recorder had one.
type Frame struct {
	Seq        uint64                     `json:"seq,omitempty"`
	Lines      []vision.LineSegment       `json:"lines"`
	Blobs      []vision.Blob              `json:"blobs,omitempty"`
	Circles    []vision.Circle            `json:"circles,omitempty"`
	Detections []classification.Detection `json:"detections,omitempty"`
	Distance   *float64                   `json:"distance,omitempty"`
}

// ParseFrame decodes one JSON frame.
func ParseFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, errors.Wrap(err, "malformed frame")
	}
	return f, nil
}

// LinesIn returns the frame's lines clipped to roi. Lines entirely outside roi are dropped.
func (f Frame) LinesIn(roi image.Rectangle) []vision.LineSegment {
	return lo.FilterMap(f.Lines, func(l vision.LineSegment, _ int) (vision.LineSegment, bool) {
		return l.Clip(roi)
	})
}

// TrafficLight returns the frame's blobs and circles.
func (f Frame) TrafficLight() vision.TrafficLightObservation {
	return vision.TrafficLightObservation{Blobs: f.Blobs, Circles: f.Circles}
}
