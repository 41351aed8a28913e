package vision

import (
	"context"
	"image"
)

// BlobColor is the color class a blob was segmented under.
type BlobColor string

// Blob colors reported by the provider.
const (
	BlobRed   BlobColor = "red"
	BlobGreen BlobColor = "green"
)

// Blob is a connected color region.
type Blob struct {
	Color BlobColor       `json:"color"`
	Rect  image.Rectangle `json:"rect"`
	Area  int             `json:"area"`
}

// Circle is a detected circle, used to confirm a blob is a lamp.
type Circle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"r"`
}

// TrafficLightObservation is the raw blob and circle output for one frame.
type TrafficLightObservation struct {
	Blobs   []Blob   `json:"blobs"`
	Circles []Circle `json:"circles"`
}

// A TrafficLightDetector returns the blobs and circles seen on the current frame.
type TrafficLightDetector interface {
	DetectTrafficLight(ctx context.Context) (TrafficLightObservation, error)
}
