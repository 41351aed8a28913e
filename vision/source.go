package vision

import "context"

// A Camera is a vision provider: it detects lane lines and traffic light features on its most
// recent frame.
type Camera interface {
	LineDetector
	TrafficLightDetector

	Close(ctx context.Context) error
}
