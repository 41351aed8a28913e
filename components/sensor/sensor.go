// Package sensor defines the proximity sensors the obstacle maneuver reads.
package sensor

import (
	"context"

	"github.com/pkg/errors"
)

// SubtypeName is the component type range sensors are configured under.
const SubtypeName = "range_sensor"

// ErrNoReading is returned when the sensor had nothing to report this time.
var ErrNoReading = errors.New("no range reading available")

// A RangeSensor measures the distance to the nearest object ahead, in the sensor's units.
type RangeSensor interface {
	Distance(ctx context.Context) (float64, error)

	Close(ctx context.Context) error
}
