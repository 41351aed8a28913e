// Package board defines the interfaces that typically live on a single-board computer: the GPIO
// pins that drive the steering servo, the throttle motor and the range sensor.
package board

import (
	"context"

	"github.com/pkg/errors"
)

// SubtypeName is the component type boards are configured under.
const SubtypeName = "board"

// A Board exposes named pins.
type Board interface {
	// GPIOPinByName returns a GPIOPin by name.
	GPIOPinByName(name string) (GPIOPin, error)

	// Close releases any pins the board opened.
	Close(ctx context.Context) error
}

// EdgePinByName returns the named pin when the board supports edge detection on it.
func EdgePinByName(b Board, name string) (EdgePin, error) {
	pin, err := b.GPIOPinByName(name)
	if err != nil {
		return nil, err
	}
	edge, ok := pin.(EdgePin)
	if !ok {
		return nil, errors.Errorf("pin %q does not support edge detection", name)
	}
	return edge, nil
}
