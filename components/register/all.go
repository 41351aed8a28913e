// Package register registers all components
package register

import (
	// register components.
	_ "go.viam.com/lanefollow/components/board/fake"
	_ "go.viam.com/lanefollow/components/board/periph"
	_ "go.viam.com/lanefollow/components/motor/fake"
	_ "go.viam.com/lanefollow/components/motor/gpio"
	_ "go.viam.com/lanefollow/components/sensor/fake"
	_ "go.viam.com/lanefollow/components/sensor/serialrange"
	_ "go.viam.com/lanefollow/components/sensor/ultrasonic"
	_ "go.viam.com/lanefollow/components/servo/fake"
	_ "go.viam.com/lanefollow/components/servo/gpio"
	// register cameras.
	_ "go.viam.com/lanefollow/vision/source"
)
