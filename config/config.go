// Package config defines the structures to configure the lane follower and its connected parts.
package config

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/lanefollow/control"
	"go.viam.com/lanefollow/control/bypass"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
	"go.viam.com/lanefollow/vision/trafficlight"
)

// A Config describes the configuration of the vehicle.
type Config struct {
	ControlHz float64 `json:"control_hz"`
	Roles     Roles   `json:"roles"`

	Vision         VisionConfig           `json:"vision"`
	Lane           control.LaneConfig     `json:"lane"`
	Steering       control.SteeringConfig `json:"steering"`
	Speed          control.SpeedConfig    `json:"speed"`
	Obstacle       bypass.Config          `json:"obstacle"`
	TrafficLight   trafficlight.Config    `json:"traffic_light"`
	Classification classification.Config  `json:"classification"`
	Telemetry      TelemetryConfig        `json:"telemetry"`
	Log            LogConfig              `json:"log"`

	Components []Component `json:"components,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Roles names which configured component plays each part in the loop.
type Roles struct {
	Steering    string `json:"steering"`
	Throttle    string `json:"throttle"`
	RangeSensor string `json:"range_sensor,omitempty"`
	Camera      string `json:"camera"`
}

// ROI is the lane window in image pixels.
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the window as a rectangle.
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// VisionConfig configures what is asked of the vision provider.
type VisionConfig struct {
	ROI        ROI               `json:"roi"`
	Lines      vision.LineParams `json:"lines"`
	ImageWidth int               `json:"image_width"`
}

// TelemetryConfig configures cycle recording. An empty path disables it.
type TelemetryConfig struct {
	Path string `json:"path,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string                      `json:"level,omitempty"`
	File  *logging.FileAppenderConfig `json:"file,omitempty"`
}

// Default returns a config populated with the tuned defaults and no components.
func Default() *Config {
	roi := vision.DefaultROI()
	return &Config{
		ControlHz: 20,
		Vision: VisionConfig{
			ROI:        ROI{X: roi.Min.X, Y: roi.Min.Y, Width: roi.Dx(), Height: roi.Dy()},
			Lines:      vision.DefaultLineParams(),
			ImageWidth: 160,
		},
		Lane:           control.DefaultLaneConfig(),
		Steering:       control.DefaultSteeringConfig(),
		Speed:          control.DefaultSpeedConfig(),
		Obstacle:       bypass.DefaultConfig(),
		TrafficLight:   trafficlight.DefaultConfig(),
		Classification: classification.Config{MinScore: 0.5},
	}
}

// FindComponent finds a particular component by name.
func (c *Config) FindComponent(name string) *Component {
	for i := range c.Components {
		if c.Components[i].Name == name {
			return &c.Components[i]
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid. Component attributes must already be
// converted for their validation to run.
func (c *Config) Validate() error {
	if c.ControlHz <= 0 {
		return errors.Errorf("control_hz must be positive, got %v", c.ControlHz)
	}
	if c.Vision.ImageWidth <= 0 {
		return utils.NewConfigValidationFieldRequiredError("vision", "image_width")
	}
	if c.Vision.ROI.Rect().Empty() {
		return errors.New("vision roi cannot be empty")
	}
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return errors.Wrap(err, "log")
	}

	var err error
	for _, v := range []interface{ Validate() error }{
		c.Lane, c.Steering, c.Speed, c.Obstacle, c.TrafficLight, c.Classification,
	} {
		err = multierr.Append(err, v.Validate())
	}
	if err != nil {
		return err
	}

	for idx := range c.Components {
		deps, err := c.Components[idx].Validate(fmt.Sprintf("components.%d", idx))
		if err != nil {
			return errors.Wrapf(err, "error validating component %q", c.Components[idx].Name)
		}
		c.Components[idx].ImplicitDependsOn = deps
	}

	roles := []struct {
		role, name string
		required   bool
	}{
		{"steering", c.Roles.Steering, true},
		{"throttle", c.Roles.Throttle, true},
		{"camera", c.Roles.Camera, true},
		{"range_sensor", c.Roles.RangeSensor, false},
	}
	for _, r := range roles {
		if r.required && r.name == "" {
			return utils.NewConfigValidationFieldRequiredError("roles", r.role)
		}
	}
	for _, r := range roles {
		if r.name != "" && c.FindComponent(r.name) == nil {
			return errors.Errorf("roles.%s names unknown component %q", r.role, r.name)
		}
	}
	return nil
}
