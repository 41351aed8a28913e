package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/lanefollow/logging"
	rutils "go.viam.com/lanefollow/utils"
)

type pinAttrs struct {
	Board string `json:"board"`
	Pin   string `json:"pin"`
}

func (conf *pinAttrs) Validate(path string) ([]string, error) {
	if conf.Pin == "" {
		return nil, errors.Errorf("%s: pin is required", path)
	}
	return []string{conf.Board}, nil
}

const testType = ComponentType("test_actuator")

func init() {
	RegisterComponentAttributeMapConverter(testType, "pin", func(attributes rutils.AttributeMap) (interface{}, error) {
		return rutils.TransformAttributeMap[*pinAttrs](attributes)
	})
}

const validConfig = `{
	"control_hz": 30,
	"roles": {"steering": "steer", "throttle": "drive", "camera": "cam"},
	"steering": {"kp": 90},
	"obstacle": {"threshold": 300},
	"components": [
		{"name": "steer", "type": "test_actuator", "model": "pin", "attributes": {"board": "pi", "pin": "${STEER_PIN}"}},
		{"name": "drive", "type": "test_actuator", "model": "pin", "attributes": {"board": "pi", "pin": "13"}},
		{"name": "pi", "type": "board", "model": "fake"},
		{"name": "cam", "type": "camera", "model": "replay"}
	]
}`

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(validConfig), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.ControlHz, test.ShouldEqual, 30.0)
	test.That(t, cfg.Steering.Kp, test.ShouldEqual, 90.0)
	// untouched fields keep their defaults
	test.That(t, cfg.Steering.Kd, test.ShouldEqual, 0.15)
	test.That(t, cfg.Steering.Range.Neutral, test.ShouldEqual, 2850)
	test.That(t, cfg.Obstacle.Threshold, test.ShouldEqual, 300.0)
	test.That(t, cfg.Obstacle.BrakeMs, test.ShouldEqual, 1000)
	test.That(t, cfg.Lane.FilterSize, test.ShouldEqual, 12)
	test.That(t, cfg.Vision.ROI.Rect().Min.Y, test.ShouldEqual, 30)
	test.That(t, cfg.Vision.ROI.Rect().Max.Y, test.ShouldEqual, 100)

	// the board is sorted ahead of the actuators that use it
	names := make([]string, 0, len(cfg.Components))
	for _, c := range cfg.Components {
		names = append(names, c.Name)
	}
	test.That(t, names[0], test.ShouldEqual, "pi")
	steer := cfg.FindComponent("steer")
	test.That(t, steer.ConvertedAttributes, test.ShouldHaveSameTypeAs, &pinAttrs{})
	test.That(t, steer.Dependencies(), test.ShouldResemble, []string{"pi"})
}

func TestReadExpandsEnv(t *testing.T) {
	t.Setenv("STEER_PIN", "18")
	path := filepath.Join(t.TempDir(), "robot.json")
	test.That(t, os.WriteFile(path, []byte(validConfig), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.FindComponent("steer").ConvertedAttributes.(*pinAttrs).Pin, test.ShouldEqual, "18")

	_, err = Read(filepath.Join(t.TempDir(), "nope.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name, json, msg string
	}{
		{"unknown field", `{"control_hzz": 1}`, "control_hzz"},
		{"bad rate", `{"control_hz": 0}`, "control_hz"},
		{"bad damping", `{"steering": {"damping": 1}}`, "damping"},
		{"missing role", `{"roles": {"steering": "a", "throttle": "b"}}`, "camera"},
		{"unknown role", `{"roles": {"steering": "a", "throttle": "b", "camera": "c"}}`, "unknown component"},
		{"bad attrs", `{"components": [{"name": "x", "type": "test_actuator", "model": "pin", "attributes": {"bogus": 1}}]}`, "bogus"},
		{"missing pin", `{"components": [{"name": "x", "type": "test_actuator", "model": "pin", "attributes": {"board": "b"}}]}`, "pin is required"},
		{"no name", `{"components": [{"type": "board", "model": "fake"}]}`, "name"},
		{"bad level", `{"log": {"level": "loud"}}`, "loud"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("", strings.NewReader(tc.json), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestSortComponents(t *testing.T) {
	a := Component{Name: "a", DependsOn: []string{"b"}}
	b := Component{Name: "b", DependsOn: []string{"c"}}
	c := Component{Name: "c"}
	sorted, err := SortComponents([]Component{a, b, c})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sorted[0].Name, test.ShouldEqual, "c")
	test.That(t, sorted[2].Name, test.ShouldEqual, "a")

	c.DependsOn = []string{"a"}
	_, err = SortComponents([]Component{a, b, c})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "circular dependency")

	_, err = SortComponents([]Component{a, a})
	test.That(t, err.Error(), test.ShouldContainSubstring, "not unique")

	_, err = SortComponents([]Component{a})
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown component")
}

func TestRegisterConverterTwice(t *testing.T) {
	test.That(t, func() {
		RegisterComponentAttributeMapConverter(testType, "pin", nil)
	}, test.ShouldPanic)
}
