package utils

import (
	"testing"

	"go.viam.com/test"
)

type pwmAttrs struct {
	Pin       string  `json:"pin"`
	Frequency int     `json:"frequency_hz,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

func TestAttributeMapGetters(t *testing.T) {
	am := AttributeMap{"pin": "GPIO18", "hz": 100.0, "gain": 2}
	test.That(t, am.Has("pin"), test.ShouldBeTrue)
	test.That(t, am.Has("nope"), test.ShouldBeFalse)
	test.That(t, am.String("pin"), test.ShouldEqual, "GPIO18")
	test.That(t, am.String("missing"), test.ShouldEqual, "")
	test.That(t, am.Int("hz", 0), test.ShouldEqual, 100)
	test.That(t, am.Int("missing", 7), test.ShouldEqual, 7)
	test.That(t, am.Float64("gain", 0), test.ShouldEqual, 2.0)
	test.That(t, func() { am.String("hz") }, test.ShouldPanic)

	var nilMap AttributeMap
	test.That(t, nilMap.Float64("x", 1.5), test.ShouldEqual, 1.5)
}

func TestTransformAttributeMap(t *testing.T) {
	conf, err := TransformAttributeMap[*pwmAttrs](AttributeMap{
		"pin":          "GPIO13",
		"frequency_hz": 1500.0,
		"scale":        0.5,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Pin, test.ShouldEqual, "GPIO13")
	test.That(t, conf.Frequency, test.ShouldEqual, 1500)
	test.That(t, conf.Scale, test.ShouldEqual, 0.5)

	_, err = TransformAttributeMap[*pwmAttrs](AttributeMap{"pin": "GPIO13", "colour": "red"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "colour")
}
