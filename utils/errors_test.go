package utils

import (
	"testing"

	"go.viam.com/test"
)

type actuator interface {
	Stop() error
}

type pinConfig struct{}

func TestDependencyTypeError(t *testing.T) {
	err := DependencyTypeError("steer", (*actuator)(nil), 12)
	test.That(t, err.Error(), test.ShouldEqual,
		`dependency "steer" should be an implementation of utils.actuator but it was a int`)

	err = DependencyTypeError("drive", &pinConfig{}, "GPIO13")
	test.That(t, err.Error(), test.ShouldContainSubstring, "*utils.pinConfig but it was a string")
}

func TestTypeStr(t *testing.T) {
	test.That(t, TypeStr(nil), test.ShouldEqual, "<unknown (nil interface)>")
	test.That(t, TypeStr((*actuator)(nil)), test.ShouldEqual, "utils.actuator")
	test.That(t, TypeStr(pinConfig{}), test.ShouldEqual, "utils.pinConfig")
	test.That(t, TypeStr(1.5), test.ShouldEqual, "float64")
}

func TestUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError(1.0, "x")
	test.That(t, err.Error(), test.ShouldEqual, "expected float64 but got string")
}
