package utils

import (
	"reflect"

	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// DependencyTypeError is used when a configured component is not of the kind its role requires.
func DependencyTypeError(name string, expected, actual interface{}) error {
	return errors.Errorf("dependency %q should be an implementation of %s but it was a %T", name, TypeStr(expected), actual)
}

// TypeStr returns a readable name for the type of the input, resolving pointers to interfaces.
func TypeStr(of interface{}) string {
	if of == nil {
		return "<unknown (nil interface)>"
	}
	t := reflect.TypeOf(of)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem().String()
	}
	return t.String()
}
