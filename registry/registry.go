// Package registry operates the global registry of vehicle parts.
package registry

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/lanefollow/components/board"
	"go.viam.com/lanefollow/components/motor"
	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	rutils "go.viam.com/lanefollow/utils"
	"go.viam.com/lanefollow/vision"
)

// Dependencies are the already built components a constructor may use, by name.
type Dependencies map[string]interface{}

// Registration stores how to build one model of a component type.
type Registration[T any] struct {
	Constructor           func(ctx context.Context, deps Dependencies, conf config.Component, logger logging.Logger) (T, error)
	AttributeMapConverter config.AttributeMapConverter
}

type (
	// BoardRegistration builds a board.
	BoardRegistration = Registration[board.Board]
	// ServoRegistration builds a servo.
	ServoRegistration = Registration[servo.Servo]
	// MotorRegistration builds a motor.
	MotorRegistration = Registration[motor.Motor]
	// RangeSensorRegistration builds a range sensor.
	RangeSensorRegistration = Registration[sensor.RangeSensor]
	// CameraRegistration builds a camera.
	CameraRegistration = Registration[vision.Camera]
)

type modelRegistry[T any] struct {
	typ  config.ComponentType
	mu   sync.RWMutex
	regs map[string]Registration[T]
}

func newModelRegistry[T any](typ config.ComponentType) *modelRegistry[T] {
	return &modelRegistry[T]{typ: typ, regs: map[string]Registration[T]{}}
}

func (r *modelRegistry[T]) register(model string, reg Registration[T]) {
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for %s model %s", r.typ, model))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, old := r.regs[model]; old {
		panic(errors.Errorf("trying to register two %ss with same model %s", r.typ, model))
	}
	r.regs[model] = reg
	if reg.AttributeMapConverter != nil {
		config.RegisterComponentAttributeMapConverter(r.typ, model, reg.AttributeMapConverter)
	}
}

func (r *modelRegistry[T]) lookup(model string) (Registration[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[model]
	return reg, ok
}

func (r *modelRegistry[T]) create(ctx context.Context, deps Dependencies, conf config.Component, logger logging.Logger) (interface{}, error) {
	reg, ok := r.lookup(conf.Model)
	if !ok {
		return nil, errors.Errorf("unknown %s model %q", r.typ, conf.Model)
	}
	return reg.Constructor(ctx, deps, conf, logger)
}

// all registries
var (
	boardRegistry       = newModelRegistry[board.Board](config.ComponentTypeBoard)
	servoRegistry       = newModelRegistry[servo.Servo](config.ComponentTypeServo)
	motorRegistry       = newModelRegistry[motor.Motor](config.ComponentTypeMotor)
	rangeSensorRegistry = newModelRegistry[sensor.RangeSensor](config.ComponentTypeRangeSensor)
	cameraRegistry      = newModelRegistry[vision.Camera](config.ComponentTypeCamera)
)

// RegisterBoard registers a board model to a creator.
func RegisterBoard(model string, reg BoardRegistration) {
	boardRegistry.register(model, reg)
}

// RegisterServo registers a servo model to a creator.
func RegisterServo(model string, reg ServoRegistration) {
	servoRegistry.register(model, reg)
}

// RegisterMotor registers a motor model to a creator.
func RegisterMotor(model string, reg MotorRegistration) {
	motorRegistry.register(model, reg)
}

// RegisterRangeSensor registers a range sensor model to a creator.
func RegisterRangeSensor(model string, reg RangeSensorRegistration) {
	rangeSensorRegistry.register(model, reg)
}

// RegisterCamera registers a camera model to a creator.
func RegisterCamera(model string, reg CameraRegistration) {
	cameraRegistry.register(model, reg)
}

// BoardLookup looks up a board creator by the given model.
func BoardLookup(model string) (BoardRegistration, bool) {
	return boardRegistry.lookup(model)
}

// ServoLookup looks up a servo creator by the given model.
func ServoLookup(model string) (ServoRegistration, bool) {
	return servoRegistry.lookup(model)
}

// MotorLookup looks up a motor creator by the given model.
func MotorLookup(model string) (MotorRegistration, bool) {
	return motorRegistry.lookup(model)
}

// RangeSensorLookup looks up a range sensor creator by the given model.
func RangeSensorLookup(model string) (RangeSensorRegistration, bool) {
	return rangeSensorRegistry.lookup(model)
}

// CameraLookup looks up a camera creator by the given model.
func CameraLookup(model string) (CameraRegistration, bool) {
	return cameraRegistry.lookup(model)
}

// Create builds the component described by conf using the registration for its type and model.
func Create(ctx context.Context, deps Dependencies, conf config.Component, logger logging.Logger) (interface{}, error) {
	switch conf.Type {
	case config.ComponentTypeBoard:
		return boardRegistry.create(ctx, deps, conf, logger)
	case config.ComponentTypeServo:
		return servoRegistry.create(ctx, deps, conf, logger)
	case config.ComponentTypeMotor:
		return motorRegistry.create(ctx, deps, conf, logger)
	case config.ComponentTypeRangeSensor:
		return rangeSensorRegistry.create(ctx, deps, conf, logger)
	case config.ComponentTypeCamera:
		return cameraRegistry.create(ctx, deps, conf, logger)
	default:
		return nil, errors.Errorf("unknown component type %q", conf.Type)
	}
}

// FromDependencies returns the named dependency as a T.
func FromDependencies[T any](deps Dependencies, name string) (T, error) {
	var zero T
	res, ok := deps[name]
	if !ok {
		return zero, errors.Errorf("%q missing from dependencies", name)
	}
	typed, ok := res.(T)
	if !ok {
		return zero, rutils.DependencyTypeError(name, (*T)(nil), res)
	}
	return typed, nil
}

// BoardFromDependencies is a helper for getting the named board from a collection of dependencies.
func BoardFromDependencies(deps Dependencies, name string) (board.Board, error) {
	return FromDependencies[board.Board](deps, name)
}

// ConvertedAttributes returns conf's converted attributes as a T.
func ConvertedAttributes[T any](conf config.Component) (T, error) {
	attrs, ok := conf.ConvertedAttributes.(T)
	if !ok {
		var zero T
		return zero, rutils.NewUnexpectedTypeError(zero, conf.ConvertedAttributes)
	}
	return attrs, nil
}

// AttributeConverter returns an AttributeMapConverter decoding into T, which is usually a pointer
// to a config struct.
func AttributeConverter[T any]() config.AttributeMapConverter {
	return func(attributes rutils.AttributeMap) (interface{}, error) {
		return rutils.TransformAttributeMap[T](attributes)
	}
}
