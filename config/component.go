package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	rutils "go.viam.com/lanefollow/utils"
)

// ComponentType is the kind of hardware a component config describes.
type ComponentType string

// Known component types.
const (
	ComponentTypeBoard       ComponentType = "board"
	ComponentTypeServo       ComponentType = "servo"
	ComponentTypeMotor       ComponentType = "motor"
	ComponentTypeRangeSensor ComponentType = "range_sensor"
	ComponentTypeCamera      ComponentType = "camera"
)

type dependencyValidator interface {
	Validate(path string) ([]string, error)
}

type validator interface {
	Validate(path string) error
}

// A Component describes the configuration of a component.
type Component struct {
	Name      string        `json:"name"`
	Type      ComponentType `json:"type"`
	Model     string        `json:"model"`
	DependsOn []string      `json:"depends_on,omitempty"`

	Attributes          rutils.AttributeMap `json:"attributes,omitempty"`
	ConvertedAttributes interface{}         `json:"-"`
	ImplicitDependsOn   []string            `json:"-"`
}

// Dependencies returns the user listed dependencies followed by the implicit ones, without repeats.
func (config *Component) Dependencies() []string {
	return lo.Uniq(append(append([]string(nil), config.DependsOn...), config.ImplicitDependsOn...))
}

// String returns a short representation of the config.
func (config *Component) String() string {
	return fmt.Sprintf("%s(%s/%s)", config.Name, config.Type, config.Model)
}

// Validate ensures all parts of the config are valid and returns dependencies.
func (config *Component) Validate(path string) ([]string, error) {
	if config.Name == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Type == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if config.Model == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	var deps []string
	switch v := config.ConvertedAttributes.(type) {
	case validator:
		if err := v.Validate(path); err != nil {
			return nil, err
		}
	case dependencyValidator:
		validatedDeps, err := v.Validate(path)
		if err != nil {
			return nil, err
		}
		deps = append(deps, validatedDeps...)
	}
	return deps, nil
}

// An AttributeMapConverter converts an attribute map into a native config type for a model.
type AttributeMapConverter func(attributes rutils.AttributeMap) (interface{}, error)

type converterKey struct {
	typ   ComponentType
	model string
}

var (
	convertersMu sync.RWMutex
	converters   = map[converterKey]AttributeMapConverter{}
)

// RegisterComponentAttributeMapConverter registers a converter for a component type and model.
func RegisterComponentAttributeMapConverter(typ ComponentType, model string, conv AttributeMapConverter) {
	convertersMu.Lock()
	defer convertersMu.Unlock()
	key := converterKey{typ, model}
	if _, ok := converters[key]; ok {
		panic(errors.Errorf("trying to register two attribute converters for %s model %s", typ, model))
	}
	converters[key] = conv
}

func findConverter(typ ComponentType, model string) AttributeMapConverter {
	convertersMu.RLock()
	defer convertersMu.RUnlock()
	return converters[converterKey{typ, model}]
}

type visitMark int

const (
	unvisited visitMark = iota
	visiting
	placed
)

// SortComponents orders components so that every component comes after the components it depends
// on. Components with no ordering constraint keep their relative config order.
func SortComponents(components []Component) ([]Component, error) {
	byName := make(map[string]Component, len(components))
	for _, c := range components {
		if _, ok := byName[c.Name]; ok {
			return nil, errors.Errorf("component name %q is not unique", c.Name)
		}
		byName[c.Name] = c
	}
	for _, c := range components {
		for _, dep := range c.Dependencies() {
			if _, ok := byName[dep]; !ok {
				return nil, errors.Errorf("component %q depends on unknown component %q", c.Name, dep)
			}
		}
	}

	marks := make(map[string]visitMark, len(components))
	sorted := make([]Component, 0, len(components))
	var chain []string
	var place func(name string) error
	place = func(name string) error {
		switch marks[name] {
		case placed:
			return nil
		case visiting:
			loop := chain[lo.IndexOf(chain, name):]
			return errors.Errorf("circular dependency detected in component list between %s",
				strings.Join(append(loop, name), " -> "))
		case unvisited:
		}
		marks[name] = visiting
		chain = append(chain, name)
		c := byName[name]
		for _, dep := range c.Dependencies() {
			if err := place(dep); err != nil {
				return err
			}
		}
		chain = chain[:len(chain)-1]
		marks[name] = placed
		sorted = append(sorted, c)
		return nil
	}
	for _, c := range components {
		if err := place(c.Name); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
