package robot

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

type closer interface {
	Close(ctx context.Context) error
}

// robotParts are the actual parts that make up a robot, in the order they were built.
type robotParts struct {
	order     []string
	resources registry.Dependencies
	logger    logging.Logger
}

// newRobotParts returns a properly initialized set of parts.
func newRobotParts(logger logging.Logger) *robotParts {
	return &robotParts{resources: registry.Dependencies{}, logger: logger}
}

// processConfig constructs all components. They must already be sorted so dependencies come first.
func (parts *robotParts) processConfig(ctx context.Context, cfg *config.Config) error {
	for _, c := range cfg.Components {
		res, err := registry.Create(ctx, parts.resources, c, parts.logger.Sublogger(c.Name))
		if err != nil {
			return errors.Wrapf(err, "cannot build component %s", c.String())
		}
		parts.add(c.Name, res)
	}
	return nil
}

func (parts *robotParts) add(name string, res interface{}) {
	parts.order = append(parts.order, name)
	parts.resources[name] = res
}

// Names returns the names of all parts.
func (parts *robotParts) Names() []string {
	return append([]string(nil), parts.order...)
}

// Close attempts to close all parts, newest first. A part registered under two names is closed once.
func (parts *robotParts) Close(ctx context.Context) error {
	var allErrs error
	closed := map[interface{}]struct{}{}
	for i := len(parts.order) - 1; i >= 0; i-- {
		name := parts.order[i]
		c, ok := parts.resources[name].(closer)
		if !ok {
			continue
		}
		if _, done := closed[c]; done {
			continue
		}
		closed[c] = struct{}{}
		if err := c.Close(ctx); err != nil {
			allErrs = multierr.Combine(allErrs, errors.Wrapf(err, "error closing %s", name))
		}
	}
	return allErrs
}

func partByName[T any](parts *robotParts, role, name string) (T, error) {
	res, err := registry.FromDependencies[T](parts.resources, name)
	if err != nil {
		return res, errors.Wrapf(err, "role %s", role)
	}
	return res, nil
}
