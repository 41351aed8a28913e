package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/lanefollow/logging"
)

// Read reads a config from the given file. ${VAR} references are expanded from the environment
// before decoding.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. Fields absent from the input keep
// their defaults.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath

	if err := processConfig(cfg, logger); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	return cfg, nil
}

// processConfig converts component attributes into their native types, validates the result
// and orders components so dependencies come first.
func processConfig(cfg *Config, logger logging.Logger) error {
	for idx, c := range cfg.Components {
		conv := findConverter(c.Type, c.Model)
		if conv == nil {
			logger.Debugw("no attribute converter registered", "component", c.Name, "type", c.Type, "model", c.Model)
			continue
		}
		converted, err := conv(c.Attributes)
		if err != nil {
			return errors.Wrapf(err, "error converting attributes for (%s, %s)", c.Type, c.Model)
		}
		cfg.Components[idx].ConvertedAttributes = converted
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	sorted, err := SortComponents(cfg.Components)
	if err != nil {
		return err
	}
	cfg.Components = sorted
	return nil
}
