// Package serialrange implements a range sensor that streams one distance per line over a
// serial port, as many TF-Luna and Arduino based sonar boards do.
package serialrange

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
)

const (
	model = "serial"

	defaultBaudRate = 115200
	defaultMaxAgeMs = 200
)

// Config describes the serial port and how to scale what it reports.
type Config struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
	// Scale converts the reported unit into the unit the obstacle threshold uses.
	Scale float64 `json:"scale,omitempty"`
	// MaxAgeMs is how old the latest line may be and still count as a reading.
	MaxAgeMs int `json:"max_age_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Port == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "port")
	}
	if conf.BaudRate < 0 || conf.MaxAgeMs < 0 {
		return goutils.NewConfigValidationError(path, errors.New("baud_rate and max_age_ms cannot be negative"))
	}
	return nil
}

// SerialMode converts the config into the mode go.bug.st/serial opens ports with.
func (conf *Config) SerialMode() *serial.Mode {
	baud := conf.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	return &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
}

func init() {
	registry.RegisterRangeSensor(model, registry.RangeSensorRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (sensor.RangeSensor, error) {
			attrs, err := registry.ConvertedAttributes[*Config](conf)
			if err != nil {
				return nil, err
			}
			port, err := serial.Open(attrs.Port, attrs.SerialMode())
			if err != nil {
				return nil, errors.Wrapf(err, "cannot open serial port %q", attrs.Port)
			}
			return NewSensor(port, attrs, clock.New(), logger), nil
		},
		AttributeMapConverter: registry.AttributeConverter[*Config](),
	})
}

type reading struct {
	distance float64
	at       time.Time
}

// Sensor keeps the most recent line read from the port.
type Sensor struct {
	port   io.ReadCloser
	scale  float64
	maxAge time.Duration
	clock  clock.Clock
	logger logging.Logger

	mu     sync.Mutex
	latest *reading

	lines     atomic.Uint64
	badLines  atomic.Uint64
	closeOnce sync.Once

	activeBackgroundWorkers sync.WaitGroup
}

// NewSensor starts reading lines from port in the background.
func NewSensor(port io.ReadCloser, conf *Config, clk clock.Clock, logger logging.Logger) *Sensor {
	scale := conf.Scale
	if scale == 0 {
		scale = 1
	}
	maxAgeMs := conf.MaxAgeMs
	if maxAgeMs == 0 {
		maxAgeMs = defaultMaxAgeMs
	}
	s := &Sensor{
		port:   port,
		scale:  scale,
		maxAge: time.Duration(maxAgeMs) * time.Millisecond,
		clock:  clk,
		logger: logger,
	}
	s.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(s.readLoop, s.activeBackgroundWorkers.Done)
	return s
}

func (s *Sensor) readLoop() {
	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		s.lines.Inc()
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dist, err := strconv.ParseFloat(line, 64)
		if err != nil {
			s.badLines.Inc()
			s.logger.Debugw("skipping unparsable range line", "line", line)
			continue
		}
		s.mu.Lock()
		s.latest = &reading{distance: dist * s.scale, at: s.clock.Now()}
		s.mu.Unlock()
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debugw("range sensor stream ended", "error", err)
	}
}

// Distance returns the latest reading, or sensor.ErrNoReading when it is missing or stale.
func (s *Sensor) Distance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.clock.Since(s.latest.at) > s.maxAge {
		return 0, sensor.ErrNoReading
	}
	return s.latest.distance, nil
}

// Stats returns how many lines were read and how many could not be parsed.
func (s *Sensor) Stats() (lines, bad uint64) {
	return s.lines.Load(), s.badLines.Load()
}

// Close closes the port and waits for the reader to exit.
func (s *Sensor) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = s.port.Close()
		s.activeBackgroundWorkers.Wait()
	})
	return err
}
