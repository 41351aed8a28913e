package source

import (
	"context"
	"image"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
)

const (
	defaultReadBuffer = 64 * 1024
	defaultMaxAgeMs   = 250
	readErrorBackoff  = 100 * time.Millisecond
)

type datagramReader interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
}

// UDPConfig configures a live frame listener.
type UDPConfig struct {
	Addr       string `json:"addr"`
	ReadBuffer int    `json:"read_buffer,omitempty"`
	// MaxAgeMs is how long a frame stays current; older frames count as no observation.
	MaxAgeMs int `json:"max_age_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *UDPConfig) Validate(path string) error {
	if conf.Addr == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "addr")
	}
	if _, err := net.ResolveUDPAddr("udp", conf.Addr); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

func init() {
	registry.RegisterCamera("udp", registry.CameraRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (vision.Camera, error) {
			attrs, err := registry.ConvertedAttributes[*UDPConfig](conf)
			if err != nil {
				return nil, err
			}
			return NewUDPSource(attrs, clock.New(), logger)
		},
		AttributeMapConverter: registry.AttributeConverter[*UDPConfig](),
	})
}

// UDPSource keeps the latest frame received on a UDP socket, one JSON frame per datagram.
type UDPSource struct {
	conn   *net.UDPConn
	maxAge time.Duration
	clock  clock.Clock
	logger logging.Logger

	mu         sync.RWMutex
	last       Frame
	receivedAt time.Time
	seq        uint64

	received atomic.Uint64
	dropped  atomic.Uint64

	cancelCtx               context.Context
	cancel                  func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewUDPSource binds the socket and starts receiving.
func NewUDPSource(conf *UDPConfig, clk clock.Clock, logger logging.Logger) (*UDPSource, error) {
	addr, err := net.ResolveUDPAddr("udp", conf.Addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot listen on %s", conf.Addr)
	}
	bufSize := conf.ReadBuffer
	if bufSize <= 0 {
		bufSize = defaultReadBuffer
	}
	maxAgeMs := conf.MaxAgeMs
	if maxAgeMs <= 0 {
		maxAgeMs = defaultMaxAgeMs
	}

	s := newUDPSource(time.Duration(maxAgeMs)*time.Millisecond, clk, logger)
	s.conn = conn
	s.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() { s.receive(conn, bufSize) }, s.activeBackgroundWorkers.Done)
	logger.Infow("listening for frames", "addr", conn.LocalAddr().String())
	return s, nil
}

func newUDPSource(maxAge time.Duration, clk clock.Clock, logger logging.Logger) *UDPSource {
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &UDPSource{maxAge: maxAge, clock: clk, logger: logger, cancelCtx: cancelCtx, cancel: cancel}
}

func (s *UDPSource) receive(r datagramReader, bufSize int) {
	buf := make([]byte, bufSize)
	for {
		n, _, err := r.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.dropped.Inc()
			s.logger.Debugw("frame read failed", "error", err)
			if !goutils.SelectContextOrWait(s.cancelCtx, readErrorBackoff) {
				return
			}
			continue
		}
		frame, err := ParseFrame(buf[:n])
		if err != nil {
			s.dropped.Inc()
			s.logger.Debugw("dropping frame", "error", err)
			continue
		}
		s.received.Inc()
		s.update(frame)
	}
}

func (s *UDPSource) update(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = frame
	s.receivedAt = s.clock.Now()
	s.seq++
}

// Snapshot returns the most recent frame and whether it is still current.
func (s *UDPSource) Snapshot() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seq == 0 || s.clock.Since(s.receivedAt) > s.maxAge {
		return Frame{}, false
	}
	return s.last, true
}

// Addr returns the bound address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Stats returns how many frames were accepted and dropped.
func (s *UDPSource) Stats() (received, dropped uint64) {
	return s.received.Load(), s.dropped.Load()
}

// DetectLines returns the current frame's lines inside roi. The detector thresholds are owned by
// the sender, so params are not used. A stale frame yields no lines.
func (s *UDPSource) DetectLines(ctx context.Context, roi image.Rectangle, params vision.LineParams) ([]vision.LineSegment, error) {
	frame, ok := s.Snapshot()
	if !ok {
		return nil, nil
	}
	return frame.LinesIn(roi), nil
}

// DetectTrafficLight returns the current frame's blobs and circles.
func (s *UDPSource) DetectTrafficLight(ctx context.Context) (vision.TrafficLightObservation, error) {
	frame, ok := s.Snapshot()
	if !ok {
		return vision.TrafficLightObservation{}, nil
	}
	return frame.TrafficLight(), nil
}

// Classify returns the current frame's model detections.
func (s *UDPSource) Classify(ctx context.Context) ([]classification.Detection, error) {
	frame, ok := s.Snapshot()
	if !ok {
		return nil, nil
	}
	return frame.Detections, nil
}

// Close stops receiving.
func (s *UDPSource) Close(ctx context.Context) error {
	s.cancel()
	err := s.conn.Close()
	s.activeBackgroundWorkers.Wait()
	return err
}
