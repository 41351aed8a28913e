package source

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/lanefollow/components/sensor"
	"go.viam.com/lanefollow/config"
	"go.viam.com/lanefollow/logging"
	"go.viam.com/lanefollow/registry"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/classification"
)

// ReplayConfig configures playback of a recorded JSON lines file.
type ReplayConfig struct {
	Path string `json:"path"`
	Loop bool   `json:"loop,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *ReplayConfig) Validate(path string) error {
	if conf.Path == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "path")
	}
	return nil
}

// ReplayRangeConfig points a range sensor at a replay camera's recorded distances.
type ReplayRangeConfig struct {
	Camera string `json:"camera"`
}

// Validate ensures all parts of the config are valid.
func (conf *ReplayRangeConfig) Validate(path string) ([]string, error) {
	if conf.Camera == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "camera")
	}
	return []string{conf.Camera}, nil
}

func init() {
	registry.RegisterCamera("replay", registry.CameraRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (vision.Camera, error) {
			attrs, err := registry.ConvertedAttributes[*ReplayConfig](conf)
			if err != nil {
				return nil, err
			}
			r, err := OpenReplay(attrs.Path)
			if err != nil {
				return nil, err
			}
			r.loop = attrs.Loop
			logger.Infow("replaying frames", "path", attrs.Path, "frames", r.Len())
			return r, nil
		},
		AttributeMapConverter: registry.AttributeConverter[*ReplayConfig](),
	})
	registry.RegisterRangeSensor("replay", registry.RangeSensorRegistration{
		Constructor: func(
			ctx context.Context,
			deps registry.Dependencies,
			conf config.Component,
			logger logging.Logger,
		) (sensor.RangeSensor, error) {
			attrs, err := registry.ConvertedAttributes[*ReplayRangeConfig](conf)
			if err != nil {
				return nil, err
			}
			return registry.FromDependencies[*ReplaySource](deps, attrs.Camera)
		},
		AttributeMapConverter: registry.AttributeConverter[*ReplayRangeConfig](),
	})
}

// ReplaySource plays back recorded frames. Each DetectLines call advances to the next frame, so
// one call per control cycle replays the recording at the loop's rate. The other detectors and
// Distance report on the current frame.
type ReplaySource struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	loop   bool
}

// OpenReplay reads every frame in the file at path.
func OpenReplay(path string) (*ReplaySource, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReplaySource(f)
}

// NewReplaySource reads JSON lines frames from r. Blank lines are skipped.
func NewReplaySource(r io.Reader) (*ReplaySource, error) {
	var frames []Frame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame, err := ParseFrame(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &ReplaySource{frames: frames}, nil
}

// Len returns the number of recorded frames.
func (r *ReplaySource) Len() int {
	return len(r.frames)
}

// Done reports whether every frame has been played and the source does not loop.
func (r *ReplaySource) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.loop && r.next >= len(r.frames)
}

// current must be called with mu held.
func (r *ReplaySource) current() (Frame, bool) {
	if r.next == 0 || r.next > len(r.frames) {
		return Frame{}, false
	}
	return r.frames[r.next-1], true
}

// DetectLines advances to the next frame and returns its lines inside roi. Past the end of a
// non-looping recording it returns io.EOF.
func (r *ReplaySource) DetectLines(ctx context.Context, roi image.Rectangle, params vision.LineParams) ([]vision.LineSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.frames) {
		if !r.loop || len(r.frames) == 0 {
			r.next = len(r.frames) + 1
			return nil, io.EOF
		}
		r.next = 0
	}
	r.next++
	frame, _ := r.current()
	return frame.LinesIn(roi), nil
}

// DetectTrafficLight returns the current frame's blobs and circles.
func (r *ReplaySource) DetectTrafficLight(ctx context.Context) (vision.TrafficLightObservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame, _ := r.current()
	return frame.TrafficLight(), nil
}

// Classify returns the current frame's model detections.
func (r *ReplaySource) Classify(ctx context.Context) ([]classification.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame, _ := r.current()
	return frame.Detections, nil
}

// Distance returns the range reading recorded with the current frame.
func (r *ReplaySource) Distance(ctx context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame, ok := r.current()
	if !ok || frame.Distance == nil {
		return 0, sensor.ErrNoReading
	}
	return *frame.Distance, nil
}

// Close is a no-op.
func (r *ReplaySource) Close(ctx context.Context) error {
	return nil
}
