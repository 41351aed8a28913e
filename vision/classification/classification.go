// Package classification labels the objects an on-board model finds in the frame.
package classification

import (
	"bufio"
	"context"
	"image"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/lanefollow/logging"
)

// Classification is a single label with its confidence.
type Classification interface {
	Score() float64
	Label() string
}

// Classifications is a list of labels and confidences.
type Classifications []Classification

// NewClassification creates a simple classification object.
func NewClassification(score float64, label string) Classification {
	return &classification{score, label}
}

type classification struct {
	score float64
	label string
}

// Score returns the confidence of the classification.
func (c *classification) Score() float64 {
	return c.score
}

// Label returns the class label of the classification.
func (c *classification) Label() string {
	return c.label
}

// TopN returns the n highest scoring classifications, best first.
func (cc Classifications) TopN(n int) Classifications {
	out := append(Classifications(nil), cc...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Detection is one window the model scored, with one raw output per label.
type Detection struct {
	Rect    image.Rectangle `json:"rect"`
	Outputs []float64       `json:"outputs"`
}

// A Model runs the classifier over the current frame.
type Model interface {
	Classify(ctx context.Context) ([]Detection, error)
}

var (
	// ErrModelUnavailable means the model or its labels could not be loaded.
	ErrModelUnavailable = errors.New("classification model unavailable")
	// ErrInference means the model was loaded but failed on this frame.
	ErrInference = errors.New("classification inference failed")
)

// Config configures the classifier. It is off unless enabled.
type Config struct {
	Enabled    bool     `json:"enabled"`
	LabelsPath string   `json:"labels_path"`
	MinScore   float64  `json:"min_score"`
	Labels     []string `json:"labels,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf Config) Validate() error {
	if !conf.Enabled {
		return nil
	}
	if conf.LabelsPath == "" {
		return errors.New("classification labels_path is required when enabled")
	}
	if conf.MinScore < 0 || conf.MinScore > 1 {
		return errors.Errorf("classification min_score must be in [0, 1], got %v", conf.MinScore)
	}
	return nil
}

// LoadLabels reads one label per line, skipping blank lines.
func LoadLabels(path string) ([]string, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if label := strings.TrimSpace(scanner.Text()); label != "" {
			labels = append(labels, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("no labels in %q", path)
	}
	return labels, nil
}

// Labeled is a detection window with its labeled scores.
type Labeled struct {
	Rect            image.Rectangle
	Classifications Classifications
}

// Result is the outcome of one classification pass. Err is nil or wraps ErrModelUnavailable or
// ErrInference.
type Result struct {
	Detections []Labeled
	Err        error
}

// Classifier pairs model outputs with labels and filters them.
type Classifier struct {
	model   Model
	labels  []string
	post    []Postprocessor
	loadErr error
	logger  logging.Logger
}

// NewClassifier loads labels and prepares the filters. A load failure does not fail
// construction; every Classify call reports it instead.
func NewClassifier(conf Config, model Model, logger logging.Logger) *Classifier {
	c := &Classifier{model: model, logger: logger}
	if model == nil {
		c.loadErr = errors.Wrap(ErrModelUnavailable, "no model configured")
	} else if labels, err := LoadLabels(conf.LabelsPath); err != nil {
		c.loadErr = errors.Wrapf(ErrModelUnavailable, "loading labels: %v", err)
	} else {
		c.labels = labels
	}
	if c.loadErr != nil {
		logger.Warnw("classifier disabled", "error", c.loadErr)
	}

	c.post = []Postprocessor{NewScoreFilter(conf.MinScore), NewLabelFilter(conf.Labels)}
	return c
}

// Labels returns the loaded labels.
func (c *Classifier) Labels() []string {
	return c.labels
}

// Classify runs the model once and labels every detection.
func (c *Classifier) Classify(ctx context.Context) Result {
	if c.loadErr != nil {
		return Result{Err: c.loadErr}
	}
	detections, err := c.model.Classify(ctx)
	if err != nil {
		return Result{Err: errors.Wrapf(ErrInference, "%v", err)}
	}

	out := make([]Labeled, 0, len(detections))
	for _, d := range detections {
		n := min(len(c.labels), len(d.Outputs))
		pairs := lo.Zip2(c.labels[:n], d.Outputs[:n])
		cc := make(Classifications, 0, n)
		for _, p := range pairs {
			cc = append(cc, NewClassification(p.B, p.A))
		}
		for _, pp := range c.post {
			cc = pp(cc)
		}
		out = append(out, Labeled{Rect: d.Rect, Classifications: cc})
	}
	return Result{Detections: out}
}
