package classification

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/lanefollow/logging"
)

type fakeModel struct {
	detections []Detection
	err        error
}

func (m *fakeModel) Classify(ctx context.Context) ([]Detection, error) {
	return m.detections, m.err
}

func writeLabels(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestLoadLabels(t *testing.T) {
	labels, err := LoadLabels(writeLabels(t, "stop\n\n yield \ncar\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, labels, test.ShouldResemble, []string{"stop", "yield", "car"})

	_, err = LoadLabels(writeLabels(t, "\n\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClassifierZipsLabels(t *testing.T) {
	model := &fakeModel{detections: []Detection{
		{Rect: image.Rect(0, 0, 32, 32), Outputs: []float64{0.9, 0.05, 0.4}},
		{Rect: image.Rect(32, 0, 64, 32), Outputs: []float64{0.1}},
	}}
	conf := Config{Enabled: true, LabelsPath: writeLabels(t, "stop\nyield\ncar\n"), MinScore: 0.3}
	c := NewClassifier(conf, model, logging.NewTestLogger(t))
	test.That(t, c.Labels(), test.ShouldHaveLength, 3)

	res := c.Classify(context.Background())
	test.That(t, res.Err, test.ShouldBeNil)
	test.That(t, res.Detections, test.ShouldHaveLength, 2)

	first := res.Detections[0].Classifications
	test.That(t, first, test.ShouldHaveLength, 2)
	test.That(t, first[0].Label(), test.ShouldEqual, "stop")
	test.That(t, first[0].Score(), test.ShouldEqual, 0.9)
	test.That(t, first[1].Label(), test.ShouldEqual, "car")
	test.That(t, res.Detections[1].Classifications, test.ShouldBeEmpty)
	test.That(t, first.TopN(1)[0].Label(), test.ShouldEqual, "stop")
}

func TestClassifierLabelFilter(t *testing.T) {
	model := &fakeModel{detections: []Detection{{Outputs: []float64{0.9, 0.8}}}}
	conf := Config{Enabled: true, LabelsPath: writeLabels(t, "Stop\nYield\n"), Labels: []string{"yield"}}
	res := NewClassifier(conf, model, logging.NewTestLogger(t)).Classify(context.Background())
	test.That(t, res.Err, test.ShouldBeNil)
	test.That(t, res.Detections[0].Classifications, test.ShouldHaveLength, 1)
	test.That(t, res.Detections[0].Classifications[0].Label(), test.ShouldEqual, "Yield")
}

func TestClassifierFailures(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conf := Config{Enabled: true, LabelsPath: filepath.Join(t.TempDir(), "missing.txt")}

	res := NewClassifier(conf, &fakeModel{}, logger).Classify(context.Background())
	test.That(t, errors.Is(res.Err, ErrModelUnavailable), test.ShouldBeTrue)

	res = NewClassifier(conf, nil, logger).Classify(context.Background())
	test.That(t, errors.Is(res.Err, ErrModelUnavailable), test.ShouldBeTrue)

	conf.LabelsPath = writeLabels(t, "stop\n")
	res = NewClassifier(conf, &fakeModel{err: errors.New("tensor arena too small")}, logger).Classify(context.Background())
	test.That(t, errors.Is(res.Err, ErrInference), test.ShouldBeTrue)
	test.That(t, res.Err.Error(), test.ShouldContainSubstring, "tensor arena")
}

func TestConfigValidate(t *testing.T) {
	test.That(t, Config{}.Validate(), test.ShouldBeNil)
	test.That(t, Config{Enabled: true}.Validate(), test.ShouldNotBeNil)
	test.That(t, Config{Enabled: true, LabelsPath: "l.txt", MinScore: 2}.Validate(), test.ShouldNotBeNil)
	test.That(t, Config{Enabled: true, LabelsPath: "l.txt", MinScore: 0.5}.Validate(), test.ShouldBeNil)
}

func TestPostprocessors(t *testing.T) {
	in := Classifications{
		NewClassification(0.9, "Stop"),
		NewClassification(0.4, "speed_limit"),
		NewClassification(0.6, "pedestrian"),
	}

	out := NewScoreFilter(0.5)(in)
	test.That(t, out, test.ShouldHaveLength, 2)
	test.That(t, out[0].Label(), test.ShouldEqual, "Stop")
	test.That(t, out[1].Label(), test.ShouldEqual, "pedestrian")

	out = NewLabelFilter([]string{"STOP", "speed_limit"})(in)
	test.That(t, out, test.ShouldHaveLength, 2)
	test.That(t, out[1].Label(), test.ShouldEqual, "speed_limit")

	test.That(t, NewLabelFilter(nil)(in), test.ShouldHaveLength, 3)
}
