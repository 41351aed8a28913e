package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
		err      bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"loud", DEBUG, true},
	} {
		level, err := LevelFromString(tc.in)
		if tc.err {
			test.That(t, err, test.ShouldNotBeNil)
			continue
		}
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}
}

func TestLevelJSON(t *testing.T) {
	data, err := WARN.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"warn"`)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"error"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("cycle", "error", 1.5)
	logger.Infof("steering %d", 2850)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "cycle")
	test.That(t, logs.All()[0].ContextMap()["error"], test.ShouldEqual, 1.5)
	test.That(t, logs.FilterMessage("steering 2850").Len(), test.ShouldEqual, 1)
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
}

func TestSublogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("robot")
	logger.AddAppender(NewWriterAppender(&buf))

	sub := logger.Sublogger("loop")
	sub.Info("tick")
	test.That(t, buf.String(), test.ShouldContainSubstring, "robot.loop")
	test.That(t, buf.String(), test.ShouldContainSubstring, "tick")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanefollow.log")
	logger := NewBlankLogger("file")
	logger.AddAppender(NewFileAppender(FileAppenderConfig{Path: path}))
	logger.Infow("bypass", "state", "braking")
	test.That(t, logger.Sync(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Contains(string(data), `"state":"braking"`), test.ShouldBeTrue)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("lanefollow", &buf)
	logger.Debug("hidden")
	logger.Warnw("servo", "width", 2850, "dangling")
	out := buf.String()
	test.That(t, out, test.ShouldNotContainSubstring, "hidden")
	test.That(t, out, test.ShouldContainSubstring, "WARN\tlanefollow\t")
	test.That(t, out, test.ShouldContainSubstring, "logging_test.go")
	test.That(t, out, test.ShouldContainSubstring, `{"width":2850,"dangling":"unpaired log key"}`)
}
