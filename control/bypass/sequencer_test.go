package bypass

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/logging"
)

func newTestSequencer(t *testing.T) (*Sequencer, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	return NewSequencer(DefaultConfig(), servo.DefaultRange(), clk, logging.NewTestLogger(t)), clk
}

func far() Reading  { return Reading{Distance: 900, Valid: true} }
func near() Reading { return Reading{Distance: 300, Valid: true} }

func TestSequencerStaysTracking(t *testing.T) {
	seq, clk := newTestSequencer(t)
	for i := 0; i < 5; i++ {
		cmd := seq.Update(far(), 15)
		test.That(t, cmd.Active, test.ShouldBeFalse)
		test.That(t, cmd.Throttle, test.ShouldBeNil)
		test.That(t, cmd.Steering, test.ShouldBeEmpty)
		clk.Add(50 * time.Millisecond)
	}
	// the threshold is exclusive and invalid readings never trigger
	test.That(t, seq.Update(Reading{Distance: 440, Valid: true}, 15).Active, test.ShouldBeFalse)
	test.That(t, seq.Update(Reading{Distance: 10}, 15).Active, test.ShouldBeFalse)
	test.That(t, seq.State(), test.ShouldEqual, Tracking)
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 0)
}

func TestSequencerFullManeuver(t *testing.T) {
	seq, clk := newTestSequencer(t)

	cmd := seq.Update(near(), 15)
	test.That(t, cmd.State, test.ShouldEqual, Braking)
	test.That(t, cmd.Active, test.ShouldBeTrue)
	test.That(t, cmd.Entered, test.ShouldBeTrue)
	test.That(t, *cmd.Throttle, test.ShouldEqual, 0.0)
	test.That(t, cmd.Steering, test.ShouldBeEmpty)
	test.That(t, seq.NeedsReading(), test.ShouldBeFalse)
	test.That(t, seq.RestoreThrottle(), test.ShouldEqual, 15.0)

	clk.Add(time.Second)
	cmd = seq.Update(Reading{}, 0)
	test.That(t, cmd.State, test.ShouldEqual, Turning)
	test.That(t, *cmd.Throttle, test.ShouldEqual, 25.0)
	test.That(t, cmd.Steering, test.ShouldResemble, []int{3700})

	clk.Add(500 * time.Millisecond)
	cmd = seq.Update(Reading{}, 0)
	test.That(t, cmd.State, test.ShouldEqual, Returning)
	test.That(t, cmd.Throttle, test.ShouldBeNil)
	test.That(t, cmd.Steering, test.ShouldResemble, []int{2850, 2200})

	clk.Add(500 * time.Millisecond)
	cmd = seq.Update(Reading{}, 0)
	test.That(t, cmd.State, test.ShouldEqual, Tracking)
	test.That(t, cmd.Active, test.ShouldBeFalse)
	test.That(t, cmd.Entered, test.ShouldBeTrue)
	test.That(t, *cmd.Throttle, test.ShouldEqual, 15.0)
	test.That(t, seq.NeedsReading(), test.ShouldBeTrue)
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 1)
}

func TestSequencerBrakeIgnoresSensor(t *testing.T) {
	seq, clk := newTestSequencer(t)
	seq.Update(near(), 18)

	// readings during the maneuver are ignored, near or far
	for _, r := range []Reading{far(), near(), {}} {
		clk.Add(333 * time.Millisecond)
		cmd := seq.Update(r, 0)
		test.That(t, cmd.State, test.ShouldEqual, Braking)
		test.That(t, cmd.Active, test.ShouldBeTrue)
		test.That(t, cmd.Entered, test.ShouldBeFalse)
		test.That(t, cmd.Throttle, test.ShouldBeNil)
	}
	clk.Add(time.Millisecond)
	test.That(t, seq.Update(far(), 0).State, test.ShouldEqual, Turning)
}

func TestSequencerOneStatePerUpdate(t *testing.T) {
	seq, clk := newTestSequencer(t)
	seq.Update(near(), 15)
	clk.Add(10 * time.Second)
	test.That(t, seq.Update(Reading{}, 0).State, test.ShouldEqual, Turning)
	test.That(t, seq.Update(Reading{}, 0).State, test.ShouldEqual, Turning)
	clk.Add(500 * time.Millisecond)
	test.That(t, seq.Update(Reading{}, 0).State, test.ShouldEqual, Returning)
}

func TestSequencerRetrigger(t *testing.T) {
	seq, clk := newTestSequencer(t)
	for i := 0; i < 2; i++ {
		seq.Update(near(), 15)
		for j := 0; j < 3; j++ {
			clk.Add(time.Second)
			seq.Update(Reading{}, 0)
		}
		test.That(t, seq.State(), test.ShouldEqual, Tracking)
	}
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 2)
	test.That(t, seq.Update(near(), 15).State, test.ShouldEqual, Braking)
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 3)
}

// maneuver drives seq from Tracking through a whole maneuver and back to Tracking.
func maneuver(seq *Sequencer, clk *clock.Mock) {
	seq.Update(near(), 15)
	for j := 0; j < 3; j++ {
		clk.Add(time.Second)
		seq.Update(Reading{}, 0)
	}
}

func TestSequencerStuckSensorWarning(t *testing.T) {
	clk := clock.NewMock()
	logger, logs := logging.NewObservedTestLogger(t)
	seq := NewSequencer(DefaultConfig(), servo.DefaultRange(), clk, logger)

	maneuver(seq, clk)
	maneuver(seq, clk)
	test.That(t, logs.FilterMessageSnippet("stuck").Len(), test.ShouldEqual, 0)
	maneuver(seq, clk)
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 3)
	test.That(t, logs.FilterMessageSnippet("stuck").Len(), test.ShouldEqual, 1)

	clk = clock.NewMock()
	logger, logs = logging.NewObservedTestLogger(t)
	seq = NewSequencer(DefaultConfig(), servo.DefaultRange(), clk, logger)
	for i := 0; i < 4; i++ {
		maneuver(seq, clk)
		// a clear reading between maneuvers means the sensor is working
		seq.Update(far(), 15)
	}
	test.That(t, seq.Maneuvers(), test.ShouldEqual, 4)
	test.That(t, logs.FilterMessageSnippet("stuck").Len(), test.ShouldEqual, 0)
}

func TestSequencerDisabled(t *testing.T) {
	conf := DefaultConfig()
	conf.Disabled = true
	seq := NewSequencer(conf, servo.DefaultRange(), clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, seq.NeedsReading(), test.ShouldBeFalse)
	test.That(t, seq.Update(near(), 15).Active, test.ShouldBeFalse)
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate(), test.ShouldBeNil)
	conf := DefaultConfig()
	conf.BrakeMs = -1
	test.That(t, conf.Validate(), test.ShouldNotBeNil)
	conf = DefaultConfig()
	conf.AvoidThrottle = 101
	test.That(t, conf.Validate(), test.ShouldNotBeNil)
	test.That(t, Returning.String(), test.ShouldEqual, "returning")
}
