package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/lanefollow/logging"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "telemetry.db")
	start := time.Unix(1700000000, 0)

	rec, err := Open(ctx, path, "robot.json", start, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	steering := 2875
	throttle := 15.0
	distance := 612.5
	test.That(t, rec.Record(ctx, Cycle{
		Cycle: 1, At: start, LinesSeen: 2, Center: 81, FilteredCenter: 80.083, Error: -0.083,
		Steering: &steering, Throttle: &throttle, BypassState: "tracking", Distance: &distance,
	}), test.ShouldBeNil)
	test.That(t, rec.Record(ctx, Cycle{
		Cycle: 2, At: start.Add(50 * time.Millisecond), BypassState: "braking",
	}), test.ShouldBeNil)
	// cycle numbers are unique per session
	test.That(t, rec.Record(ctx, Cycle{Cycle: 2, BypassState: "braking"}), test.ShouldNotBeNil)

	cycles, err := rec.Cycles(ctx, rec.Session())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cycles, test.ShouldHaveLength, 2)
	test.That(t, *cycles[0].Steering, test.ShouldEqual, 2875)
	test.That(t, *cycles[0].Throttle, test.ShouldEqual, 15.0)
	test.That(t, *cycles[0].Distance, test.ShouldEqual, 612.5)
	test.That(t, cycles[0].At.Equal(start), test.ShouldBeTrue)
	test.That(t, cycles[1].Steering, test.ShouldBeNil)
	test.That(t, cycles[1].Distance, test.ShouldBeNil)
	test.That(t, cycles[1].BypassState, test.ShouldEqual, "braking")
	test.That(t, rec.Close(), test.ShouldBeNil)

	// a second session in the same file gets its own id
	rec2, err := Open(ctx, path, "robot.json", start, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec2.Session(), test.ShouldNotEqual, rec.Session())
	cycles, err = rec2.Cycles(ctx, rec2.Session())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cycles, test.ShouldBeEmpty)
	old, err := rec2.Cycles(ctx, rec.Session())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, old, test.ShouldHaveLength, 2)
	test.That(t, rec2.Close(), test.ShouldBeNil)
}
