package control

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/lanefollow/components/servo"
	"go.viam.com/lanefollow/vision"
	"go.viam.com/lanefollow/vision/lines"
)

func boundaries(leftX1, leftX2, leftTheta, rightX1, rightX2, rightTheta int) lines.Observation {
	return lines.Observation{
		Left:  &vision.LineSegment{X1: leftX1, X2: leftX2, Theta: leftTheta},
		Right: &vision.LineSegment{X1: rightX1, X2: rightX2, Theta: rightTheta},
	}
}

func TestLaneCenterIsFlooredMidpoint(t *testing.T) {
	for _, tc := range []struct {
		obs      lines.Observation
		expected float64
	}{
		{boundaries(100, 100, 45, 60, 60, 135), 80},
		{boundaries(101, 101, 45, 60, 60, 135), 80},    // 80.5
		{boundaries(100, 101, 45, 60, 60, 135), 80},    // 80.25
		{boundaries(103, 104, 45, 60, 61, 135), 82},    // 82
		{boundaries(150, 150, 45, 149, 150, 135), 149}, // 149.75
	} {
		st := NewLaneState(DefaultLaneConfig(), servo.DefaultRange())
		est := NewLaneErrorEstimator(DefaultLaneConfig()).Update(tc.obs, st)
		test.That(t, est.Measured, test.ShouldBeTrue)
		test.That(t, est.Center, test.ShouldEqual, tc.expected)
		test.That(t, st.LastCenter, test.ShouldEqual, tc.expected)
	}
}

func TestLaneCenteredGivesZeroError(t *testing.T) {
	conf := DefaultLaneConfig()
	st := NewLaneState(conf, servo.DefaultRange())
	e := NewLaneErrorEstimator(conf)
	for i := 0; i < conf.FilterSize; i++ {
		est := e.Update(boundaries(100, 100, 45, 60, 60, 135), st)
		test.That(t, est.Center, test.ShouldEqual, 80.0)
		test.That(t, est.Error, test.ShouldEqual, 0.0)
	}
	for _, s := range st.Filter.Samples() {
		test.That(t, s, test.ShouldEqual, 80.0)
	}
}

func TestLaneCarryForward(t *testing.T) {
	conf := DefaultLaneConfig()
	st := NewLaneState(conf, servo.DefaultRange())
	e := NewLaneErrorEstimator(conf)

	e.Update(boundaries(120, 120, 45, 70, 70, 135), st)
	test.That(t, st.LastCenter, test.ShouldEqual, 95.0)

	left := &vision.LineSegment{X1: 10, X2: 10, Theta: 45}
	for i, obs := range []lines.Observation{
		{},
		{Left: left},
		{Right: left},
		{},
		{},
	} {
		est := e.Update(obs, st)
		test.That(t, est.Measured, test.ShouldBeFalse)
		test.That(t, est.Center, test.ShouldEqual, 95.0)
		test.That(t, est.Deflection, test.ShouldEqual, 0.0)
		test.That(t, st.LastCenter, test.ShouldEqual, 95.0)
		test.That(t, st.Filter.Len(), test.ShouldEqual, 12)
		// 1 + (i+1) samples of 95, the rest still at the startup 80
		n := float64(i + 2)
		test.That(t, est.FilteredCenter, test.ShouldAlmostEqual, (n*95+(12-n)*80)/12)
	}
}

func TestLaneNoDataFromStartup(t *testing.T) {
	conf := DefaultLaneConfig()
	st := NewLaneState(conf, servo.DefaultRange())
	e := NewLaneErrorEstimator(conf)
	for i := 0; i < 5; i++ {
		est := e.Update(lines.Observation{}, st)
		test.That(t, est.Center, test.ShouldEqual, 80.0)
		test.That(t, est.Error, test.ShouldEqual, 0.0)
	}
}

func TestLaneErrorSign(t *testing.T) {
	conf := DefaultLaneConfig()
	conf.FilterSize = 1
	st := NewLaneState(conf, servo.DefaultRange())
	est := NewLaneErrorEstimator(conf).Update(boundaries(80, 80, 45, 40, 40, 135), st)
	test.That(t, est.FilteredCenter, test.ShouldEqual, 60.0)
	test.That(t, est.Error, test.ShouldEqual, 20.0)
}

func TestLaneDeflection(t *testing.T) {
	st := NewLaneState(DefaultLaneConfig(), servo.DefaultRange())
	est := NewLaneErrorEstimator(DefaultLaneConfig()).Update(boundaries(100, 100, 140, 60, 60, 60), st)
	test.That(t, est.Deflection, test.ShouldEqual, 40.0)

	est = NewLaneErrorEstimator(DefaultLaneConfig()).Update(boundaries(100, 100, 45, 60, 60, 50), st)
	test.That(t, est.Deflection, test.ShouldEqual, -2.5)
}
