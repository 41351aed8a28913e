package lines

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/lanefollow/vision"
)

func seg(x1, x2, theta int) vision.LineSegment {
	return vision.LineSegment{X1: x1, Y1: 30, X2: x2, Y2: 99, Theta: theta}
}

func TestSelectEmpty(t *testing.T) {
	obs := Select(nil, 160)
	test.That(t, obs.Left, test.ShouldBeNil)
	test.That(t, obs.Right, test.ShouldBeNil)
	test.That(t, obs.Count(), test.ShouldEqual, 0)
}

func TestSelectExtremes(t *testing.T) {
	segments := []vision.LineSegment{
		seg(70, 90, 45),  // mean 80
		seg(95, 105, 40), // mean 100
		seg(50, 70, 135), // mean 60
		seg(20, 40, 130), // mean 30
	}
	obs := Select(segments, 160)
	test.That(t, obs.Both(), test.ShouldBeTrue)
	test.That(t, obs.Left.MeanX(), test.ShouldEqual, 100.0)
	test.That(t, obs.Right.MeanX(), test.ShouldEqual, 30.0)
}

func TestSelectDiscardsDegenerate(t *testing.T) {
	segments := []vision.LineSegment{
		seg(150, 150, 0),
		seg(5, 5, 89),
		seg(60, 60, 30),
	}
	obs := Select(segments, 160)
	test.That(t, obs.Count(), test.ShouldEqual, 2)
	// the lone valid segment is both the max and the min
	test.That(t, obs.Left, test.ShouldEqual, obs.Right)
	test.That(t, obs.Left.Theta, test.ShouldEqual, 30)

	obs = Select([]vision.LineSegment{seg(10, 10, 0), seg(100, 100, 89)}, 160)
	test.That(t, obs.Count(), test.ShouldEqual, 0)
}

func TestSelectFirstWinsTies(t *testing.T) {
	segments := []vision.LineSegment{
		seg(90, 110, 10), // mean 100
		seg(100, 100, 20),
		seg(40, 80, 30), // mean 60
		seg(60, 60, 40),
	}
	obs := Select(segments, 160)
	test.That(t, obs.Left.Theta, test.ShouldEqual, 10)
	test.That(t, obs.Right.Theta, test.ShouldEqual, 30)
}

func TestSelectSeeds(t *testing.T) {
	// mean x of 0 never beats the left seed and a mean at the width never beats the right seed
	obs := Select([]vision.LineSegment{seg(0, 0, 45), seg(160, 160, 45)}, 160)
	test.That(t, obs.Left.MeanX(), test.ShouldEqual, 160.0)
	test.That(t, obs.Right.MeanX(), test.ShouldEqual, 0.0)

	obs = Select([]vision.LineSegment{seg(0, 0, 45)}, 160)
	test.That(t, obs.Left, test.ShouldBeNil)
	test.That(t, obs.Right, test.ShouldNotBeNil)
}
