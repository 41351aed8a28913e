package control

import (
	"testing"

	"go.viam.com/test"
)

func TestMovingAverageStartsFilled(t *testing.T) {
	m := NewMovingAverage(12, 80)
	test.That(t, m.Len(), test.ShouldEqual, 12)
	test.That(t, m.Mean(), test.ShouldEqual, 80.0)
	for _, s := range m.Samples() {
		test.That(t, s, test.ShouldEqual, 80.0)
	}
}

func TestMovingAverageFIFO(t *testing.T) {
	m := NewMovingAverage(3, 0)
	test.That(t, m.Push(3), test.ShouldEqual, 1.0)
	test.That(t, m.Push(6), test.ShouldEqual, 3.0)
	test.That(t, m.Push(9), test.ShouldEqual, 6.0)
	test.That(t, m.Push(12), test.ShouldEqual, 9.0)
	test.That(t, m.Samples(), test.ShouldResemble, []float64{6, 9, 12})
	test.That(t, m.Len(), test.ShouldEqual, 3)
}

func TestMovingAverageAlwaysFull(t *testing.T) {
	m := NewMovingAverage(12, 80)
	sum := 0.0
	for i := 0; i < 30; i++ {
		m.Push(float64(i))
		test.That(t, m.Len(), test.ShouldEqual, 12)
	}
	for i := 18; i < 30; i++ {
		sum += float64(i)
	}
	test.That(t, m.Mean(), test.ShouldAlmostEqual, sum/12)
}

func TestMovingAverageMinimumSize(t *testing.T) {
	m := NewMovingAverage(0, 5)
	test.That(t, m.Len(), test.ShouldEqual, 1)
	test.That(t, m.Push(7), test.ShouldEqual, 7.0)
}
