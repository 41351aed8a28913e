package control

import (
	"gonum.org/v1/gonum/stat"
)

// MovingAverage is a fixed capacity FIFO whose mean smooths per-cycle noise. It always holds
// exactly its capacity in samples.
type MovingAverage struct {
	samples []float64
}

// NewMovingAverage returns a window of size samples, all set to fill.
func NewMovingAverage(size int, fill float64) *MovingAverage {
	if size < 1 {
		size = 1
	}
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = fill
	}
	return &MovingAverage{samples: samples}
}

// Push evicts the oldest sample, appends x and returns the new mean.
func (m *MovingAverage) Push(x float64) float64 {
	copy(m.samples, m.samples[1:])
	m.samples[len(m.samples)-1] = x
	return m.Mean()
}

// Mean is the arithmetic mean of the window.
func (m *MovingAverage) Mean() float64 {
	return stat.Mean(m.samples, nil)
}

// Len is the window size.
func (m *MovingAverage) Len() int {
	return len(m.samples)
}

// Samples returns a copy of the window, oldest first.
func (m *MovingAverage) Samples() []float64 {
	return append([]float64(nil), m.samples...)
}
