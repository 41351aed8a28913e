package robot

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

const defaultStatsWindow = 1024

// LoopStats keeps the durations of the most recent cycles.
type LoopStats struct {
	mu      sync.Mutex
	window  []float64
	next    int
	full    bool
	cycles  uint64
	overran uint64
}

// StatsSummary describes cycle durations in milliseconds over the stats window.
type StatsSummary struct {
	Cycles uint64
	P50Ms  float64
	P99Ms  float64
	MaxMs  float64
}

// NewLoopStats keeps the last size cycle durations.
func NewLoopStats(size int) *LoopStats {
	if size < 1 {
		size = 1
	}
	return &LoopStats{window: make([]float64, size)}
}

// Record adds one cycle duration.
func (s *LoopStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window[s.next] = float64(d) / float64(time.Millisecond)
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.full = true
	}
	s.cycles++
}

// RecordOverrun counts a cycle that took longer than the control period.
func (s *LoopStats) RecordOverrun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overran++
}

// Overruns returns how many cycles took longer than the control period.
func (s *LoopStats) Overruns() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overran
}

// Summary computes percentiles over the window.
func (s *LoopStats) Summary() (StatsSummary, error) {
	s.mu.Lock()
	data := s.window[:s.next]
	if s.full {
		data = s.window
	}
	data = append([]float64(nil), data...)
	sum := StatsSummary{Cycles: s.cycles}
	s.mu.Unlock()

	if len(data) == 0 {
		return sum, nil
	}
	var err error
	if sum.P50Ms, err = stats.Percentile(data, 50); err != nil {
		return sum, err
	}
	if sum.P99Ms, err = stats.Percentile(data, 99); err != nil {
		return sum, err
	}
	if sum.MaxMs, err = stats.Max(data); err != nil {
		return sum, err
	}
	return sum, nil
}
