package obs

import (
	"sync"
	"time"

	"bmrengine/internal/app/middleware"
)

// Stats keeps in-process counters for the health and metrics commands of
// the line protocol, where no Prometheus scraper is attached.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	now       func() time.Time
	total     int64
	failed    int64
	byMethod  map[string]int64
	byOutcome map[string]int64
	durations time.Duration
}

var _ middleware.EstimateRecorder = (*Stats)(nil)

func NewStats() *Stats {
	return &Stats{
		started:   time.Now(),
		now:       time.Now,
		byMethod:  make(map[string]int64),
		byOutcome: make(map[string]int64),
	}
}

func (s *Stats) ObserveEstimate(method, outcome string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if outcome != middleware.OutcomeSuccess {
		s.failed++
	}
	s.byMethod[method]++
	s.byOutcome[outcome]++
	s.durations += elapsed
}

type HealthSummary struct {
	Status                string  `json:"status"`
	UptimeSeconds         float64 `json:"uptime_seconds"`
	CalculationsPerformed int64   `json:"calculations_performed"`
	FailedCalculations    int64   `json:"failed_calculations"`
}

type StatsSnapshot struct {
	CalculationsTotal    int64            `json:"calculations_total"`
	FailedCalculations   int64            `json:"failed_calculations"`
	ByMethod             map[string]int64 `json:"by_method"`
	ByOutcome            map[string]int64 `json:"by_outcome"`
	AverageCalculationMs float64          `json:"average_calculation_ms"`
	UptimeSeconds        float64          `json:"uptime_seconds"`
}

func (s *Stats) Health() HealthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HealthSummary{
		Status:                "healthy",
		UptimeSeconds:         s.uptime(),
		CalculationsPerformed: s.total,
		FailedCalculations:    s.failed,
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		CalculationsTotal:  s.total,
		FailedCalculations: s.failed,
		ByMethod:           make(map[string]int64, len(s.byMethod)),
		ByOutcome:          make(map[string]int64, len(s.byOutcome)),
		UptimeSeconds:      s.uptime(),
	}
	for k, v := range s.byMethod {
		snap.ByMethod[k] = v
	}
	for k, v := range s.byOutcome {
		snap.ByOutcome[k] = v
	}
	if s.total > 0 {
		snap.AverageCalculationMs = float64(s.durations.Microseconds()) / 1000 / float64(s.total)
	}
	return snap
}

func (s *Stats) uptime() float64 {
	return s.now().Sub(s.started).Seconds()
}
