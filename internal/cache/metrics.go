package cache

import (
	"sync/atomic"
	"time"
)

// StoreMetrics counts store traffic. Lookups are Get and Exists calls;
// writes are Set and Increment.
type StoreMetrics struct {
	hits     atomic.Int64
	misses   atomic.Int64
	writes   atomic.Int64
	deletes  atomic.Int64
	failures atomic.Int64
	rejected atomic.Int64
	since    time.Time
}

type MetricsSnapshot struct {
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	Writes   int64     `json:"writes"`
	Deletes  int64     `json:"deletes"`
	Failures int64     `json:"failures"`
	Rejected int64     `json:"rejected"`
	HitRatio float64   `json:"hitRatio"`
	Since    time.Time `json:"since"`
}

func newStoreMetrics() *StoreMetrics {
	return &StoreMetrics{since: time.Now().UTC()}
}

func (m *StoreMetrics) lookup(found bool) {
	if found {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
}

func (m *StoreMetrics) write()  { m.writes.Add(1) }
func (m *StoreMetrics) delete() { m.deletes.Add(1) }

// failure counts a failed call; rejected marks calls the breaker refused.
func (m *StoreMetrics) failure(rejected bool) {
	if rejected {
		m.rejected.Add(1)
		return
	}
	m.failures.Add(1)
}

func (m *StoreMetrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		Writes:   m.writes.Load(),
		Deletes:  m.deletes.Load(),
		Failures: m.failures.Load(),
		Rejected: m.rejected.Load(),
		Since:    m.since,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}
