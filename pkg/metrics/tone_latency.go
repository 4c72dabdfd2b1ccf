// Package metrics keeps in-process latency windows and pool health for /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

const defaultWindow = 1000

// LatencyTracker holds the last N latencies in a ring buffer.
type LatencyTracker struct {
	mu    sync.Mutex
	ring  []float64 // microseconds
	next  int
	full  bool
	count int64
}

func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = defaultWindow
	}
	return &LatencyTracker{ring: make([]float64, window)}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	lt.ring[lt.next] = float64(d.Microseconds())
	lt.next++
	if lt.next == len(lt.ring) {
		lt.next, lt.full = 0, true
	}
	lt.count++
	lt.mu.Unlock()
}

func (lt *LatencyTracker) snapshot() (stats.Float64Data, int64) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	n := lt.next
	if lt.full {
		n = len(lt.ring)
	}
	return append(stats.Float64Data(nil), lt.ring[:n]...), lt.count
}

// Stats summarizes the current window. Count covers every sample ever recorded.
func (lt *LatencyTracker) Stats() LatencyStats {
	window, count := lt.snapshot()
	if window.Len() == 0 {
		return LatencyStats{Count: count}
	}

	at := func(p float64) time.Duration {
		v, err := window.PercentileNearestRank(p)
		if err != nil {
			return 0
		}
		return micros(v)
	}
	minV, _ := window.Min()
	maxV, _ := window.Max()
	mean, _ := window.Mean()

	return LatencyStats{
		Count:   count,
		Samples: window.Len(),
		Min:     micros(minV),
		Max:     micros(maxV),
		Avg:     micros(mean),
		P50:     at(50),
		P90:     at(90),
		P95:     at(95),
		P99:     at(99),
	}
}

func (lt *LatencyTracker) Reset() {
	lt.mu.Lock()
	lt.next, lt.full, lt.count = 0, false, 0
	lt.mu.Unlock()
}

func micros(v float64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

type LatencyStats struct {
	Count   int64         `json:"count"`
	Samples int           `json:"samples"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	P50     time.Duration `json:"p50"`
	P90     time.Duration `json:"p90"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
}

// ToMap renders durations as fractional milliseconds.
func (s LatencyStats) ToMap() map[string]any {
	out := map[string]any{"count": s.Count, "sample_size": s.Samples}
	for name, d := range map[string]time.Duration{
		"min_ms": s.Min, "max_ms": s.Max, "avg_ms": s.Avg,
		"p50_ms": s.P50, "p90_ms": s.P90, "p95_ms": s.P95, "p99_ms": s.P99,
	} {
		out[name] = float64(d.Microseconds()) / 1000
	}
	return out
}

// LatencyRegistry keys trackers by "METHOD /route/pattern".
type LatencyRegistry struct {
	window   int
	trackers sync.Map // string -> *LatencyTracker
}

func NewLatencyRegistry(window int) *LatencyRegistry {
	return &LatencyRegistry{window: window}
}

func (r *LatencyRegistry) Record(route string, d time.Duration) {
	t, ok := r.trackers.Load(route)
	if !ok {
		t, _ = r.trackers.LoadOrStore(route, NewLatencyTracker(r.window))
	}
	t.(*LatencyTracker).Record(d)
}

func (r *LatencyRegistry) Stats(route string) LatencyStats {
	t, ok := r.trackers.Load(route)
	if !ok {
		return LatencyStats{}
	}
	return t.(*LatencyTracker).Stats()
}

func (r *LatencyRegistry) AllStats() map[string]LatencyStats {
	out := make(map[string]LatencyStats)
	r.trackers.Range(func(k, v any) bool {
		out[k.(string)] = v.(*LatencyTracker).Stats()
		return true
	})
	return out
}

var routes = NewLatencyRegistry(defaultWindow)

// RecordLatency records into the process-wide route registry.
func RecordLatency(route string, d time.Duration) {
	routes.Record(route, d)
}

func GetAllLatencyStats() map[string]LatencyStats {
	return routes.AllStats()
}
