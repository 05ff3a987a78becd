package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type taskStats struct {
	Succeeded  uint64  `json:"succeeded"`
	Failed     uint64  `json:"failed"`
	AvgSeconds float64 `json:"avg_seconds"`
	total      time.Duration
}

// Metrics holds process counters. It also observes the task worker.
type Metrics struct {
	requestsTotal      atomic.Uint64
	requestsInProgress atomic.Int64
	requestsSuccess    atomic.Uint64
	requestsFailed     atomic.Uint64
	startTime          time.Time

	mu    sync.Mutex
	tasks map[string]*taskStats
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now(), tasks: map[string]*taskStats{}}
}

// TaskFinished records one task attempt.
func (m *Metrics) TaskFinished(taskType string, ok bool, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.tasks[taskType]
	if s == nil {
		s = &taskStats{}
		m.tasks[taskType] = s
	}
	if ok {
		s.Succeeded++
	} else {
		s.Failed++
	}
	s.total += d
	s.AvgSeconds = s.total.Seconds() / float64(s.Succeeded+s.Failed)
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.Lock()
	tasks := make(map[string]taskStats, len(m.tasks))
	for k, v := range m.tasks {
		tasks[k] = *v
	}
	m.mu.Unlock()

	return map[string]any{
		"requests_total":       m.requestsTotal.Load(),
		"requests_in_progress": m.requestsInProgress.Load(),
		"requests_success":     m.requestsSuccess.Load(),
		"requests_failed":      m.requestsFailed.Load(),
		"tasks":                tasks,
		"uptime_seconds":       time.Since(m.startTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsTotal.Add(1)
		m.requestsInProgress.Add(1)
		defer m.requestsInProgress.Add(-1)

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.requestsSuccess.Add(1)
		} else {
			m.requestsFailed.Add(1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.Snapshot())
}
