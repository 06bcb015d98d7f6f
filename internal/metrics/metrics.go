package metrics

import (
	"sync"
	"time"
)

// Metrics counts what each cycle did. Exposed over the optional monitoring
// server's /metrics endpoint.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	EntriesFetched      int64
	SkippedAlreadySent  int64
	RemoteCalls         int64
	ClassifiedRelevant  int64
	DuplicatesCollapsed int64
	MessagesSent        int64

	// Timings
	LastCycleTime time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddEntriesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesFetched += int64(n)
}

func (m *Metrics) IncrementSkippedAlreadySent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedAlreadySent++
}

func (m *Metrics) IncrementRemoteCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoteCalls++
}

func (m *Metrics) IncrementClassifiedRelevant() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassifiedRelevant++
}

func (m *Metrics) AddDuplicatesCollapsed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesCollapsed += int64(n)
}

func (m *Metrics) IncrementMessagesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
}

func (m *Metrics) RecordCycle(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCycleTime = duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"entries_fetched":      m.EntriesFetched,
		"skipped_already_sent": m.SkippedAlreadySent,
		"remote_calls":         m.RemoteCalls,
		"classified_relevant":  m.ClassifiedRelevant,
		"duplicates_collapsed": m.DuplicatesCollapsed,
		"messages_sent":        m.MessagesSent,
		"last_cycle_time_ms":   m.LastCycleTime.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
