package metrics

import (
	"sync"
	"time"
)

// Metrics accumulates run counters shared between the scrape and social
// cycles. Global is the single process-wide instance.
type Metrics struct {
	mu sync.RWMutex

	ArticlesFound      int64
	ArticlesPublished  int64
	DuplicatesSkipped  int64
	OldSkipped         int64
	IncompleteSkipped  int64
	PublishFailures    int64
	PostsFetched       int64
	PostsSent          int64
	LastCycleDuration  time.Duration
	TotalCycleDuration time.Duration
	CycleCount         int64
	LastRunTime        time.Time
	LastError          string
	LastErrorTime      time.Time
}

var Global = &Metrics{}

func (m *Metrics) AddArticlesFound(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFound += int64(n)
}

func (m *Metrics) IncrementPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesPublished++
}

func (m *Metrics) IncrementDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementOldSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OldSkipped++
}

func (m *Metrics) IncrementIncompleteSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncompleteSkipped++
}

func (m *Metrics) IncrementPublishFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishFailures++
}

func (m *Metrics) AddPostsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsFetched += int64(n)
}

func (m *Metrics) IncrementPostsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsSent++
}

func (m *Metrics) RecordCycle(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCycleDuration = duration
	m.TotalCycleDuration += duration
	m.CycleCount++
	m.LastRunTime = time.Now()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
}

// Snapshot returns a copy safe to read without holding the lock.
func (m *Metrics) Snapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		ArticlesFound:      m.ArticlesFound,
		ArticlesPublished:  m.ArticlesPublished,
		DuplicatesSkipped:  m.DuplicatesSkipped,
		OldSkipped:         m.OldSkipped,
		IncompleteSkipped:  m.IncompleteSkipped,
		PublishFailures:    m.PublishFailures,
		PostsFetched:       m.PostsFetched,
		PostsSent:          m.PostsSent,
		LastCycleDuration:  m.LastCycleDuration,
		TotalCycleDuration: m.TotalCycleDuration,
		CycleCount:         m.CycleCount,
		LastRunTime:        m.LastRunTime,
		LastError:          m.LastError,
		LastErrorTime:      m.LastErrorTime,
	}
}
