package metrics

import (
	"maps"
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ResultsSeen         int64
	Rejections          map[string]int64
	CategoriesFailed    int64
	CrossCategoryDupes  int64
	PreviouslyStored    int64
	ArticlesStored      int64
	SuccessfulSummaries int64
	FailedSummaries     int64
	EmailsSent          int64
	EditionsBuilt       int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true, Rejections: make(map[string]int64)}
}

func (m *Metrics) AddResultsSeen(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultsSeen += int64(n)
}

func (m *Metrics) IncrementRejection(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejections[reason]++
}

func (m *Metrics) IncrementCategoriesFailed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CategoriesFailed++
}

func (m *Metrics) AddCrossCategoryDupes(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CrossCategoryDupes += int64(n)
}

func (m *Metrics) IncrementPreviouslyStored() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PreviouslyStored++
}

func (m *Metrics) IncrementArticlesStored() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesStored++
}

func (m *Metrics) IncrementSuccessfulSummaries() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulSummaries++
}

func (m *Metrics) IncrementFailedSummaries() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedSummaries++
}

func (m *Metrics) AddEmailsSent(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmailsSent += int64(n)
}

func (m *Metrics) IncrementEditionsBuilt() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EditionsBuilt++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"results_seen":               m.ResultsSeen,
		"rejections":                 maps.Clone(m.Rejections),
		"categories_failed":          m.CategoriesFailed,
		"cross_category_duplicates":  m.CrossCategoryDupes,
		"previously_stored":          m.PreviouslyStored,
		"articles_stored":            m.ArticlesStored,
		"successful_summaries":       m.SuccessfulSummaries,
		"failed_summaries":           m.FailedSummaries,
		"emails_sent":                m.EmailsSent,
		"editions_built":             m.EditionsBuilt,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
