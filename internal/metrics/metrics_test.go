package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountersAndStats(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddResultsSeen(3)
			m.IncrementRejection("too_short")
		}()
	}
	wg.Wait()

	m.AddCrossCategoryDupes(1)
	m.RecordProcessingTime(2 * time.Second)
	m.RecordProcessingTime(4 * time.Second)

	stats := m.GetStats()
	assert.Equal(t, int64(30), stats["results_seen"])
	assert.Equal(t, map[string]int64{"too_short": 10}, stats["rejections"])
	assert.Equal(t, int64(1), stats["cross_category_duplicates"])
	assert.Equal(t, int64(3000), stats["average_processing_time_ms"])
}

func TestMetrics_Health(t *testing.T) {
	m := New()
	assert.True(t, m.Healthy())

	m.SetError("no winners")
	assert.False(t, m.Healthy())
	assert.Equal(t, "no winners", m.GetStats()["last_error"])

	m.SetLastRun()
	assert.True(t, m.Healthy())
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddResultsSeen(1)
		m.IncrementRejection("spam")
		m.SetError("x")
	})
}
