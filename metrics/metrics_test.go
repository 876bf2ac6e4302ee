package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountersAreConcurrencySafe(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter(EventsImported)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Counter(EventsImported))
	assert.Equal(t, int64(0), m.Counter("unknown"))
}

func TestMetrics_Timers(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer(ImportDuration, 10*time.Millisecond)
	m.RecordTimer(ImportDuration, 30*time.Millisecond)

	timer := m.GetTimers()[ImportDuration]
	assert.Equal(t, int64(2), timer.Count)
	assert.Equal(t, int64(40), timer.TotalTimeMs)
	assert.InDelta(t, 20.0, timer.AverageTimeMs, 0.001)
	assert.Equal(t, int64(30), timer.MaxTimeMs)
}

func TestMetrics_Health(t *testing.T) {
	m := NewMetrics()
	assert.True(t, m.Healthy())

	m.SetHealth("database", true)
	m.SetHealth("elasticsearch", false)
	assert.False(t, m.Healthy())
	assert.Equal(t, map[string]bool{"database": true, "elasticsearch": false}, m.GetHealthChecks())

	all := m.GetAllMetrics()
	assert.Contains(t, all, "uptime_seconds")
	assert.Contains(t, all, "counters")
}
