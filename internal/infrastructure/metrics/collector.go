package metrics

import (
	"sync"
	"sync/atomic"
)

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// Load metrics
	loads        uint64
	loadErrors   uint64
	loadDuration durationValue

	// Authority request metrics
	authorityRequests sync.Map // map[string]*uint64 - operation -> count
	authorityErrors   sync.Map // map[string]*uint64 - operation -> error count
	authorityDuration sync.Map // map[string]*durationValue - operation -> total duration in seconds
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

func (d *durationValue) add(seconds float64) {
	d.mu.Lock()
	d.totalSeconds += seconds
	d.mu.Unlock()
}

func (d *durationValue) total() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalSeconds
}

// LoadMetrics holds snapshot load metrics.
type LoadMetrics struct {
	Loads                uint64
	Errors               uint64
	TotalDurationSeconds float64
}

// AuthorityMetrics holds per-operation metrics for authority requests.
type AuthorityMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordLoad records one snapshot load attempt and its duration.
func (c *Collector) RecordLoad(durationSeconds float64) {
	atomic.AddUint64(&c.loads, 1)
	c.loadDuration.add(durationSeconds)
}

// RecordLoadError records a failed snapshot load.
func (c *Collector) RecordLoadError() {
	atomic.AddUint64(&c.loadErrors, 1)
}

// RecordRequest records an authority request for the given operation.
func (c *Collector) RecordRequest(operation string) {
	counter := c.getOrCreateCounter(&c.authorityRequests, operation)
	atomic.AddUint64(counter, 1)
}

// RecordError records a failed authority request.
func (c *Collector) RecordError(operation string) {
	counter := c.getOrCreateCounter(&c.authorityErrors, operation)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of an authority request in seconds.
func (c *Collector) RecordDuration(operation string, durationSeconds float64) {
	val, _ := c.authorityDuration.LoadOrStore(operation, &durationValue{})
	val.(*durationValue).add(durationSeconds)
}

// GetLoadMetrics returns current load metrics.
func (c *Collector) GetLoadMetrics() *LoadMetrics {
	return &LoadMetrics{
		Loads:                atomic.LoadUint64(&c.loads),
		Errors:               atomic.LoadUint64(&c.loadErrors),
		TotalDurationSeconds: c.loadDuration.total(),
	}
}

// GetAuthorityMetrics returns current authority request metrics.
func (c *Collector) GetAuthorityMetrics() *AuthorityMetrics {
	result := &AuthorityMetrics{
		RequestCounts:        make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.authorityRequests.Range(func(key, value interface{}) bool {
		result.RequestCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.authorityErrors.Range(func(key, value interface{}) bool {
		result.ErrorCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.authorityDuration.Range(func(key, value interface{}) bool {
		result.TotalDurationSeconds[key.(string)] = value.(*durationValue).total()
		return true
	})

	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
