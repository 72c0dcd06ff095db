package crossbase

import (
	"sync"
	"time"
)

// Metrics provides observability for crossbase operations
type Metrics interface {
	// Increment increases a counter by 1
	Increment(name string, tags ...string)

	// Gauge sets an absolute value
	Gauge(name string, value float64, tags ...string)

	// Histogram records a value distribution (latency, size, etc)
	Histogram(name string, value float64, tags ...string)

	// Timing records a duration
	Timing(name string, duration time.Duration, tags ...string)
}

// NoOpMetrics is a metrics collector that does nothing
type NoOpMetrics struct{}

func (m *NoOpMetrics) Increment(name string, tags ...string)                      {}
func (m *NoOpMetrics) Gauge(name string, value float64, tags ...string)           {}
func (m *NoOpMetrics) Histogram(name string, value float64, tags ...string)       {}
func (m *NoOpMetrics) Timing(name string, duration time.Duration, tags ...string) {}

// InMemoryMetrics stores metrics in memory for testing.
// Counters are additionally recorded per tag set under "name|k=v,...".
type InMemoryMetrics struct {
	mu         sync.Mutex
	Counters   map[string]int
	Gauges     map[string]float64
	Histograms map[string][]float64
	Timings    map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		Counters:   make(map[string]int),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string][]float64),
		Timings:    make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Increment(name string, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[name]++
	if len(tags) > 0 {
		m.Counters[TaggedName(name, tags...)]++
	}
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gauges[name] = value
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Histograms[name] = append(m.Histograms[name], value)
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timings[name] = append(m.Timings[name], duration)
}

// Counter returns the current value of a counter.
func (m *InMemoryMetrics) Counter(name string, tags ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(tags) > 0 {
		return m.Counters[TaggedName(name, tags...)]
	}
	return m.Counters[name]
}

// TaggedName renders a metric name with key/value tags, e.g.
// "crossbase.router.bind|backend=full,group=memory" for tags given in that order.
func TaggedName(name string, tags ...string) string {
	out := name + "|"
	for i := 0; i+1 < len(tags); i += 2 {
		if i > 0 {
			out += ","
		}
		out += tags[i] + "=" + tags[i+1]
	}
	return out
}

// Common metric names
const (
	MetricProbe          = "crossbase.availability.probe"
	MetricProbeError     = "crossbase.availability.probe_error"
	MetricRouterBind     = "crossbase.router.bind"
	MetricRouterFallback = "crossbase.router.fallback"
	MetricRouterFailure  = "crossbase.router.unresolvable"

	MetricGetSuccess     = "crossbase.store.get.success"
	MetricGetError       = "crossbase.store.get.error"
	MetricGetDuration    = "crossbase.store.get.duration"
	MetricPutSuccess     = "crossbase.store.put.success"
	MetricPutError       = "crossbase.store.put.error"
	MetricPutDuration    = "crossbase.store.put.duration"
	MetricDeleteSuccess  = "crossbase.store.delete.success"
	MetricDeleteError    = "crossbase.store.delete.error"
	MetricDeleteDuration = "crossbase.store.delete.duration"
	MetricQueryResults   = "crossbase.store.query.results"
	MetricIndexHits      = "crossbase.index.hits"
	MetricIndexMisses    = "crossbase.index.misses"

	MetricMigrationRows     = "crossbase.migration.rows"
	MetricMigrationErrors   = "crossbase.migration.errors"
	MetricMigrationDuration = "crossbase.migration.duration"
)
