package crossbase

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the Metrics interface using Prometheus
type PrometheusMetrics struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance
// If registry is nil, uses the default Prometheus registry
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}

	pm.registerDefaultMetrics()
	return pm
}

// registerDefaultMetrics registers the metrics emitted by the resolver, the
// router and the full backend store.
func (p *PrometheusMetrics) registerDefaultMetrics() {
	factory := promauto.With(p.registry)

	p.counters[MetricProbe] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossbase",
			Subsystem: "availability",
			Name:      "probes_total",
			Help:      "Availability probes executed, by verdict",
		},
		[]string{"package", "available"},
	)

	p.counters[MetricRouterBind] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossbase",
			Subsystem: "router",
			Name:      "bindings_total",
			Help:      "Capability group bindings, by backend",
		},
		[]string{"group", "backend"},
	)

	p.counters[MetricRouterFallback] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossbase",
			Subsystem: "router",
			Name:      "fallbacks_total",
			Help:      "Capability groups that fell back to the standalone backend",
		},
		[]string{"group"},
	)

	p.counters[MetricRouterFailure] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossbase",
			Subsystem: "router",
			Name:      "unresolvable_total",
			Help:      "Capability groups no backend could supply",
		},
		[]string{"group"},
	)

	p.histograms[MetricGetDuration] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crossbase",
			Subsystem: "store",
			Name:      "get_duration_seconds",
			Help:      "Full backend store read duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{},
	)

	p.histograms[MetricPutDuration] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crossbase",
			Subsystem: "store",
			Name:      "put_duration_seconds",
			Help:      "Full backend store write duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{},
	)

	p.histograms[MetricQueryResults] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crossbase",
			Subsystem: "store",
			Name:      "query_results",
			Help:      "Number of messages returned by queries",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{},
	)
}

// Increment increments a Prometheus counter
func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	p.mu.Lock()
	counter, ok := p.counters[name]
	if !ok {
		// Create dynamic counter if it doesn't exist
		counter = promauto.With(p.registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crossbase",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic counter: " + name,
			},
			extractLabels(tags),
		)
		p.counters[name] = counter
	}
	p.mu.Unlock()

	counter.With(extractLabelValues(tags)).Inc()
}

// Gauge sets a Prometheus gauge value
func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...string) {
	p.mu.Lock()
	gauge, ok := p.gauges[name]
	if !ok {
		gauge = promauto.With(p.registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "crossbase",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic gauge: " + name,
			},
			extractLabels(tags),
		)
		p.gauges[name] = gauge
	}
	p.mu.Unlock()

	gauge.With(extractLabelValues(tags)).Set(value)
}

// Histogram records a value in a Prometheus histogram
func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	p.mu.Lock()
	histogram, ok := p.histograms[name]
	if !ok {
		histogram = promauto.With(p.registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "crossbase",
				Name:      sanitizeMetricName(name),
				Help:      "Dynamic histogram: " + name,
				Buckets:   prometheus.DefBuckets,
			},
			extractLabels(tags),
		)
		p.histograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.With(extractLabelValues(tags)).Observe(value)
}

// Timing records a duration in a Prometheus histogram
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name, duration.Seconds(), tags...)
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return p.registry
}

// extractLabels extracts label names from tags (every even index)
func extractLabels(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	labels := make([]string, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels = append(labels, tags[i])
	}
	return labels
}

// extractLabelValues creates a label map from tags (key-value pairs)
func extractLabelValues(tags []string) prometheus.Labels {
	labels := make(prometheus.Labels)
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}

// sanitizeMetricName turns "crossbase.store.put.error" into "store_put_error".
func sanitizeMetricName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	s := string(out)
	const prefix = "crossbase_"
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	return s
}
