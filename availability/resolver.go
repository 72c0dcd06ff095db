package availability

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/adrianmcphee/crossbase"
)

// Flag is the memoized availability verdict. It moves from Unknown to either
// Available or Unavailable exactly once and never reverts.
type Flag int32

const (
	Unknown Flag = iota
	Available
	Unavailable
)

func (f Flag) String() string {
	switch f {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Probe determines whether the full backend is present. It must not
// initialize the backend. A non-nil error means presence could not be
// determined.
type Probe func() (bool, error)

// CatalogProbe returns a Probe asking c whether pkg was announced.
func CatalogProbe(c *Catalog, pkg string) Probe {
	return func() (bool, error) {
		return c.Lookup(pkg)
	}
}

// Resolver memoizes the answer to "is the full backend present?".
type Resolver struct {
	probe   Probe
	pkg     string
	logger  crossbase.Logger
	metrics crossbase.Metrics

	flag atomic.Int32
	mu   sync.Mutex
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report absorbed probe errors.
func WithLogger(l crossbase.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics sets the metrics sink for probe outcomes.
func WithMetrics(m crossbase.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithPackage names the probed package in logs and metrics.
func WithPackage(pkg string) Option {
	return func(r *Resolver) { r.pkg = pkg }
}

// New creates a Resolver around probe.
func New(probe Probe, opts ...Option) *Resolver {
	r := &Resolver{
		probe:   probe,
		pkg:     FullPackage,
		logger:  crossbase.Log(),
		metrics: &crossbase.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fixed returns a Resolver that reports available without probing.
func Fixed(available bool) *Resolver {
	r := New(nil)
	if available {
		r.flag.Store(int32(Available))
	} else {
		r.flag.Store(int32(Unavailable))
	}
	return r
}

// IsAvailable reports whether the full backend is present. The first call
// runs the probe; racing first callers wait for it and share its verdict.
func (r *Resolver) IsAvailable() bool {
	if f := Flag(r.flag.Load()); f != Unknown {
		return f == Available
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f := Flag(r.flag.Load()); f != Unknown {
		return f == Available
	}

	ok := r.runProbe()
	if ok {
		r.flag.Store(int32(Available))
	} else {
		r.flag.Store(int32(Unavailable))
	}
	return ok
}

// Flag returns the current verdict without probing.
func (r *Resolver) Flag() Flag {
	return Flag(r.flag.Load())
}

func (r *Resolver) runProbe() (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.absorb(&ProbeError{Package: r.pkg, Err: fmt.Errorf("probe panicked: %v", p)})
			ok = false
		}
		r.metrics.Increment(crossbase.MetricProbe, "package", r.pkg, "available", strconv.FormatBool(ok))
	}()

	if r.probe == nil {
		return false
	}
	present, err := r.probe()
	if err != nil {
		r.absorb(err)
		return false
	}
	r.logger.Debug("availability resolved", "package", r.pkg, "available", present)
	return present
}

func (r *Resolver) absorb(err error) {
	r.metrics.Increment(crossbase.MetricProbeError, "package", r.pkg)
	r.logger.Warn("availability probe failed, treating backend as absent",
		"package", r.pkg,
		"error", err,
	)
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the process-wide resolver. It probes DefaultCatalog for
// FullPackage unless CROSSBASE_DISABLE_FULL is set.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = New(defaultProbe)
	})
	return defaultResolver
}

func defaultProbe() (bool, error) {
	if crossbase.FullDisabled() {
		crossbase.Log().Info("full backend disabled by CROSSBASE_DISABLE_FULL")
		return false, nil
	}
	return DefaultCatalog().Lookup(FullPackage)
}
