package router

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/availability"
)

// Decoder turns a namespace into the typed operations of a group. It fails
// if any symbol is missing or ill-typed.
type Decoder[T any] func(Namespace) (T, error)

// Router binds each capability group to one backend on first use and keeps
// that binding for its lifetime.
type Router struct {
	resolver *availability.Resolver
	registry *Registry
	logger   crossbase.Logger
	metrics  crossbase.Metrics

	mu       sync.Mutex
	bindings map[string]*binding
}

type binding struct {
	once    sync.Once
	value   any
	backend Backend
	err     error
	done    atomic.Bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for fallback and failure reports.
func WithLogger(l crossbase.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics sets the metrics sink for binding outcomes.
func WithMetrics(m crossbase.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router that asks resolver whether to try the full backend
// and reads namespaces from registry.
func New(resolver *availability.Resolver, registry *Registry, opts ...Option) *Router {
	r := &Router{
		resolver: resolver,
		registry: registry,
		logger:   crossbase.Log(),
		metrics:  &crossbase.NoOpMetrics{},
		bindings: make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultMu     sync.Mutex
	defaultRouter atomic.Pointer[Router]
	defaultOpts   []Option
)

// Configure sets options for the default router. Once Default has built the
// router it returns ErrInvalidConfig and the options are discarded.
func Configure(opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRouter.Load() != nil {
		return fmt.Errorf("%w: default router is already in use", crossbase.ErrInvalidConfig)
	}
	defaultOpts = append(defaultOpts, opts...)
	return nil
}

// Default returns the process-wide router over availability.Default and
// DefaultRegistry.
func Default() *Router {
	if r := defaultRouter.Load(); r != nil {
		return r
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if r := defaultRouter.Load(); r != nil {
		return r
	}
	r := New(availability.Default(), DefaultRegistry, defaultOpts...)
	defaultRouter.Store(r)
	return r
}

// Bind returns group's operations, resolving them on first use. When the
// full backend is available every symbol is decoded from its namespace; if
// any is missing the whole group is decoded from the standalone backend
// instead. Outcomes, failures included, are memoized per group.
func Bind[T any](r *Router, group Group, decode Decoder[T]) (T, Backend, error) {
	var zero T
	b := r.binding(group.Name)
	b.once.Do(func() {
		b.value, b.backend, b.err = resolve(r, group, decode)
		b.done.Store(true)
	})
	if b.err != nil {
		return zero, b.backend, b.err
	}
	v, ok := b.value.(T)
	if !ok {
		return zero, b.backend, fmt.Errorf("router: group %s already bound as %T", group.Name, b.value)
	}
	return v, b.backend, nil
}

// Backend reports which backend group was bound to, or None if it is
// unbound or unresolvable.
func (r *Router) Backend(group string) Backend {
	r.mu.Lock()
	b, ok := r.bindings[group]
	r.mu.Unlock()
	if !ok {
		return None
	}
	if !b.done.Load() || b.err != nil {
		return None
	}
	return b.backend
}

// Bindings reports every group used so far and its backend, sorted by group.
func (r *Router) Bindings() []GroupBinding {
	r.mu.Lock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	out := make([]GroupBinding, 0, len(names))
	for _, name := range names {
		out = append(out, GroupBinding{Group: name, Backend: r.Backend(name)})
	}
	return out
}

// GroupBinding pairs a group name with the backend serving it.
type GroupBinding struct {
	Group   string
	Backend Backend
}

// Available reports the resolver's verdict.
func (r *Router) Available() bool {
	return r.resolver.IsAvailable()
}

func (r *Router) binding(group string) *binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[group]
	if !ok {
		b = &binding{}
		r.bindings[group] = b
	}
	return b
}

func resolve[T any](r *Router, group Group, decode Decoder[T]) (any, Backend, error) {
	var causes []error

	if r.resolver.IsAvailable() {
		v, err := decodeFrom(r.registry, Full, group, decode)
		if err == nil {
			r.bound(group, Full)
			return v, Full, nil
		}
		causes = append(causes, err)
		r.metrics.Increment(crossbase.MetricRouterFallback, "group", group.Name)
		r.logger.Warn("capability group falling back to standalone backend",
			"group", group.String(),
			"error", err,
		)
	}

	v, err := decodeFrom(r.registry, Standalone, group, decode)
	if err == nil {
		r.bound(group, Standalone)
		return v, Standalone, nil
	}
	causes = append(causes, err)

	r.metrics.Increment(crossbase.MetricRouterFailure, "group", group.Name)
	uerr := &UnresolvableGroupError{Group: group.Name, Causes: causes}
	r.logger.Error("capability group unresolvable", "group", group.String(), "error", uerr)
	return nil, None, uerr
}

func (r *Router) bound(group Group, backend Backend) {
	r.metrics.Increment(crossbase.MetricRouterBind, "group", group.Name, "backend", string(backend))
	r.logger.Debug("capability group bound", "group", group.String(), "backend", string(backend))
}

// decodeFrom decodes all of group from one backend or reports why it cannot.
func decodeFrom[T any](reg *Registry, backend Backend, group Group, decode Decoder[T]) (v T, err error) {
	ns, ok := reg.Namespace(backend, group.Name)
	if !ok {
		return v, &PartialAvailabilityError{Group: group.Name, Backend: backend, Missing: group.Symbols}
	}
	if missing := group.Missing(ns); len(missing) > 0 {
		return v, &PartialAvailabilityError{Group: group.Name, Backend: backend, Missing: missing}
	}

	defer func() {
		if p := recover(); p != nil {
			err = &PartialAvailabilityError{Group: group.Name, Backend: backend, Err: fmt.Errorf("decode panicked: %v", p)}
		}
	}()
	v, err = decode(ns)
	if err != nil {
		return v, &PartialAvailabilityError{Group: group.Name, Backend: backend, Err: err}
	}
	return v, nil
}
