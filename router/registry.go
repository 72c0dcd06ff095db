package router

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Backend names one implementation of the capability groups.
type Backend string

const (
	None       Backend = ""
	Full       Backend = "full"
	Standalone Backend = "standalone"
)

func (b Backend) String() string {
	if b == None {
		return "none"
	}
	return string(b)
}

// Group is a capability group: a named, versioned, fixed list of symbols that
// is always bound from a single backend.
type Group struct {
	Name    string
	Version int
	Symbols []string
}

func (g Group) String() string {
	return fmt.Sprintf("%s/v%d", g.Name, g.Version)
}

// Missing returns the group symbols ns does not define.
func (g Group) Missing(ns Namespace) []string {
	var missing []string
	for _, s := range g.Symbols {
		if v, ok := ns[s]; !ok || isNil(v) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Namespace maps symbol names to implementations.
type Namespace map[string]any

// Lookup reads symbol from ns as a T. Values whose type converts to T (a
// function literal for a named function type, say) are converted.
func Lookup[T any](ns Namespace, symbol string) (T, error) {
	var zero T
	v, ok := ns[symbol]
	if !ok || isNil(v) {
		return zero, &SymbolError{Symbol: symbol, Reason: "not defined"}
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	want := reflect.TypeOf((*T)(nil)).Elem()
	got := reflect.ValueOf(v)
	if got.Type().ConvertibleTo(want) && got.Kind() == want.Kind() && got.Kind() == reflect.Func {
		return got.Convert(want).Interface().(T), nil
	}
	return zero, &SymbolError{Symbol: symbol, Reason: fmt.Sprintf("has type %T, want %v", v, want)}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Registry holds one namespace per (backend, group). Backends fill it from
// init through Provide.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[Backend]map[string]Namespace
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{namespaces: make(map[Backend]map[string]Namespace)}
}

// DefaultRegistry is the registry used by the default router.
var DefaultRegistry = NewRegistry()

// Provide makes ns backend's implementation of group. It panics if ns is nil
// or the pair was already provided.
func (r *Registry) Provide(backend Backend, group string, ns Namespace) {
	if ns == nil {
		panic("router: Provide namespace is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	groups, ok := r.namespaces[backend]
	if !ok {
		groups = make(map[string]Namespace)
		r.namespaces[backend] = groups
	}
	if _, dup := groups[group]; dup {
		panic("router: Provide called twice for " + string(backend) + "/" + group)
	}

	cp := make(Namespace, len(ns))
	for k, v := range ns {
		cp[k] = v
	}
	groups[group] = cp
}

// Provide registers ns in DefaultRegistry.
func Provide(backend Backend, group string, ns Namespace) {
	DefaultRegistry.Provide(backend, group, ns)
}

// Namespace returns backend's namespace for group.
func (r *Registry) Namespace(backend Backend, group string) (Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[backend][group]
	return ns, ok
}

// Groups lists the groups backend provides, sorted.
func (r *Registry) Groups(backend Backend) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.namespaces[backend]))
	for g := range r.namespaces[backend] {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
