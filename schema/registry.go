package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrVariantConflict is returned when a backend registers a second,
	// different Type under a name it already registered.
	ErrVariantConflict = errors.New("schema variant conflict")

	// ErrInvalidVariant is returned for registrations missing a backend,
	// a type or a loader.
	ErrInvalidVariant = errors.New("invalid schema variant")

	// ErrNoVariant is returned when no variant is registered for a
	// (backend, type name) pair.
	ErrNoVariant = errors.New("no schema variant registered")
)

// Loader builds a backend's value from a dumped field map.
type Loader func(fields map[string]any) (Record, error)

// Variant is one backend's declaration of a logical type.
type Variant struct {
	Backend string
	Type    *Type
	Load    Loader
}

// Registry maps logical type names to the per-backend variants declaring them.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]map[string]Variant // name -> backend -> variant
}

// DefaultRegistry is where backends register their types from init.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{variants: make(map[string]map[string]Variant)}
}

// Register adds backend's declaration of t. Registering the same field set
// twice is a no-op; a different field set under the same name is a conflict.
func (r *Registry) Register(backend string, t *Type, load Loader) error {
	if backend == "" || t == nil || load == nil {
		return ErrInvalidVariant
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byBackend, ok := r.variants[t.Name()]
	if !ok {
		byBackend = make(map[string]Variant)
		r.variants[t.Name()] = byBackend
	}
	if prev, ok := byBackend[backend]; ok {
		if prev.Type == t || prev.Type.Fields().Equal(t.Fields()) {
			return nil
		}
		return fmt.Errorf("%w: backend %q already declares %s as %s",
			ErrVariantConflict, backend, t.Name(), prev.Type.Fields())
	}
	byBackend[backend] = Variant{Backend: backend, Type: t, Load: load}
	return nil
}

// MustRegister is Register that panics on error, for use from init.
func (r *Registry) MustRegister(backend string, t *Type, load Loader) {
	if err := r.Register(backend, t, load); err != nil {
		panic(err)
	}
}

// Variant returns backend's declaration of the named type.
func (r *Registry) Variant(name, backend string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[name][backend]
	return v, ok
}

// Backends lists the backends declaring the named type, sorted.
func (r *Registry) Backends(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.variants[name]))
	for b := range r.variants[name] {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Names lists every registered logical type name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.variants))
	for n := range r.variants {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Convert rebuilds rec as backend's variant of the nearest type in rec's
// lineage that backend declares, so a subtype of Message converts to
// backend's Message. The result is structurally equal to rec on every field
// both types declare; fields only the subtype declares are dropped.
func (r *Registry) Convert(rec Record, backend string) (Record, error) {
	if rec == nil {
		return nil, &MismatchError{Expected: backend, Actual: "nil"}
	}
	t := rec.Schema()
	if t == nil {
		return nil, &MismatchError{Expected: backend, Actual: TypeNameOf(rec)}
	}

	var (
		v     Variant
		found bool
	)
	for _, name := range t.Lineage() {
		if v, found = r.Variant(name, backend); found {
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s for backend %q", ErrNoVariant, t.Name(), backend)
	}
	if v.Type == t {
		return rec, nil
	}

	out, err := v.Load(Dump(rec))
	if err != nil {
		return nil, fmt.Errorf("convert %s to %s: %w", t.Name(), backend, err)
	}
	return out, nil
}

// Conforms checks that backend's variant of contract's name declares every
// contract field, and that the contract's required fields stay required.
func (r *Registry) Conforms(contract *Type, backend string) error {
	v, ok := r.Variant(contract.Name(), backend)
	if !ok {
		return fmt.Errorf("%w: %s for backend %q", ErrNoVariant, contract.Name(), backend)
	}

	var missing []string
	for _, name := range contract.Fields().Names() {
		p, declared := v.Type.Fields().Presence(name)
		if !declared || (contract.Fields().IsRequired(name) && p != Required) {
			missing = append(missing, name)
		}
	}
	if base := contract.Base(); base != nil && !v.Type.Is(base.Name()) {
		missing = append(missing, "<base "+base.Name()+">")
	}
	if len(missing) > 0 {
		return &MismatchError{Expected: contract.Name(), Actual: backend + "." + v.Type.Name(), Missing: missing}
	}
	return nil
}
