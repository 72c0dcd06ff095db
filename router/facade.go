package router

// Facade is a lazily bound, typed handle on one capability group. Facade
// packages hold one as a package variable and call Get per operation.
type Facade[T any] struct {
	group  Group
	decode Decoder[T]
	router *Router
}

// NewFacade returns a facade over the default router.
func NewFacade[T any](group Group, decode Decoder[T]) *Facade[T] {
	return &Facade[T]{group: group, decode: decode}
}

// On returns a copy of f bound through r instead of the default router.
func (f *Facade[T]) On(r *Router) *Facade[T] {
	return &Facade[T]{group: f.group, decode: f.decode, router: r}
}

// Group returns the group f serves.
func (f *Facade[T]) Group() Group { return f.group }

// Get returns the group's operations, binding them on first use.
func (f *Facade[T]) Get() (T, error) {
	v, _, err := Bind(f.r(), f.group, f.decode)
	return v, err
}

// Backend binds the group if needed and reports the backend serving it, or
// None when the group is unresolvable.
func (f *Facade[T]) Backend() Backend {
	_, b, err := Bind(f.r(), f.group, f.decode)
	if err != nil {
		return None
	}
	return b
}

func (f *Facade[T]) r() *Router {
	if f.router != nil {
		return f.router
	}
	return Default()
}
