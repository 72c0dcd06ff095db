package schema

import "fmt"

// Record is implemented by every schema-bearing value of either backend.
//
// Schema returns the value's own declared Type. Field returns the value of a
// declared field and whether it is readable; it must not mutate the record,
// since compatibility checks run concurrently on shared values.
type Record interface {
	Schema() *Type
	Field(name string) (any, bool)
}

// TypeNameOf returns the declared type name of v when v is a Record, and its
// Go type otherwise. It is used to describe offending values in errors.
func TypeNameOf(v any) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", v)
		}
	}()

	if v == nil {
		return "nil"
	}
	if r, ok := v.(Record); ok {
		if t := r.Schema(); t != nil {
			return t.Name()
		}
	}
	return fmt.Sprintf("%T", v)
}

// Get reads a field and asserts its Go type.
func Get[T any](r Record, name string) (T, bool) {
	var zero T
	v, ok := r.Field(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Dump returns the record's declared fields as a plain map. Nested records
// are dumped recursively; other values are copied by reference.
func Dump(r Record) map[string]any {
	t := r.Schema()
	if t == nil {
		return map[string]any{}
	}
	out := make(map[string]any, t.Fields().Len())
	for _, name := range t.Fields().Names() {
		v, ok := r.Field(name)
		if !ok {
			continue
		}
		out[name] = dumpValue(v)
	}
	return out
}

func dumpValue(v any) any {
	switch x := v.(type) {
	case Record:
		return Dump(x)
	case []Record:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Dump(item)
		}
		return out
	default:
		return v
	}
}
