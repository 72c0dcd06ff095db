package schema

import (
	"sort"
	"strings"
)

// Presence marks whether a field must be readable on a record.
type Presence int

const (
	Optional Presence = iota
	Required
)

func (p Presence) String() string {
	if p == Required {
		return "required"
	}
	return "optional"
}

// Field declares one named field of a type.
type Field struct {
	Name     string
	Presence Presence
}

// Req declares a required field.
func Req(name string) Field { return Field{Name: name, Presence: Required} }

// Opt declares an optional field.
func Opt(name string) Field { return Field{Name: name, Presence: Optional} }

// FieldSet is an immutable set of declared fields. The zero value is empty.
type FieldSet struct {
	fields map[string]Presence
}

// NewFieldSet builds a FieldSet. A name declared twice keeps the stronger
// presence, so a field can be tightened to required but never loosened.
func NewFieldSet(fields ...Field) FieldSet {
	m := make(map[string]Presence, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if prev, ok := m[f.Name]; ok && prev == Required {
			continue
		}
		m[f.Name] = f.Presence
	}
	return FieldSet{fields: m}
}

// Extend returns a new FieldSet holding s plus fields; s is unchanged.
func (s FieldSet) Extend(fields ...Field) FieldSet {
	all := make([]Field, 0, len(s.fields)+len(fields))
	for name, p := range s.fields {
		all = append(all, Field{Name: name, Presence: p})
	}
	return NewFieldSet(append(all, fields...)...)
}

// Len returns the number of declared fields.
func (s FieldSet) Len() int { return len(s.fields) }

// Has reports whether name is declared.
func (s FieldSet) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Presence returns the presence of name and whether it is declared.
func (s FieldSet) Presence(name string) (Presence, bool) {
	p, ok := s.fields[name]
	return p, ok
}

// IsRequired reports whether name is declared as required.
func (s FieldSet) IsRequired(name string) bool {
	return s.fields[name] == Required
}

// Names returns all declared field names, sorted.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the required field names, sorted.
func (s FieldSet) Required() []string {
	names := make([]string, 0, len(s.fields))
	for name, p := range s.fields {
		if p == Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Intersect returns the names declared by both sets, sorted.
func (s FieldSet) Intersect(other FieldSet) []string {
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	names := make([]string, 0, small.Len())
	for name := range small.fields {
		if large.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets declare the same names with the same presence.
func (s FieldSet) Equal(other FieldSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for name, p := range s.fields {
		if q, ok := other.fields[name]; !ok || q != p {
			return false
		}
	}
	return true
}

func (s FieldSet) String() string {
	parts := make([]string, 0, len(s.fields))
	for _, name := range s.Names() {
		if s.fields[name] == Required {
			parts = append(parts, name+"!")
		} else {
			parts = append(parts, name)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
