package schema

import "strings"

// Type is the declared identity of a concrete schema type: its logical name,
// an optional single ancestor and its FieldSet. A Type is immutable once
// defined; the FieldSet includes every field inherited from the ancestor.
type Type struct {
	name   string
	base   *Type
	own    FieldSet
	fields FieldSet
}

// Define declares a type. Fields inherited from base stay at least as strict
// as base declares them. Define panics on an empty name, since types are
// declared as package-level variables.
func Define(name string, base *Type, fields ...Field) *Type {
	if strings.TrimSpace(name) == "" {
		panic("schema: Define called with empty type name")
	}
	own := NewFieldSet(fields...)
	all := own
	if base != nil {
		all = base.fields.Extend(fields...)
	}
	return &Type{name: name, base: base, own: own, fields: all}
}

// Name returns the logical type name.
func (t *Type) Name() string { return t.name }

// Base returns the declared ancestor, or nil.
func (t *Type) Base() *Type { return t.base }

// Fields returns every field of the type, inherited ones included.
func (t *Type) Fields() FieldSet { return t.fields }

// OwnFields returns only the fields declared on t itself.
func (t *Type) OwnFields() FieldSet { return t.own }

// Lineage returns t's name followed by its ancestors' names.
func (t *Type) Lineage() []string {
	var names []string
	for cur := t; cur != nil; cur = cur.base {
		names = append(names, cur.name)
	}
	return names
}

// Is reports whether t or one of its ancestors is named name.
// Names are compared as plain strings, never by *Type identity.
func (t *Type) Is(name string) bool {
	for cur := t; cur != nil; cur = cur.base {
		if cur.name == name {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return strings.Join(t.Lineage(), "<") + t.fields.String()
}
