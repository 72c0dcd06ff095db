// Package schema decides when values produced by different backends are "the
// same logical type".
//
// The full and standalone backends each declare their own Go types for every
// logical type (Data, Message, ...). They share no base type and never import
// each other. Instead every such type implements Record: it reports a *Type
// describing its declared name, its declared ancestor and its FieldSet, and it
// exposes its fields through an explicit accessor.
//
// Two rules follow from that:
//
//   - Compatible(v, T) holds iff v's declared type name, or the name of one of
//     its declared ancestors, equals T's name as a plain string, and every
//     field T requires is readable on v. Shape alone is never enough.
//   - StructurallyEqual(a, b) holds iff a and b declare the same type name,
//     each carries the other's required fields, and every field both declare
//     holds equal values.
//
// Nothing here panics or returns errors for odd inputs: primitives, nil and
// typed-nil pointers are simply not compatible. Check is the error-returning
// variant used at typed boundaries.
//
// Registry records, per logical type name, which Type each backend declares and
// how to build that backend's value from a dumped field map, so a record can be
// converted across the boundary:
//
//	msg, err := schema.DefaultRegistry.Convert(standaloneMsg, "full")
package schema
