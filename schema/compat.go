package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// ErrIncompatible is wrapped by every MismatchError.
var ErrIncompatible = errors.New("value is not structurally compatible")

// MismatchError reports a value that failed a compatibility check at a typed
// boundary. Expected is the target logical type name, Actual the value's
// declared type name (or Go type for non-records).
type MismatchError struct {
	Expected string
	Actual   string
	Missing  []string
}

func (e *MismatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("expected a value compatible with %q, got %q missing required fields [%s]",
			e.Expected, e.Actual, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("expected a value compatible with %q, got %q", e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrIncompatible }

// Compatible reports whether v can stand in for target.
func Compatible(v any, target *Type) bool {
	return Check(v, target) == nil
}

// Check is Compatible returning the reason for a negative verdict.
func Check(v any, target *Type) (err error) {
	expected := ""
	if target != nil {
		expected = target.Name()
	}
	defer func() {
		if recover() != nil {
			err = &MismatchError{Expected: expected, Actual: fmt.Sprintf("%T", v)}
		}
	}()

	if target == nil {
		return &MismatchError{Expected: expected, Actual: TypeNameOf(v)}
	}

	r, ok := v.(Record)
	if !ok || r == nil {
		return &MismatchError{Expected: expected, Actual: TypeNameOf(v)}
	}

	declared := r.Schema()
	if declared == nil || !declared.Is(expected) {
		return &MismatchError{Expected: expected, Actual: TypeNameOf(v)}
	}

	var missing []string
	for _, name := range target.Fields().Required() {
		if _, ok := r.Field(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MismatchError{Expected: expected, Actual: declared.Name(), Missing: missing}
	}
	return nil
}

// StructurallyEqual reports whether a and b hold the same logical content.
// Fields only one side declares do not take part; fields both declare must
// hold equal values. The relation is symmetric.
func StructurallyEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	ra, ok := a.(Record)
	if !ok || ra == nil {
		return false
	}
	rb, ok := b.(Record)
	if !ok || rb == nil {
		return false
	}

	ta, tb := ra.Schema(), rb.Schema()
	if ta == nil || tb == nil || ta.Name() != tb.Name() {
		return false
	}
	if !Compatible(ra, tb) || !Compatible(rb, ta) {
		return false
	}

	for _, name := range ta.Fields().Intersect(tb.Fields()) {
		va, _ := ra.Field(name)
		vb, _ := rb.Field(name)
		if !valuesEqual(va, vb) {
			return false
		}
	}
	return true
}

// valuesEqual compares field values produced by possibly different backends.
// Nested records compare structurally and numbers compare by value across Go
// kinds. nil stands in for an empty string, map or list, but empty values of
// different kinds stay distinct.
func valuesEqual(x, y any) bool {
	if rx, ok := x.(Record); ok {
		if ry, ok := y.(Record); ok {
			return StructurallyEqual(rx, ry)
		}
		return false
	}
	if _, ok := y.(Record); ok {
		return false
	}

	if kx, ok := emptyKind(x); ok {
		if ky, ok := emptyKind(y); ok && (kx == ky || kx == emptyNil || ky == emptyNil) {
			return true
		}
	}

	if fx, ok := toFloat(x); ok {
		fy, ok := toFloat(y)
		return ok && (fx == fy || (math.IsNaN(fx) && math.IsNaN(fy)))
	}

	if tx, ok := x.(time.Time); ok {
		ty, ok := y.(time.Time)
		return ok && tx.Equal(ty)
	}

	vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
	if !vx.IsValid() || !vy.IsValid() {
		return false
	}

	switch {
	case isStringMap(vx) && isStringMap(vy):
		if vx.Len() != vy.Len() {
			return false
		}
		iter := vx.MapRange()
		for iter.Next() {
			other := vy.MapIndex(iter.Key())
			if !other.IsValid() || !valuesEqual(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case isList(vx) && isList(vy):
		if vx.Len() != vy.Len() {
			return false
		}
		for i := 0; i < vx.Len(); i++ {
			if !valuesEqual(vx.Index(i).Interface(), vy.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(x, y)
}

type emptyClass int

const (
	emptyNil emptyClass = iota
	emptyString
	emptyMap
	emptyList
)

// emptyKind classifies v when it is nil or an empty string, map or list.
func emptyKind(v any) (emptyClass, bool) {
	if v == nil {
		return emptyNil, true
	}
	if s, ok := v.(string); ok {
		return emptyString, s == ""
	}
	rv := reflect.ValueOf(v)
	switch {
	case (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil():
		return emptyNil, true
	case rv.Kind() == reflect.Map && rv.Len() == 0:
		return emptyMap, true
	case isList(rv) && rv.Len() == 0:
		return emptyList, true
	}
	return 0, false
}

func isStringMap(v reflect.Value) bool {
	return v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String
}

func isList(v reflect.Value) bool {
	if v.Kind() == reflect.Array {
		return true
	}
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
