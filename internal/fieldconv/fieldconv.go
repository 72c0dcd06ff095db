// Package fieldconv reads typed values out of dumped record field maps.
// Loaders of both backends use it, so a map dumped by one backend loads
// into the other whatever Go types its values arrived as.
package fieldconv

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adrianmcphee/crossbase"
)

func invalid(key string, v any, want string) error {
	return crossbase.WithContext(
		fmt.Errorf("%w: field %q is %T, want %s", crossbase.ErrInvalidData, key, v, want),
		map[string]interface{}{"field": key},
	)
}

// String reads a string field. Absent and nil read as "".
func String(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", invalid(key, v, "string")
	}
}

// StringOr is String with def for an absent key.
func StringOr(m map[string]any, key, def string) (string, error) {
	if _, ok := m[key]; !ok {
		return def, nil
	}
	return String(m, key)
}

// Bool reads a bool field. Absent and nil read as false.
func Bool(m map[string]any, key string) (bool, error) {
	switch v := m[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, invalid(key, v, "bool")
	}
}

// Int64 reads an integral field from any numeric kind.
func Int64(m map[string]any, key string) (int64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, invalid(key, v, "integer")
	}
}

// Time reads a time.Time or an RFC 3339 string.
func Time(m map[string]any, key string) (time.Time, error) {
	switch v := m[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, invalid(key, v, "RFC 3339 timestamp")
		}
		return t, nil
	default:
		return time.Time{}, invalid(key, v, "timestamp")
	}
}

// Strings reads a []string or a []any holding only strings.
func Strings(m map[string]any, key string) ([]string, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(key, item, "string element")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid(key, v, "string list")
	}
}

// Map reads a map field and returns a shallow copy.
func Map(m map[string]any, key string) (map[string]any, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return Copy(v), nil
	default:
		return nil, invalid(key, v, "map")
	}
}

// Maps reads a list of maps, copying each.
func Maps(m map[string]any, key string) ([]map[string]any, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, item := range v {
			out[i] = Copy(item)
		}
		return out, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			mm, ok := item.(map[string]any)
			if !ok {
				return nil, invalid(key, item, "map element")
			}
			out = append(out, Copy(mm))
		}
		return out, nil
	default:
		return nil, invalid(key, v, "map list")
	}
}

// Copy returns a shallow copy of m; nil stays nil.
func Copy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Reader accumulates the first error across a sequence of reads, so loaders
// can read every field and check once.
type Reader struct {
	m   map[string]any
	err error
}

// NewReader reads from m.
func NewReader(m map[string]any) *Reader { return &Reader{m: m} }

func (r *Reader) keep(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) String(key string) string {
	v, err := String(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) StringOr(key, def string) string {
	v, err := StringOr(r.m, key, def)
	r.keep(err)
	return v
}

func (r *Reader) Bool(key string) bool {
	v, err := Bool(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) Int64(key string) int64 {
	v, err := Int64(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) Time(key string) time.Time {
	v, err := Time(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) Strings(key string) []string {
	v, err := Strings(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) Map(key string) map[string]any {
	v, err := Map(r.m, key)
	r.keep(err)
	return v
}

func (r *Reader) Maps(key string) []map[string]any {
	v, err := Maps(r.m, key)
	r.keep(err)
	return v
}

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
