package capability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrianmcphee/crossbase/schema"
)

// ErrInvalidModel is returned for unusable schema fields or values.
var ErrInvalidModel = errors.New("invalid model")

// Field kinds understood by BuildModel.
const (
	KindStr   = "str"
	KindInt   = "int"
	KindFloat = "float"
	KindBool  = "bool"
	KindDict  = "dict"
	KindList  = "list"
	KindAny   = "any"
)

// SchemaField declares one field of a dynamically built model.
type SchemaField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Multiple    bool   `json:"multiple,omitempty"`
}

// Model is a record type built at run time from SchemaFields.
type Model struct {
	typ    *schema.Type
	fields map[string]SchemaField
	order  []string
}

// BuildModel declares a model named name. Every field is optional.
func BuildModel(name string, fields []SchemaField) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty model name", ErrInvalidModel)
	}
	m := &Model{fields: make(map[string]SchemaField, len(fields))}
	decl := make([]schema.Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field with empty name", ErrInvalidModel)
		}
		if _, dup := m.fields[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidModel, f.Name)
		}
		f.Type = strings.ToLower(strings.TrimSpace(f.Type))
		if f.Type == "" {
			f.Type = KindAny
		}
		switch f.Type {
		case KindStr, KindInt, KindFloat, KindBool, KindDict, KindList, KindAny:
		default:
			return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidModel, f.Name, f.Type)
		}
		m.fields[f.Name] = f
		m.order = append(m.order, f.Name)
		decl = append(decl, schema.Opt(f.Name))
	}
	m.typ = schema.Define(name, nil, decl...)
	return m, nil
}

// Schema returns the model's declared type.
func (m *Model) Schema() *schema.Type { return m.typ }

// Fields returns the model's fields in declaration order.
func (m *Model) Fields() []SchemaField {
	out := make([]SchemaField, len(m.order))
	for i, name := range m.order {
		out[i] = m.fields[name]
	}
	return out
}

// New validates values and returns a record of the model. Ints are accepted
// for float fields; unknown keys are rejected.
func (m *Model) New(values map[string]any) (*ModelRecord, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		f, ok := m.fields[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrInvalidModel, m.typ.Name(), k)
		}
		cv, err := coerceField(f, v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return &ModelRecord{model: m, values: out}, nil
}

func coerceField(f SchemaField, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.Multiple {
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %q expects a list", ErrInvalidModel, f.Name)
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceScalar(f, item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	return coerceScalar(f, v)
}

func coerceScalar(f SchemaField, v any) (any, error) {
	bad := func() error {
		return fmt.Errorf("%w: field %q expects %s, got %T", ErrInvalidModel, f.Name, f.Type, v)
	}
	switch f.Type {
	case KindStr:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, bad()
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n == float64(int(n)) {
				return int(n), nil
			}
		}
		return nil, bad()
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, bad()
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, bad()
	case KindDict:
		if d, ok := v.(map[string]any); ok {
			return d, nil
		}
		return nil, bad()
	case KindList:
		if l, ok := v.([]any); ok {
			return l, nil
		}
		return nil, bad()
	}
	return v, nil
}

// ModelRecord is a value of a Model.
type ModelRecord struct {
	model  *Model
	values map[string]any
}

func (r *ModelRecord) Schema() *schema.Type { return r.model.typ }

func (r *ModelRecord) Field(name string) (any, bool) {
	if _, ok := r.model.fields[name]; !ok {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}
