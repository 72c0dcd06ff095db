package inputs

import (
	"fmt"

	"github.com/adrianmcphee/crossbase/schema"
)

// DataInput accepts any value compatible with Data, from either backend.
type DataInput struct {
	Base
	value schema.Record
}

// NewDataInput wraps v. It fails with a *schema.MismatchError unless v is
// compatible with Data; v itself is stored unmodified.
func NewDataInput(name string, v any, opts ...Option) (*DataInput, error) {
	if err := schema.Check(v, schema.Data); err != nil {
		return nil, err
	}
	return &DataInput{Base: newBase(name, opts), value: v.(schema.Record)}, nil
}

// Value returns the wrapped record.
func (in *DataInput) Value() schema.Record { return in.value }

// Data returns the record's data map.
func (in *DataInput) Data() map[string]any {
	return dataOf(in.value)
}

// Text returns data[text_key], text_key defaulting to "text".
func (in *DataInput) Text() string {
	return textFromData(in.value)
}

func (in *DataInput) Schema() *schema.Type { return DataInputType }

func (in *DataInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.value, true
	}
	return in.field(name)
}

func dataOf(r schema.Record) map[string]any {
	d, _ := schema.Get[map[string]any](r, schema.FieldData)
	return d
}

func textKey(r schema.Record) string {
	if k, ok := schema.Get[string](r, schema.FieldTextKey); ok && k != "" {
		return k
	}
	return schema.DefaultTextKey
}

func textFromData(r schema.Record) string {
	v, ok := dataOf(r)[textKey(r)]
	if !ok || v == nil {
		if s, ok := schema.Get[string](r, schema.FieldDefaultValue); ok {
			return s
		}
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
