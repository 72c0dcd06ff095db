package inputs

import (
	"github.com/adrianmcphee/crossbase/schema"
)

// Field names shared by every input.
const (
	FieldName        = "name"
	FieldDisplayName = "display_name"
	FieldInfo        = "info"
	FieldRequired    = "required"
	FieldValue       = "value"
)

// InputType is the ancestor of every input type.
var InputType = schema.Define("Input", nil,
	schema.Req(FieldName),
	schema.Opt(FieldDisplayName),
	schema.Opt(FieldInfo),
	schema.Opt(FieldRequired),
	schema.Opt(FieldValue),
)

var (
	DataInputType    = schema.Define("DataInput", InputType)
	MessageInputType = schema.Define("MessageInput", DataInputType)
	StrInputType     = schema.Define("StrInput", InputType)
	IntInputType     = schema.Define("IntInput", InputType)
	FloatInputType   = schema.Define("FloatInput", InputType)
	BoolInputType    = schema.Define("BoolInput", InputType)
)

// Base holds the attributes every input carries.
type Base struct {
	Name        string
	DisplayName string
	Info        string
	Required    bool
}

// Option configures an input's Base.
type Option func(*Base)

// WithDisplayName sets the label shown for the input.
func WithDisplayName(s string) Option { return func(b *Base) { b.DisplayName = s } }

// WithInfo sets the input's help text.
func WithInfo(s string) Option { return func(b *Base) { b.Info = s } }

// AsRequired marks the input as required.
func AsRequired() Option { return func(b *Base) { b.Required = true } }

func newBase(name string, opts []Option) Base {
	b := Base{Name: name, DisplayName: name}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// field reads a Base field; ok is false for names Base does not hold.
func (b *Base) field(name string) (any, bool) {
	switch name {
	case FieldName:
		return b.Name, true
	case FieldDisplayName:
		return b.DisplayName, true
	case FieldInfo:
		return b.Info, true
	case FieldRequired:
		return b.Required, true
	}
	return nil, false
}
