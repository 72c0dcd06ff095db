package inputs

import "github.com/adrianmcphee/crossbase/schema"

// StrInput holds a string value.
type StrInput struct {
	Base
	Value string
}

// NewStrInput returns a string input.
func NewStrInput(name, value string, opts ...Option) *StrInput {
	return &StrInput{Base: newBase(name, opts), Value: value}
}

func (in *StrInput) Schema() *schema.Type { return StrInputType }

func (in *StrInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.Value, true
	}
	return in.field(name)
}

// IntInput holds an integer value.
type IntInput struct {
	Base
	Value int
}

// NewIntInput returns an integer input.
func NewIntInput(name string, value int, opts ...Option) *IntInput {
	return &IntInput{Base: newBase(name, opts), Value: value}
}

func (in *IntInput) Schema() *schema.Type { return IntInputType }

func (in *IntInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.Value, true
	}
	return in.field(name)
}

// FloatInput holds a floating-point value.
type FloatInput struct {
	Base
	Value float64
}

// NewFloatInput returns a float input.
func NewFloatInput(name string, value float64, opts ...Option) *FloatInput {
	return &FloatInput{Base: newBase(name, opts), Value: value}
}

func (in *FloatInput) Schema() *schema.Type { return FloatInputType }

func (in *FloatInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.Value, true
	}
	return in.field(name)
}

// BoolInput holds a boolean value.
type BoolInput struct {
	Base
	Value bool
}

// NewBoolInput returns a boolean input.
func NewBoolInput(name string, value bool, opts ...Option) *BoolInput {
	return &BoolInput{Base: newBase(name, opts), Value: value}
}

func (in *BoolInput) Schema() *schema.Type { return BoolInputType }

func (in *BoolInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.Value, true
	}
	return in.field(name)
}
