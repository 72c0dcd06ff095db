package inputs

import (
	"github.com/adrianmcphee/crossbase/schema"
)

// MessageInput accepts Message values from either backend, and Data values
// standing in for a message.
type MessageInput struct {
	Base
	value     schema.Record
	isMessage bool
}

// NewMessageInput wraps v. A value declaring itself a Message must carry every
// Message field; any other value must be compatible with Data. Failures are
// *schema.MismatchError values naming Message as the expected type.
func NewMessageInput(name string, v any, opts ...Option) (*MessageInput, error) {
	isMessage := declaresMessage(v)
	if isMessage {
		if err := schema.Check(v, schema.Message); err != nil {
			return nil, err
		}
	} else if err := schema.Check(v, schema.Data); err != nil {
		mismatch := err.(*schema.MismatchError)
		mismatch.Expected = schema.MessageName
		return nil, mismatch
	}
	return &MessageInput{
		Base:      newBase(name, opts),
		value:     v.(schema.Record),
		isMessage: isMessage,
	}, nil
}

func declaresMessage(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	r, isRecord := v.(schema.Record)
	if !isRecord || r == nil {
		return false
	}
	t := r.Schema()
	return t != nil && t.Is(schema.MessageName)
}

// Value returns the wrapped record.
func (in *MessageInput) Value() schema.Record { return in.value }

// IsMessage reports whether the wrapped value is a Message rather than Data.
func (in *MessageInput) IsMessage() bool { return in.isMessage }

// Data returns the record's data map.
func (in *MessageInput) Data() map[string]any { return dataOf(in.value) }

// Text returns the message text, or data[text_key] for a Data value.
func (in *MessageInput) Text() string {
	if in.isMessage {
		if s, ok := schema.Get[string](in.value, schema.FieldText); ok {
			return s
		}
	}
	return textFromData(in.value)
}

// Sender returns the sender, read from data for a Data value.
func (in *MessageInput) Sender() string { return in.str(schema.FieldSender) }

// SenderName returns the sender name, read from data for a Data value.
func (in *MessageInput) SenderName() string { return in.str(schema.FieldSenderName) }

// SessionID returns the session id, read from data for a Data value.
func (in *MessageInput) SessionID() string { return in.str(schema.FieldSessionID) }

func (in *MessageInput) str(field string) string {
	if s, ok := schema.Get[string](in.value, field); ok && s != "" {
		return s
	}
	s, _ := dataOf(in.value)[field].(string)
	return s
}

func (in *MessageInput) Schema() *schema.Type { return MessageInputType }

func (in *MessageInput) Field(name string) (any, bool) {
	if name == FieldValue {
		return in.value, true
	}
	return in.field(name)
}
