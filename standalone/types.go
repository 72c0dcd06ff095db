package standalone

import (
	"time"

	"github.com/adrianmcphee/crossbase/internal/fieldconv"
	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

// Backend is the name this backend registers its schema variants under.
const Backend = string(router.Standalone)

// The standalone Data and Message declarations: exactly the contract fields.
var (
	DataType = schema.Define(schema.DataName, nil,
		schema.Req(schema.FieldData),
		schema.Opt(schema.FieldTextKey),
		schema.Opt(schema.FieldDefaultValue),
	)

	MessageType = schema.Define(schema.MessageName, DataType,
		schema.Req(schema.FieldText),
		schema.Opt(schema.FieldSender),
		schema.Opt(schema.FieldSenderName),
		schema.Opt(schema.FieldSessionID),
		schema.Opt(schema.FieldFlowID),
		schema.Opt(schema.FieldID),
		schema.Opt(schema.FieldTimestamp),
		schema.Opt(schema.FieldFiles),
		schema.Opt(schema.FieldProperties),
		schema.Opt(schema.FieldCategory),
		schema.Opt(schema.FieldError),
		schema.Opt(schema.FieldEdit),
	)
)

// Data is a bag of values with a designated text key.
type Data struct {
	Values       map[string]any
	TextKey      string
	DefaultValue string
}

// NewData wraps values using the default text key.
func NewData(values map[string]any) *Data {
	if values == nil {
		values = map[string]any{}
	}
	return &Data{Values: values, TextKey: schema.DefaultTextKey}
}

func (d *Data) Schema() *schema.Type { return DataType }

func (d *Data) Field(name string) (any, bool) {
	switch name {
	case schema.FieldData:
		return d.Values, true
	case schema.FieldTextKey:
		return d.TextKey, true
	case schema.FieldDefaultValue:
		return d.DefaultValue, true
	}
	return nil, false
}

// Text returns the value under the text key, or the default value.
func (d *Data) Text() string {
	if s, ok := d.Values[d.TextKey].(string); ok {
		return s
	}
	return d.DefaultValue
}

// Message is a chat message held in process memory.
type Message struct {
	Values       map[string]any
	TextKey      string
	DefaultValue string

	Text       string
	Sender     string
	SenderName string
	SessionID  string
	FlowID     string
	ID         string
	Timestamp  time.Time
	Files      []string
	Properties map[string]any
	Category   string
	Error      bool
	Edit       bool
}

// NewMessage builds a message with empty data and the default text key.
func NewMessage(text, sender, senderName, sessionID string) *Message {
	return &Message{
		Values:     map[string]any{},
		TextKey:    schema.DefaultTextKey,
		Text:       text,
		Sender:     sender,
		SenderName: senderName,
		SessionID:  sessionID,
		Category:   "message",
	}
}

func (m *Message) Schema() *schema.Type { return MessageType }

func (m *Message) Field(name string) (any, bool) {
	switch name {
	case schema.FieldData:
		return m.Values, true
	case schema.FieldTextKey:
		return m.TextKey, true
	case schema.FieldDefaultValue:
		return m.DefaultValue, true
	case schema.FieldText:
		return m.Text, true
	case schema.FieldSender:
		return m.Sender, true
	case schema.FieldSenderName:
		return m.SenderName, true
	case schema.FieldSessionID:
		return m.SessionID, true
	case schema.FieldFlowID:
		return m.FlowID, true
	case schema.FieldID:
		return m.ID, true
	case schema.FieldTimestamp:
		return m.Timestamp, true
	case schema.FieldFiles:
		return m.Files, true
	case schema.FieldProperties:
		return m.Properties, true
	case schema.FieldCategory:
		return m.Category, true
	case schema.FieldError:
		return m.Error, true
	case schema.FieldEdit:
		return m.Edit, true
	}
	return nil, false
}

func (m *Message) clone() *Message {
	c := *m
	c.Values = fieldconv.Copy(m.Values)
	c.Properties = fieldconv.Copy(m.Properties)
	c.Files = append([]string(nil), m.Files...)
	return &c
}

// LoadData builds a Data from a dumped field map.
func LoadData(fields map[string]any) (schema.Record, error) {
	r := fieldconv.NewReader(fields)
	d := &Data{
		Values:       r.Map(schema.FieldData),
		TextKey:      r.StringOr(schema.FieldTextKey, schema.DefaultTextKey),
		DefaultValue: r.String(schema.FieldDefaultValue),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	return d, nil
}

// LoadMessage builds a Message from a dumped field map.
func LoadMessage(fields map[string]any) (schema.Record, error) {
	r := fieldconv.NewReader(fields)
	m := &Message{
		Values:       r.Map(schema.FieldData),
		TextKey:      r.StringOr(schema.FieldTextKey, schema.DefaultTextKey),
		DefaultValue: r.String(schema.FieldDefaultValue),
		Text:         r.String(schema.FieldText),
		Sender:       r.String(schema.FieldSender),
		SenderName:   r.String(schema.FieldSenderName),
		SessionID:    r.String(schema.FieldSessionID),
		FlowID:       r.String(schema.FieldFlowID),
		ID:           r.String(schema.FieldID),
		Timestamp:    r.Time(schema.FieldTimestamp),
		Files:        r.Strings(schema.FieldFiles),
		Properties:   r.Map(schema.FieldProperties),
		Category:     r.String(schema.FieldCategory),
		Error:        r.Bool(schema.FieldError),
		Edit:         r.Bool(schema.FieldEdit),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	return m, nil
}

// toMessage converts any compatible record into a private standalone copy.
func toMessage(rec schema.Record) (*Message, error) {
	if err := schema.Check(rec, schema.Message); err != nil {
		return nil, err
	}
	if m, ok := rec.(*Message); ok {
		return m.clone(), nil
	}
	out, err := schema.DefaultRegistry.Convert(rec, Backend)
	if err != nil {
		return nil, err
	}
	return out.(*Message), nil
}

func init() {
	schema.DefaultRegistry.MustRegister(Backend, DataType, LoadData)
	schema.DefaultRegistry.MustRegister(Backend, MessageType, LoadMessage)
}
