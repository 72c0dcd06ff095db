package full

import (
	"time"

	"github.com/adrianmcphee/crossbase/internal/fieldconv"
	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

// Backend is the name this backend registers its schema variants under.
const Backend = string(router.Full)

// Fields only the full backend declares.
const (
	FieldContentBlocks = "content_blocks"
	FieldDuration      = "duration"
)

var (
	DataType = schema.Define(schema.DataName, nil,
		schema.Req(schema.FieldData),
		schema.Opt(schema.FieldTextKey),
		schema.Opt(schema.FieldDefaultValue),
	)

	// MessageType adds the persisted extras to the Message contract.
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
		schema.Opt(FieldContentBlocks),
		schema.Opt(FieldDuration),
	)
)

// Data is a bag of values with a designated text key.
type Data struct {
	Values       map[string]any `json:"data"`
	TextKey      string         `json:"text_key,omitempty"`
	DefaultValue string         `json:"default_value,omitempty"`
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

// Message is a persisted chat message. It is stored as JSON under
// messages/<id>.json.
type Message struct {
	ID           string         `json:"id"`
	Values       map[string]any `json:"data"`
	TextKey      string         `json:"text_key,omitempty"`
	DefaultValue string         `json:"default_value,omitempty"`

	Text       string         `json:"text"`
	Sender     string         `json:"sender,omitempty"`
	SenderName string         `json:"sender_name,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	FlowID     string         `json:"flow_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Files      []string       `json:"files,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Category   string         `json:"category,omitempty"`
	Error      bool           `json:"error,omitempty"`
	Edit       bool           `json:"edit,omitempty"`

	ContentBlocks []map[string]any `json:"content_blocks,omitempty"`
	// Duration is the generation time in milliseconds.
	Duration int64 `json:"duration,omitempty"`
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
	case FieldContentBlocks:
		return m.ContentBlocks, true
	case FieldDuration:
		return m.Duration, true
	}
	return nil, false
}

func (m *Message) clone() *Message {
	c := *m
	c.Values = fieldconv.Copy(m.Values)
	c.Properties = fieldconv.Copy(m.Properties)
	c.Files = append([]string(nil), m.Files...)
	if m.ContentBlocks != nil {
		c.ContentBlocks = make([]map[string]any, len(m.ContentBlocks))
		for i, b := range m.ContentBlocks {
			c.ContentBlocks[i] = fieldconv.Copy(b)
		}
	}
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

// LoadMessage builds a Message from a dumped field map. Fields the source
// backend does not declare keep their zero values.
func LoadMessage(fields map[string]any) (schema.Record, error) {
	r := fieldconv.NewReader(fields)
	m := &Message{
		ID:            r.String(schema.FieldID),
		Values:        r.Map(schema.FieldData),
		TextKey:       r.StringOr(schema.FieldTextKey, schema.DefaultTextKey),
		DefaultValue:  r.String(schema.FieldDefaultValue),
		Text:          r.String(schema.FieldText),
		Sender:        r.String(schema.FieldSender),
		SenderName:    r.String(schema.FieldSenderName),
		SessionID:     r.String(schema.FieldSessionID),
		FlowID:        r.String(schema.FieldFlowID),
		Timestamp:     r.Time(schema.FieldTimestamp),
		Files:         r.Strings(schema.FieldFiles),
		Properties:    r.Map(schema.FieldProperties),
		Category:      r.String(schema.FieldCategory),
		Error:         r.Bool(schema.FieldError),
		Edit:          r.Bool(schema.FieldEdit),
		ContentBlocks: r.Maps(FieldContentBlocks),
		Duration:      r.Int64(FieldDuration),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	return m, nil
}

// toMessage converts any compatible record into a private full copy.
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
