package textutil

import (
	"errors"
	"reflect"
	"testing"

	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/schema"
)

type rec struct {
	typ  *schema.Type
	vals map[string]any
}

func (r *rec) Schema() *schema.Type { return r.typ }

func (r *rec) Field(name string) (any, bool) {
	if !r.typ.Fields().Has(name) {
		return nil, false
	}
	v, ok := r.vals[name]
	return v, ok
}

func data(m map[string]any) schema.Record {
	return &rec{typ: schema.Data, vals: map[string]any{"data": m}}
}

func TestCleanString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a\n\n\n\nb", "a\n\nb"},
		{"a\n   \n\t\n\nb", "a\n\nb"},
		{"single\nline", "single\nline"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanString(tt.in); got != tt.want {
			t.Errorf("CleanString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoalesceBool(t *testing.T) {
	truthy := []any{true, "true", "YES", " on ", "1", 1, 2.5}
	falsy := []any{false, nil, "false", "no", "", 0, 0.0, struct{}{}}
	for _, v := range truthy {
		if !CoalesceBool(v) {
			t.Errorf("CoalesceBool(%#v) = false", v)
		}
	}
	for _, v := range falsy {
		if CoalesceBool(v) {
			t.Errorf("CoalesceBool(%#v) = true", v)
		}
	}
}

func TestFormatType(t *testing.T) {
	if got := FormatType(data(nil)); got != "Data" {
		t.Errorf("FormatType(record) = %q", got)
	}
	if got := FormatType(reflect.TypeOf(0)); got != "int" {
		t.Errorf("FormatType(reflect.Type) = %q", got)
	}
	if got := FormatType(1.5); got != "float64" {
		t.Errorf("FormatType(float) = %q", got)
	}
	if got := FormatType(nil); got != "nil" {
		t.Errorf("FormatType(nil) = %q", got)
	}
}

func TestRender(t *testing.T) {
	got, err := Render("{name} said {{hi}} {n}", map[string]any{"name": "ann", "n": 3})
	if err != nil || got != "ann said {hi} 3" {
		t.Errorf("Render() = %q, %v", got, err)
	}
	if _, err := Render("{missing}", map[string]any{"a": 1}); !errors.Is(err, ErrTemplateKey) {
		t.Errorf("Render(missing) error = %v", err)
	}
	if _, err := Render("{open", nil); err == nil {
		t.Error("Render(unclosed) should fail")
	}
}

func TestDataToText(t *testing.T) {
	records := []schema.Record{
		data(map[string]any{"text": "one", "sender": "User"}),
		data(map[string]any{"text": "two", "sender": "AI"}),
	}
	got, err := DataToText("{sender}: {text}", records, "\n")
	if err != nil || got != "User: one\nAI: two" {
		t.Errorf("DataToText() = %q, %v", got, err)
	}

	list, back, err := DataToTextList("{text}", records)
	if err != nil || len(list) != 2 || list[1] != "two" || len(back) != 2 {
		t.Errorf("DataToTextList() = %v, %v", list, err)
	}

	if _, err := DataToText("{x}", []schema.Record{&rec{typ: schema.Define("Other", nil, schema.Req("data")), vals: map[string]any{"data": map[string]any{}}}}, ""); err == nil {
		t.Error("DataToText should reject non-Data records")
	}
}

func TestDocsToData(t *testing.T) {
	docs := []capability.Document{{PageContent: "body", Metadata: map[string]any{"source": "a.txt"}}}
	out := DocsToData(docs, func(m map[string]any) schema.Record { return data(m) })
	if len(out) != 1 {
		t.Fatalf("DocsToData() returned %d records", len(out))
	}
	d, _ := schema.Get[map[string]any](out[0], "data")
	if d["text"] != "body" || d["source"] != "a.txt" {
		t.Errorf("data = %v", d)
	}
}

func TestSafeConvert(t *testing.T) {
	msg := &rec{typ: schema.Message, vals: map[string]any{"data": map[string]any{}, "text": "hello\n\n\n\nworld"}}
	tests := []struct {
		name  string
		v     any
		clean bool
		want  string
	}{
		{"string", "plain", false, "plain"},
		{"message", msg, false, "hello\n\n\n\nworld"},
		{"message cleaned", msg, true, "hello\n\nworld"},
		{"data text key", data(map[string]any{"text": "t"}), false, "t"},
		{"data json", data(map[string]any{"a": 1.0}), false, `{"a":1}`},
		{"map", map[string]any{"k": "v"}, false, `{"k":"v"}`},
		{"number", 42, false, "42"},
		{"nil", nil, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeConvert(tt.v, tt.clean)
			if err != nil || got != tt.want {
				t.Errorf("SafeConvert() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestGetFlowInputs(t *testing.T) {
	flow := capability.Flow{Nodes: []capability.FlowNode{
		{ID: "ChatInput-1", Type: "ChatInput", DisplayName: "Chat Input", IsInput: true},
		{ID: "LLM-1", Type: "OpenAI"},
		{ID: "TextInput-2", Type: "TextInput", IsInput: true},
	}}
	got := GetFlowInputs(flow)
	if len(got) != 2 || got[0].Name != "Chat Input" || got[1].Name != "TextInput-2" {
		t.Errorf("GetFlowInputs() = %+v", got)
	}
}

func TestArgName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Chat Input", "chat_input"},
		{"  Topic ", "topic"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ArgName(tt.in); got != tt.want {
			t.Errorf("ArgName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildSchemaFromInputsRejectsClashingNames(t *testing.T) {
	_, err := BuildSchemaFromInputs("M", []capability.FlowInput{{Name: "Chat Input"}, {Name: "chat input"}})
	if !errors.Is(err, capability.ErrInvalidModel) {
		t.Errorf("BuildSchemaFromInputs() error = %v, want ErrInvalidModel", err)
	}
}
