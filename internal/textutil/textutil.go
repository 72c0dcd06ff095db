// Package textutil holds the text helpers both backends expose through the
// helpers capability group.
package textutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/schema"
)

// ErrTemplateKey is returned when a template names a key the data lacks.
var ErrTemplateKey = errors.New("template references unknown key")

var (
	blankLine   = regexp.MustCompile(`(?m)^[ \t\r\f\v]+$`)
	manyNewline = regexp.MustCompile(`\n{3,}`)
)

// CleanString empties whitespace-only lines and collapses runs of blank
// lines to one.
func CleanString(s string) string {
	s = blankLine.ReplaceAllString(s, "")
	return manyNewline.ReplaceAllString(s, "\n\n")
}

// CoalesceBool interprets v as a boolean: true, non-zero numbers and the
// strings "true", "1", "yes", "y", "on" (any case) are true.
func CoalesceBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "y", "on":
			return true
		}
		return false
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	}
	return false
}

// FormatType names the type of v for display. Records report their logical
// type name.
func FormatType(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case schema.Record:
		return schema.TypeNameOf(x)
	case reflect.Type:
		return x.String()
	case *schema.Type:
		return x.Name()
	}
	return fmt.Sprintf("%T", v)
}

// Render replaces {key} placeholders with values[key]. "{{" and "}}" are
// literal braces. Map and slice values render as JSON.
func Render(template string, values map[string]any) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			key := template[i+1 : i+end]
			v, ok := values[key]
			if !ok {
				return "", fmt.Errorf("%w %q, available: [%s]", ErrTemplateKey, key, strings.Join(sortedKeys(values), ", "))
			}
			s, err := stringify(v)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case map[string]any, []any:
		out, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return fmt.Sprint(v), nil
}

// templateValues exposes a record's data keys plus "data" for the whole map.
func templateValues(r schema.Record) map[string]any {
	data, _ := schema.Get[map[string]any](r, schema.FieldData)
	values := make(map[string]any, len(data)+2)
	for k, v := range data {
		values[k] = v
	}
	values[schema.FieldData] = data
	if text, ok := schema.Get[string](r, schema.FieldText); ok {
		if _, taken := values[schema.FieldText]; !taken {
			values[schema.FieldText] = text
		}
	}
	return values
}

// DataToTextList renders template once per record and returns the rendered
// strings alongside the records.
func DataToTextList(template string, data []schema.Record) ([]string, []schema.Record, error) {
	out := make([]string, 0, len(data))
	for _, r := range data {
		if err := schema.Check(r, schema.Data); err != nil {
			return nil, nil, err
		}
		s, err := Render(template, templateValues(r))
		if err != nil {
			return nil, nil, err
		}
		out = append(out, s)
	}
	return out, data, nil
}

// DataToText renders template per record and joins the results with sep.
func DataToText(template string, data []schema.Record, sep string) (string, error) {
	parts, _, err := DataToTextList(template, data)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, sep), nil
}

// DocsToData builds one record per document with newData; the data map holds
// the document metadata plus its content under "text".
func DocsToData(docs []capability.Document, newData func(data map[string]any) schema.Record) []schema.Record {
	out := make([]schema.Record, 0, len(docs))
	for _, d := range docs {
		data := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			data[k] = v
		}
		data[schema.DefaultTextKey] = d.PageContent
		out = append(out, newData(data))
	}
	return out
}

// SafeConvert turns v into display text. Messages yield their text, Data
// values their text_key entry or JSON data, collections JSON. clean applies
// CleanString to the result.
func SafeConvert(v any, clean bool) (string, error) {
	s, err := convert(v)
	if err != nil {
		return "", err
	}
	if clean {
		s = CleanString(s)
	}
	return s, nil
}

func convert(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []schema.Record:
		parts := make([]string, 0, len(x))
		for _, r := range x {
			s, err := convert(r)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	case schema.Record:
		if schema.Compatible(x, schema.Message) {
			text, _ := schema.Get[string](x, schema.FieldText)
			return text, nil
		}
		if schema.Compatible(x, schema.Data) {
			return dataText(x)
		}
		out, err := json.Marshal(schema.Dump(x))
		return string(out), err
	case map[string]any, []any:
		out, err := json.Marshal(x)
		return string(out), err
	}
	return fmt.Sprint(v), nil
}

func dataText(r schema.Record) (string, error) {
	data, _ := schema.Get[map[string]any](r, schema.FieldData)
	key := schema.DefaultTextKey
	if k, ok := schema.Get[string](r, schema.FieldTextKey); ok && k != "" {
		key = k
	}
	if v, ok := data[key]; ok {
		return stringify(v)
	}
	out, err := json.Marshal(data)
	return string(out), err
}

// GetFlowInputs returns the flow's input vertices in node order.
func GetFlowInputs(flow capability.Flow) []capability.FlowInput {
	var inputs []capability.FlowInput
	for _, n := range flow.Nodes {
		if !n.IsInput {
			continue
		}
		name := n.DisplayName
		if name == "" {
			name = n.ID
		}
		inputs = append(inputs, capability.FlowInput{
			ID:          n.ID,
			Name:        name,
			Type:        n.Type,
			Description: n.Description,
		})
	}
	return inputs
}

// ArgName derives the argument name for a flow input's display name:
// lower case with spaces replaced by underscores.
func ArgName(displayName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(displayName)), " ", "_")
}

// GetArgNames maps each input to the argument name it is passed under.
func GetArgNames(inputs []capability.FlowInput) []capability.ArgName {
	out := make([]capability.ArgName, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, capability.ArgName{ComponentName: in.Name, ArgName: ArgName(in.Name)})
	}
	return out
}

// BuildSchemaFromInputs declares a model with one optional string field per
// input, named by ArgName and described by the input's description.
func BuildSchemaFromInputs(name string, inputs []capability.FlowInput) (*capability.Model, error) {
	fields := make([]capability.SchemaField, 0, len(inputs))
	for _, in := range inputs {
		fields = append(fields, capability.SchemaField{
			Name:        ArgName(in.Name),
			Type:        capability.KindStr,
			Description: in.Description,
		})
	}
	return capability.BuildModel(name, fields)
}
