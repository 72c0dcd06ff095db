// Package helpers is the facade over the helpers capability group: text
// formatting, dynamic models and flow lookup.
//
// Functions with an error result report an unresolvable group through it.
// CleanString, CoalesceBool, FormatType, DocsToData, GetFlowInputs and
// GetArgNames have no error result and panic with the
// *router.UnresolvableGroupError instead; callers running on a custom router
// can check Facade().Get() first. The standalone backend is always linked,
// so the default router always resolves the group.
//
// Running a flow needs a flow-graph runtime and is not part of this group.
package helpers

import (
	"context"

	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"

	_ "github.com/adrianmcphee/crossbase/standalone"
)

var facade = router.NewFacade(capability.Helpers, capability.DecodeHelpers)

// Facade returns the handle on the helpers group.
func Facade() *router.Facade[capability.HelpersOps] { return facade }

// Backend reports which backend serves the helpers group.
func Backend() router.Backend { return facade.Backend() }

// ops returns the bound group or panics with the binding error.
func ops() capability.HelpersOps {
	o, err := facade.Get()
	if err != nil {
		panic(err)
	}
	return o
}

// CleanString empties whitespace-only lines and collapses runs of blank lines.
func CleanString(s string) string { return ops().CleanString(s) }

// CoalesceBool interprets v as a boolean.
func CoalesceBool(v any) bool { return ops().CoalesceBool(v) }

// FormatType names the type of v for display.
func FormatType(v any) string { return ops().FormatType(v) }

// BuildModelFromSchema declares a record type from field descriptions.
func BuildModelFromSchema(name string, fields []capability.SchemaField) (*capability.Model, error) {
	o, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return o.BuildModelFromSchema(name, fields)
}

// DataToText renders template per record and joins the results with sep.
func DataToText(template string, data []schema.Record, sep string) (string, error) {
	o, err := facade.Get()
	if err != nil {
		return "", err
	}
	return o.DataToText(template, data, sep)
}

// DataToTextList renders template per record.
func DataToTextList(template string, data []schema.Record) ([]string, []schema.Record, error) {
	o, err := facade.Get()
	if err != nil {
		return nil, nil, err
	}
	return o.DataToTextList(template, data)
}

// DocsToData converts documents to the serving backend's Data values.
func DocsToData(docs []capability.Document) []schema.Record { return ops().DocsToData(docs) }

// SafeConvert turns v into display text.
func SafeConvert(v any, clean bool) (string, error) {
	o, err := facade.Get()
	if err != nil {
		return "", err
	}
	return o.SafeConvert(v, clean)
}

// ListFlows returns the stored flows.
func ListFlows(ctx context.Context) ([]capability.Flow, error) {
	o, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return o.ListFlows(ctx)
}

// LoadFlow reads one flow by id.
func LoadFlow(ctx context.Context, id string) (capability.Flow, error) {
	o, err := facade.Get()
	if err != nil {
		return capability.Flow{}, err
	}
	return o.LoadFlow(ctx, id)
}

// GetFlowInputs lists a flow's input vertices.
func GetFlowInputs(flow capability.Flow) []capability.FlowInput { return ops().GetFlowInputs(flow) }

// BuildSchemaFromInputs declares a model with one string field per flow input.
func BuildSchemaFromInputs(name string, inputs []capability.FlowInput) (*capability.Model, error) {
	o, err := facade.Get()
	if err != nil {
		return nil, err
	}
	return o.BuildSchemaFromInputs(name, inputs)
}

// GetArgNames maps flow inputs to the argument names their values go under.
func GetArgNames(inputs []capability.FlowInput) []capability.ArgName {
	return ops().GetArgNames(inputs)
}
