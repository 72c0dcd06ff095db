package capability

import (
	"context"
	"time"

	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

// Helpers symbol names.
const (
	SymCleanString           = "CleanString"
	SymCoalesceBool          = "CoalesceBool"
	SymFormatType            = "FormatType"
	SymBuildModelFromSchema  = "BuildModelFromSchema"
	SymDataToText            = "DataToText"
	SymDataToTextList        = "DataToTextList"
	SymDocsToData            = "DocsToData"
	SymSafeConvert           = "SafeConvert"
	SymListFlows             = "ListFlows"
	SymLoadFlow              = "LoadFlow"
	SymGetFlowInputs         = "GetFlowInputs"
	SymBuildSchemaFromInputs = "BuildSchemaFromInputs"
	SymGetArgNames           = "GetArgNames"
)

// Helpers is the text, model and flow helper capability group.
var Helpers = router.Group{
	Name:    "helpers",
	Version: 1,
	Symbols: []string{
		SymCleanString, SymCoalesceBool, SymFormatType, SymBuildModelFromSchema,
		SymDataToText, SymDataToTextList, SymDocsToData, SymSafeConvert,
		SymListFlows, SymLoadFlow, SymGetFlowInputs,
		SymBuildSchemaFromInputs, SymGetArgNames,
	},
}

// Document is a loaded text document with metadata.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Flow is a stored flow definition.
type Flow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	FolderID    string         `json:"folder_id,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	Nodes       []FlowNode     `json:"nodes,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// FlowNode is one vertex of a flow graph.
type FlowNode struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	// IsInput marks vertices that receive flow inputs.
	IsInput bool `json:"is_input,omitempty"`
}

// FlowInput describes one input vertex of a flow.
type FlowInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ArgName pairs a flow input's display name with the argument name callers
// pass its value under.
type ArgName struct {
	ComponentName string `json:"component_name"`
	ArgName       string `json:"arg_name"`
}

// Helper operation signatures.
type (
	CleanStringFunc           = func(s string) string
	CoalesceBoolFunc          = func(v any) bool
	FormatTypeFunc            = func(v any) string
	BuildModelFromSchemaFunc  = func(name string, fields []SchemaField) (*Model, error)
	DataToTextFunc            = func(template string, data []schema.Record, sep string) (string, error)
	DataToTextListFunc        = func(template string, data []schema.Record) ([]string, []schema.Record, error)
	DocsToDataFunc            = func(docs []Document) []schema.Record
	SafeConvertFunc           = func(v any, clean bool) (string, error)
	ListFlowsFunc             = func(ctx context.Context) ([]Flow, error)
	LoadFlowFunc              = func(ctx context.Context, id string) (Flow, error)
	GetFlowInputsFunc         = func(flow Flow) []FlowInput
	BuildSchemaFromInputsFunc = func(name string, inputs []FlowInput) (*Model, error)
	GetArgNamesFunc           = func(inputs []FlowInput) []ArgName
)

// HelpersOps is the decoded helpers group.
type HelpersOps struct {
	CleanString           CleanStringFunc
	CoalesceBool          CoalesceBoolFunc
	FormatType            FormatTypeFunc
	BuildModelFromSchema  BuildModelFromSchemaFunc
	DataToText            DataToTextFunc
	DataToTextList        DataToTextListFunc
	DocsToData            DocsToDataFunc
	SafeConvert           SafeConvertFunc
	ListFlows             ListFlowsFunc
	LoadFlow              LoadFlowFunc
	GetFlowInputs         GetFlowInputsFunc
	BuildSchemaFromInputs BuildSchemaFromInputsFunc
	GetArgNames           GetArgNamesFunc
}

// DecodeHelpers decodes every helpers symbol from ns.
func DecodeHelpers(ns router.Namespace) (HelpersOps, error) {
	var ops HelpersOps
	d := decoder{ns: ns}
	ops.CleanString = lookup[CleanStringFunc](&d, SymCleanString)
	ops.CoalesceBool = lookup[CoalesceBoolFunc](&d, SymCoalesceBool)
	ops.FormatType = lookup[FormatTypeFunc](&d, SymFormatType)
	ops.BuildModelFromSchema = lookup[BuildModelFromSchemaFunc](&d, SymBuildModelFromSchema)
	ops.DataToText = lookup[DataToTextFunc](&d, SymDataToText)
	ops.DataToTextList = lookup[DataToTextListFunc](&d, SymDataToTextList)
	ops.DocsToData = lookup[DocsToDataFunc](&d, SymDocsToData)
	ops.SafeConvert = lookup[SafeConvertFunc](&d, SymSafeConvert)
	ops.ListFlows = lookup[ListFlowsFunc](&d, SymListFlows)
	ops.LoadFlow = lookup[LoadFlowFunc](&d, SymLoadFlow)
	ops.GetFlowInputs = lookup[GetFlowInputsFunc](&d, SymGetFlowInputs)
	ops.BuildSchemaFromInputs = lookup[BuildSchemaFromInputsFunc](&d, SymBuildSchemaFromInputs)
	ops.GetArgNames = lookup[GetArgNamesFunc](&d, SymGetArgNames)
	return ops, d.err()
}

// HelpersNamespace builds the helpers namespace from a backend's operations.
func HelpersNamespace(ops HelpersOps) router.Namespace {
	return router.Namespace{
		SymCleanString:           ops.CleanString,
		SymCoalesceBool:          ops.CoalesceBool,
		SymFormatType:            ops.FormatType,
		SymBuildModelFromSchema:  ops.BuildModelFromSchema,
		SymDataToText:            ops.DataToText,
		SymDataToTextList:        ops.DataToTextList,
		SymDocsToData:            ops.DocsToData,
		SymSafeConvert:           ops.SafeConvert,
		SymListFlows:             ops.ListFlows,
		SymLoadFlow:              ops.LoadFlow,
		SymGetFlowInputs:         ops.GetFlowInputs,
		SymBuildSchemaFromInputs: ops.BuildSchemaFromInputs,
		SymGetArgNames:           ops.GetArgNames,
	}
}
