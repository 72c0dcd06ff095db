package standalone

import (
	"context"
	"fmt"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/internal/textutil"
	"github.com/adrianmcphee/crossbase/schema"
)

// HelpersOps returns the standalone helpers group. There is no flow storage
// in process, so the flow operations report ErrNotSupported.
func HelpersOps() capability.HelpersOps {
	return capability.HelpersOps{
		CleanString:          textutil.CleanString,
		CoalesceBool:         textutil.CoalesceBool,
		FormatType:           textutil.FormatType,
		BuildModelFromSchema: capability.BuildModel,
		DataToText:           textutil.DataToText,
		DataToTextList:       textutil.DataToTextList,
		DocsToData: func(docs []capability.Document) []schema.Record {
			return textutil.DocsToData(docs, func(values map[string]any) schema.Record { return NewData(values) })
		},
		SafeConvert: textutil.SafeConvert,
		ListFlows: func(context.Context) ([]capability.Flow, error) {
			return nil, fmt.Errorf("list flows: %w", crossbase.ErrNotSupported)
		},
		LoadFlow: func(_ context.Context, id string) (capability.Flow, error) {
			return capability.Flow{}, crossbase.WithContext(
				fmt.Errorf("load flow: %w", crossbase.ErrNotSupported),
				map[string]interface{}{"flow_id": id},
			)
		},
		GetFlowInputs:         textutil.GetFlowInputs,
		BuildSchemaFromInputs: textutil.BuildSchemaFromInputs,
		GetArgNames:           textutil.GetArgNames,
	}
}
