package full

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/internal/textutil"
	"github.com/adrianmcphee/crossbase/schema"
)

const flowPrefix = "flows"

func flowKey(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", crossbase.WithContext(
			fmt.Errorf("%w: unusable flow id %q", crossbase.ErrInvalidData, id),
			map[string]interface{}{"flow_id": id},
		)
	}
	return flowPrefix + "/" + id + ".json", nil
}

// ListFlows returns every stored flow, most recently updated first.
func (s *Service) ListFlows(ctx context.Context) ([]capability.Flow, error) {
	st, _, err := s.handles(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := st.List(ctx, flowPrefix)
	if err != nil {
		return nil, err
	}
	flows := make([]capability.Flow, 0, len(keys))
	for _, key := range keys {
		var f capability.Flow
		if err := st.GetJSON(ctx, key, &f); err != nil {
			if crossbase.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		flows = append(flows, f)
	}
	sort.SliceStable(flows, func(i, j int) bool {
		if !flows[i].UpdatedAt.Equal(flows[j].UpdatedAt) {
			return flows[i].UpdatedAt.After(flows[j].UpdatedAt)
		}
		return flows[i].Name < flows[j].Name
	})
	return flows, nil
}

// LoadFlow reads one flow by id.
func (s *Service) LoadFlow(ctx context.Context, id string) (capability.Flow, error) {
	key, err := flowKey(id)
	if err != nil {
		return capability.Flow{}, err
	}
	st, _, err := s.handles(ctx)
	if err != nil {
		return capability.Flow{}, err
	}
	var f capability.Flow
	if err := st.GetJSON(ctx, key, &f); err != nil {
		return capability.Flow{}, crossbase.WithContext(fmt.Errorf("load flow: %w", err), map[string]interface{}{"flow_id": id})
	}
	if f.ID == "" {
		f.ID = id
	}
	return f, nil
}

// SaveFlow stores f under its id.
func (s *Service) SaveFlow(ctx context.Context, f capability.Flow) error {
	key, err := flowKey(f.ID)
	if err != nil {
		return err
	}
	st, _, err := s.handles(ctx)
	if err != nil {
		return err
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = s.now().UTC()
	}
	return st.PutJSON(ctx, key, f)
}

// HelpersOps returns the helpers group bound to s.
func (s *Service) HelpersOps() capability.HelpersOps {
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
		SafeConvert:           textutil.SafeConvert,
		ListFlows:             s.ListFlows,
		LoadFlow:              s.LoadFlow,
		GetFlowInputs:         textutil.GetFlowInputs,
		BuildSchemaFromInputs: textutil.BuildSchemaFromInputs,
		GetArgNames:           textutil.GetArgNames,
	}
}
