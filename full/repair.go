package full

import (
	"context"
	"fmt"
	"sort"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/internal/store"
	"github.com/adrianmcphee/crossbase/schema"
)

// RepairReport describes one RepairIndex run.
type RepairReport struct {
	// Validated is the number of stored messages read.
	Validated int
	// Repaired counts index memberships added.
	Repaired int
	// Removed counts stale memberships dropped.
	Removed int
	Missing []string
	Orphans []string
	Errors  []string
}

// RepairIndex reconciles the Redis session and flow sets with the stored
// messages. Messages absent from their sets are added and set members whose
// message is gone or moved are removed. Unreadable messages are reported
// and skipped. Only one repair runs at a time across processes.
func (s *Service) RepairIndex(ctx context.Context) (*RepairReport, error) {
	st, idx, err := s.handles(ctx)
	if err != nil {
		return nil, err
	}
	if !idx.Enabled() {
		return nil, fmt.Errorf("%w: %v", crossbase.ErrInvalidConfig, store.ErrIndexUnavailable)
	}

	release, err := idx.Lock(ctx, "repair", 0)
	if err != nil {
		return nil, err
	}
	defer release()

	keys, err := st.List(ctx, messagePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	report := &RepairReport{}
	// attribute -> value -> message keys
	want := map[string]map[string]map[string]bool{
		schema.FieldSessionID: {},
		schema.FieldFlowID:    {},
	}
	for _, key := range keys {
		var m Message
		if err := st.GetJSON(ctx, key, &m); err != nil {
			if crossbase.IsNotFound(err) {
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("read %s: %v", key, err))
			continue
		}
		report.Validated++
		for _, e := range indexEntries(&m) {
			if e.Value == "" {
				continue
			}
			if want[e.Name][e.Value] == nil {
				want[e.Name][e.Value] = map[string]bool{}
			}
			want[e.Name][e.Value][key] = true
		}
	}

	for _, name := range []string{schema.FieldSessionID, schema.FieldFlowID} {
		if err := s.repairAttribute(ctx, idx, name, want[name], report); err != nil {
			return report, err
		}
	}

	sort.Strings(report.Missing)
	sort.Strings(report.Orphans)
	s.logger.Info("session index repaired",
		"validated", report.Validated,
		"repaired", report.Repaired,
		"removed", report.Removed,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *Service) repairAttribute(ctx context.Context, idx *store.SessionIndex, name string, want map[string]map[string]bool, report *RepairReport) error {
	indexed, err := idx.Values(ctx, name)
	if err != nil {
		return err
	}
	values := make(map[string]bool, len(indexed)+len(want))
	for _, v := range indexed {
		values[v] = true
	}
	for v := range want {
		values[v] = true
	}

	for value := range values {
		members, err := idx.Query(ctx, name, value)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(members))
		for _, key := range members {
			have[key] = true
			if want[value][key] {
				continue
			}
			report.Orphans = append(report.Orphans, name+"="+value+":"+key)
			if err := idx.Remove(ctx, key, store.IndexEntry{Name: name, Value: value}); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("remove %s from %s=%s: %v", key, name, value, err))
				continue
			}
			report.Removed++
		}
		for key := range want[value] {
			if have[key] {
				continue
			}
			report.Missing = append(report.Missing, name+"="+value+":"+key)
			if err := idx.Add(ctx, key, store.IndexEntry{Name: name, Value: value}); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("add %s to %s=%s: %v", key, name, value, err))
				continue
			}
			report.Repaired++
		}
	}
	return nil
}

// RepairIndex reconciles the default service's index.
func RepairIndex(ctx context.Context) (*RepairReport, error) {
	return defaultService.RepairIndex(ctx)
}
