package history

import (
	"errors"
	"testing"
	"time"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/schema"
)

type msg struct {
	vals map[string]any
	ts   time.Time
}

func (m *msg) Schema() *schema.Type { return schema.Message }

func (m *msg) Field(name string) (any, bool) {
	switch name {
	case schema.FieldData:
		return map[string]any{}, true
	case schema.FieldText:
		return m.vals["text"], true
	}
	v, ok := m.vals[name]
	return v, ok
}

func newMsg(text, session string, minute int) *msg {
	return &msg{
		vals: map[string]any{"text": text, "session_id": session, "sender": "User", "sender_name": "ann"},
		ts:   time.Date(2025, 1, 1, 0, minute, 0, 0, time.UTC),
	}
}

func stamp(m *msg) time.Time { return m.ts }

func texts(ms []*msg) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.vals["text"].(string)
	}
	return out
}

func TestSelect(t *testing.T) {
	entries := []Entry[*msg]{
		{Msg: newMsg("b", "s1", 2), Seq: 1},
		{Msg: newMsg("a", "s1", 1), Seq: 2},
		{Msg: newMsg("other", "s2", 0), Seq: 3},
		{Msg: newMsg("c", "s1", 2), Seq: 4},
	}

	tests := []struct {
		name string
		q    capability.MessageQuery
		want []string
	}{
		{"asc", capability.MessageQuery{SessionID: "s1"}, []string{"a", "b", "c"}},
		{"desc", capability.MessageQuery{SessionID: "s1", Order: capability.OrderDesc}, []string{"c", "b", "a"}},
		{"limit", capability.MessageQuery{SessionID: "s1", Limit: 2}, []string{"a", "b"}},
		{"all", capability.MessageQuery{}, []string{"other", "a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(entries, tt.q, stamp)
			if err != nil {
				t.Fatal(err)
			}
			g := texts(got)
			if len(g) != len(tt.want) {
				t.Fatalf("Select() = %v, want %v", g, tt.want)
			}
			for i := range g {
				if g[i] != tt.want[i] {
					t.Fatalf("Select() = %v, want %v", g, tt.want)
				}
			}
		})
	}

	if _, err := Select(entries, capability.MessageQuery{Order: "sideways"}, stamp); !errors.Is(err, capability.ErrInvalidQuery) {
		t.Errorf("invalid order error = %v", err)
	}
}

func TestRequireStorable(t *testing.T) {
	if err := RequireStorable(newMsg("x", "s", 0)); err != nil {
		t.Errorf("RequireStorable() error = %v", err)
	}
	m := newMsg("x", "", 0)
	m.vals["sender_name"] = ""
	err := RequireStorable(m)
	var ctxErr *crossbase.ErrorWithContext
	if !errors.As(err, &ctxErr) || len(ctxErr.Context["missing"].([]string)) != 2 {
		t.Errorf("RequireStorable() error = %v", err)
	}
	if err := RequireStorable(nil); !errors.Is(err, crossbase.ErrInvalidData) {
		t.Errorf("RequireStorable(nil) error = %v", err)
	}
	var mismatch *schema.MismatchError
	if err := CheckMessages([]schema.Record{m, nil}); err == nil {
		t.Error("CheckMessages should reject non-message values")
	} else if !errors.As(err, &mismatch) {
		t.Errorf("CheckMessages error = %v", err)
	}
}

func TestStamp(t *testing.T) {
	var id string
	var ts time.Time
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("x", 3600))
	Stamp(&id, &ts, now)
	if !crossbase.IsValidID(id) || !ts.Equal(now) || ts.Location() != time.UTC {
		t.Errorf("Stamp() = %q, %v", id, ts)
	}
	keep := "fixed"
	Stamp(&keep, &ts, now.Add(time.Hour))
	if keep != "fixed" || !ts.Equal(now) {
		t.Error("Stamp must not overwrite existing values")
	}
}
