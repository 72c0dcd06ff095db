package capability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

func stubAuth() AuthOps {
	identity := func(m map[string]any) (map[string]any, error) { return m, nil }
	return AuthOps{EncryptSettings: identity, DecryptSettings: identity}
}

func TestDecodeAuthRoundTrip(t *testing.T) {
	ops, err := DecodeAuth(AuthNamespace(stubAuth()))
	if err != nil {
		t.Fatalf("DecodeAuth() error = %v", err)
	}
	out, err := ops.EncryptSettings(map[string]any{"a": 1})
	if err != nil || out["a"] != 1 {
		t.Errorf("EncryptSettings() = %v, %v", out, err)
	}
}

func TestDecodeReportsEverySymbol(t *testing.T) {
	ns := MemoryNamespace(MemoryOps{
		DeleteMessage: func(ctx context.Context, id string) error { return nil },
	})
	_, err := DecodeMemory(ns)
	if err == nil {
		t.Fatal("expected error for incomplete namespace")
	}
	var serr *router.SymbolError
	if !errors.As(err, &serr) {
		t.Fatalf("error %v should carry a *router.SymbolError", err)
	}
	if !strings.Contains(err.Error(), SymAddMessagesAsync) || strings.Contains(err.Error(), "symbol "+SymDeleteMessage+" ") {
		t.Errorf("error should list missing symbols only: %v", err)
	}
	if missing := Memory.Missing(ns); len(missing) != len(Memory.Symbols)-1 {
		t.Errorf("Missing() = %v", missing)
	}
}

func TestGroupsAreVersioned(t *testing.T) {
	for _, g := range []router.Group{Memory, Helpers, Auth} {
		if g.Version != 1 || len(g.Symbols) == 0 {
			t.Errorf("group %s malformed", g)
		}
	}
	if len(Memory.Symbols) != 12 || len(Helpers.Symbols) != 13 || len(Auth.Symbols) != 2 {
		t.Error("unexpected symbol counts")
	}
}

func TestMessageQueryValidate(t *testing.T) {
	tests := []struct {
		q       MessageQuery
		wantErr bool
	}{
		{MessageQuery{}, false},
		{MessageQuery{Order: OrderDesc, Limit: 5}, false},
		{MessageQuery{Order: "sideways"}, true},
		{MessageQuery{Limit: -1}, true},
	}
	for _, tt := range tests {
		err := tt.q.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v", tt.q, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("error %v should wrap ErrInvalidQuery", err)
		}
	}
}

func TestFuture(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) { return 7, nil })
	v, err := f.Wait(context.Background())
	if err != nil || v != 7 {
		t.Errorf("Wait() = %d, %v", v, err)
	}

	block := make(chan struct{})
	defer close(block)
	slow := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := slow.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}

	r := Resolved("x", nil)
	select {
	case <-r.Done():
	default:
		t.Error("Resolved future should be done")
	}
}

func TestBuildModel(t *testing.T) {
	m, err := BuildModel("Person", []SchemaField{
		{Name: "name", Type: "str"},
		{Name: "age", Type: "INT"},
		{Name: "score", Type: "float"},
		{Name: "tags", Type: "str", Multiple: true},
	})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}
	if m.Schema().Name() != "Person" || m.Schema().Fields().Len() != 4 {
		t.Errorf("model type = %v", m.Schema())
	}

	rec, err := m.New(map[string]any{"name": "ann", "age": 30.0, "score": 2, "tags": []any{"a"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if age, _ := schema.Get[int](rec, "age"); age != 30 {
		t.Errorf("age = %v", age)
	}
	if score, _ := schema.Get[float64](rec, "score"); score != 2 {
		t.Errorf("score = %v", score)
	}
	if !schema.Compatible(rec, m.Schema()) {
		t.Error("model record should be compatible with its model")
	}

	if _, err := m.New(map[string]any{"name": 1}); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("wrong type error = %v", err)
	}
	if _, err := m.New(map[string]any{"nope": 1}); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("unknown field error = %v", err)
	}
	if _, err := BuildModel("X", []SchemaField{{Name: "a", Type: "tensor"}}); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("unknown kind error = %v", err)
	}
	if _, err := BuildModel("X", []SchemaField{{Name: "a"}, {Name: "a"}}); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("duplicate field error = %v", err)
	}
}
