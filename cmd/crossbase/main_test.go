package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrianmcphee/crossbase"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "crossbase dev (") {
		t.Errorf("version output = %q", out)
	}
}

func TestStatusListsEveryGroup(t *testing.T) {
	out, err := run(t, "status", "--data", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"edition:", "memory/v1", "helpers/v1", "auth/v1"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusMetrics(t *testing.T) {
	out, err := run(t, "status", "--metrics", "--data", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "crossbase_router_bindings_total") {
		t.Errorf("status --metrics output lacks binding counter:\n%s", out)
	}
}

func TestMessagesAddListDelete(t *testing.T) {
	data := t.TempDir()
	if _, err := run(t, "messages", "add", "hello there", "--session", "cli", "--sender-name", "ann", "--data", data); err != nil {
		t.Fatalf("messages add: %v", err)
	}

	out, err := run(t, "messages", "list", "--session", "cli", "--data", data)
	if err != nil {
		t.Fatalf("messages list: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &got); err != nil {
		t.Fatalf("list output %q: %v", out, err)
	}
	if got["text"] != "hello there" || got["sender_name"] != "ann" || got["session_id"] != "cli" {
		t.Errorf("listed message = %v", got)
	}

	if _, err := run(t, "messages", "delete", "--session", "cli", "--data", data); err != nil {
		t.Fatalf("messages delete: %v", err)
	}
	out, err = run(t, "messages", "list", "--session", "cli", "--data", data)
	if err != nil || strings.TrimSpace(out) != "" {
		t.Errorf("list after delete = %q, %v", out, err)
	}
}

func TestMessagesListRejectsBadOrder(t *testing.T) {
	if _, err := run(t, "messages", "list", "--order", "sideways", "--data", t.TempDir()); err == nil {
		t.Error("expected an error for an unknown order")
	}
}

func TestMessagesDeleteNeedsTarget(t *testing.T) {
	_, err := run(t, "messages", "delete", "--data", t.TempDir())
	if !errors.Is(err, crossbase.ErrInvalidData) {
		t.Errorf("delete without flags error = %v", err)
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CROSSBASE_DATABASE_URL", "")
	_, err := run(t, "migrate", "up", "--data", t.TempDir())
	if !errors.Is(err, crossbase.ErrInvalidConfig) {
		t.Errorf("migrate up error = %v", err)
	}
}

func TestMigrateSkipsEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "app.db")
	out, err := run(t, "migrate", "down", "--database-url", db, "--data", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "migrate down skipped") {
		t.Errorf("migrate output = %q", out)
	}
}
