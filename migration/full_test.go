package migration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/availability"
	"github.com/adrianmcphee/crossbase/full"
	"github.com/adrianmcphee/crossbase/migration"
	"github.com/adrianmcphee/crossbase/router"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSealsSettingsWithFullBackend(t *testing.T) {
	ctx := context.Background()
	cfg := crossbase.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.SecretKey = bytes.Repeat([]byte{7}, 32)
	if err := full.Configure(cfg); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = full.Close() })

	st, err := migration.OpenSQLFolderStore(ctx, "sqlite://"+filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.DB().Exec(`CREATE TABLE folder (id TEXT PRIMARY KEY, auth_settings TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := st.DB().Exec(`INSERT INTO folder (id, auth_settings) VALUES ('f1', '{"auth_type":"oauth","oauth_client_secret":"s3cret"}')`); err != nil {
		t.Fatal(err)
	}

	m := migration.New(st, migration.WithRouter(router.New(availability.Fixed(true), router.DefaultRegistry)))
	read := func() map[string]any {
		t.Helper()
		var raw string
		if err := st.DB().QueryRow(`SELECT auth_settings FROM folder WHERE id = 'f1'`).Scan(&raw); err != nil {
			t.Fatal(err)
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	if res, err := m.Up(ctx); err != nil || res.Updated != 1 {
		t.Fatalf("Up() = %+v, %v", res, err)
	}
	sealed := read()
	if s, _ := sealed["oauth_client_secret"].(string); !strings.HasPrefix(s, "enc:") {
		t.Errorf("secret not sealed: %v", sealed)
	}
	if sealed["auth_type"] != "oauth" {
		t.Errorf("auth_type changed: %v", sealed)
	}

	// A second Up leaves sealed values alone.
	if _, err := m.Up(ctx); err != nil {
		t.Fatal(err)
	}
	if again := read(); again["oauth_client_secret"] != sealed["oauth_client_secret"] {
		t.Error("Up is not idempotent")
	}

	if _, err := m.Down(ctx); err != nil {
		t.Fatal(err)
	}
	if got := read(); got["oauth_client_secret"] != "s3cret" {
		t.Errorf("Down() left %v", got)
	}
}

func TestSkipsOnceWithoutSecretKey(t *testing.T) {
	ctx := context.Background()
	cfg := crossbase.DefaultConfig()
	cfg.DataPath = t.TempDir()
	if err := full.Configure(cfg); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = full.Close() })

	st, err := migration.OpenSQLFolderStore(ctx, "sqlite://"+filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.DB().Exec(`CREATE TABLE folder (id TEXT PRIMARY KEY, auth_settings TEXT)`); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"f1", "f2", "f3"} {
		if _, err := st.DB().Exec(`INSERT INTO folder (id, auth_settings) VALUES (?, '{"api_key":"k"}')`, id); err != nil {
			t.Fatal(err)
		}
	}

	core, logs := observer.New(zapcore.WarnLevel)
	m := migration.New(st,
		migration.WithRouter(router.New(availability.Fixed(true), router.DefaultRegistry)),
		migration.WithLogger(crossbase.NewZapLogger(zap.New(core))),
	)
	res, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if !res.Skipped || res.Reason != "secret key not configured" || res.Scanned != 0 || res.Failed != 0 {
		t.Errorf("Up() = %+v", res)
	}
	if logs.Len() != 1 {
		t.Errorf("expected a single warning, got %d", logs.Len())
	}

	var raw string
	if err := st.DB().QueryRow(`SELECT auth_settings FROM folder WHERE id = 'f1'`).Scan(&raw); err != nil || raw != `{"api_key":"k"}` {
		t.Errorf("row rewritten to %q, %v", raw, err)
	}
}
