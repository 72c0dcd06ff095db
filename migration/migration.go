// Package migration rewrites stored folder auth settings so that their
// sensitive values are sealed (Up) or opened again (Down). The transform is
// the auth capability group of whichever backend the router binds; without
// one the migration does nothing.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
)

// Direction is the way a migration runs.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Result counts what one run did.
type Result struct {
	Direction Direction
	Skipped   bool
	Reason    string
	Scanned   int
	Updated   int
	Failed    int
	Duration  time.Duration
}

// Migrator runs the auth settings migration against a FolderStore.
type Migrator struct {
	store   FolderStore
	router  *router.Router
	logger  crossbase.Logger
	metrics crossbase.Metrics
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithRouter binds the auth group from r instead of the process router.
func WithRouter(r *router.Router) Option {
	return func(m *Migrator) { m.router = r }
}

func WithLogger(l crossbase.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

func WithMetrics(mt crossbase.Metrics) Option {
	return func(m *Migrator) { m.metrics = mt }
}

// New creates a Migrator over store.
func New(store FolderStore, opts ...Option) *Migrator {
	m := &Migrator{
		store:   store,
		logger:  crossbase.Log(),
		metrics: &crossbase.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.router == nil {
		m.router = router.Default()
	}
	return m
}

// Up seals the sensitive values of every folder's auth settings.
func (m *Migrator) Up(ctx context.Context) (Result, error) {
	return m.run(ctx, Up)
}

// Down opens every sealed value again.
func (m *Migrator) Down(ctx context.Context) (Result, error) {
	return m.run(ctx, Down)
}

// Run dispatches on dir.
func (m *Migrator) Run(ctx context.Context, dir Direction) (Result, error) {
	switch dir {
	case Up, Down:
		return m.run(ctx, dir)
	}
	return Result{}, fmt.Errorf("%w: unknown migration direction %q", crossbase.ErrInvalidConfig, dir)
}

func (m *Migrator) run(ctx context.Context, dir Direction) (Result, error) {
	start := time.Now()
	res := Result{Direction: dir}
	defer func() {
		res.Duration = time.Since(start)
		m.metrics.Timing(crossbase.MetricMigrationDuration, res.Duration, "direction", string(dir))
	}()

	ops, _, err := router.Bind(m.router, capability.Auth, capability.DecodeAuth)
	if err != nil {
		if errors.Is(err, router.ErrUnresolvable) {
			m.logger.Warn("auth settings encryption unavailable, skipping migration",
				"direction", string(dir),
				"error", err,
			)
			res.Skipped, res.Reason = true, "auth group unavailable"
			return res, nil
		}
		return res, err
	}
	transform := ops.EncryptSettings
	if dir == Down {
		transform = ops.DecryptSettings
	}
	// Without a secret key every row would fail the same way.
	if _, err := transform(map[string]any{}); errors.Is(err, crossbase.ErrInvalidConfig) {
		m.logger.Warn("auth settings secret key not configured, skipping migration",
			"direction", string(dir),
			"error", err,
		)
		res.Skipped, res.Reason = true, "secret key not configured"
		return res, nil
	}

	ok, err := m.store.HasFolderTable(ctx)
	if err != nil {
		return res, err
	}
	if !ok {
		m.logger.Info("folder table absent, nothing to migrate", "direction", string(dir))
		res.Skipped, res.Reason = true, "folder table absent"
		return res, nil
	}

	rows, err := m.store.FolderSettings(ctx)
	if err != nil {
		return res, err
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++
		updated, err := m.migrateRow(ctx, row, transform)
		if err != nil {
			res.Failed++
			m.metrics.Increment(crossbase.MetricMigrationErrors, "direction", string(dir))
			m.logger.Warn("failed to migrate folder auth settings",
				"direction", string(dir),
				"folder", row.ID,
				"error", err,
			)
			continue
		}
		if updated {
			res.Updated++
			m.metrics.Increment(crossbase.MetricMigrationRows, "direction", string(dir))
		}
	}

	m.logger.Info("auth settings migration complete",
		"direction", string(dir),
		"scanned", res.Scanned,
		"updated", res.Updated,
		"failed", res.Failed,
	)
	return res, nil
}

// migrateRow rewrites one folder. Empty settings and empty results leave
// the row untouched.
func (m *Migrator) migrateRow(ctx context.Context, row FolderRow, transform capability.SettingsFunc) (bool, error) {
	if row.AuthSettings == "" {
		return false, nil
	}
	var settings map[string]any
	if err := json.Unmarshal([]byte(row.AuthSettings), &settings); err != nil {
		return false, fmt.Errorf("%w: auth_settings is not a JSON object: %v", crossbase.ErrInvalidData, err)
	}
	if len(settings) == 0 {
		return false, nil
	}
	out, err := transform(settings)
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return false, fmt.Errorf("encode auth_settings: %w", err)
	}
	if err := m.store.UpdateSettings(ctx, row.ID, string(data)); err != nil {
		return false, err
	}
	return true, nil
}
