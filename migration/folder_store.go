package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/adrianmcphee/crossbase"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the database/sql driver a SQLFolderStore talks to.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

// FolderRow is one folder with a non-null auth_settings column.
type FolderRow struct {
	ID           string
	AuthSettings string
}

// FolderStore reads and rewrites folder auth settings.
type FolderStore interface {
	HasFolderTable(ctx context.Context) (bool, error)
	FolderSettings(ctx context.Context) ([]FolderRow, error)
	UpdateSettings(ctx context.Context, id, settings string) error
}

// SQLFolderStore is a FolderStore over database/sql.
type SQLFolderStore struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
}

// NewSQLFolderStore wraps an open database. The caller keeps ownership of db.
func NewSQLFolderStore(db *sql.DB, dialect Dialect) *SQLFolderStore {
	return &SQLFolderStore{db: db, dialect: dialect}
}

// OpenSQLFolderStore opens dsn. postgres:// and postgresql:// URLs use pgx,
// sqlite:// URLs, file: URIs and bare paths use sqlite.
func OpenSQLFolderStore(ctx context.Context, dsn string) (*SQLFolderStore, error) {
	dialect, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s database: %v", crossbase.ErrBackendUnavailable, dialect, err)
	}
	return &SQLFolderStore{db: db, dialect: dialect, owned: true}, nil
}

// ParseDSN picks the driver for dsn and returns the driver's data source.
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("%w: database url is empty", crossbase.ErrInvalidConfig)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), !strings.Contains(dsn, "://"):
		return DialectSQLite, dsn, nil
	}
	return "", "", crossbase.WithContext(
		fmt.Errorf("%w: unsupported database url scheme", crossbase.ErrInvalidConfig),
		map[string]interface{}{"url": redact(dsn)},
	)
}

// redact drops everything before the host so credentials never reach logs.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}

// DB returns the underlying database.
func (s *SQLFolderStore) DB() *sql.DB { return s.db }

// Dialect reports the driver in use.
func (s *SQLFolderStore) Dialect() Dialect { return s.dialect }

func (s *SQLFolderStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// HasFolderTable reports whether the folder table exists.
func (s *SQLFolderStore) HasFolderTable(ctx context.Context) (bool, error) {
	var q string
	if s.dialect == DialectPostgres {
		q = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	} else {
		q = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, "folder").Scan(&n); err != nil {
		return false, fmt.Errorf("inspect tables: %w", err)
	}
	return n > 0, nil
}

// FolderSettings returns every folder whose auth_settings is not null. Rows
// are read in full before returning so updates can follow on the same
// connection.
func (s *SQLFolderStore) FolderSettings(ctx context.Context) ([]FolderRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, auth_settings FROM folder WHERE auth_settings IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	var out []FolderRow
	for rows.Next() {
		var (
			id       string
			settings sql.NullString
		)
		if err := rows.Scan(&id, &settings); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out = append(out, FolderRow{ID: id, AuthSettings: settings.String})
	}
	return out, rows.Err()
}

// UpdateSettings overwrites one folder's auth_settings.
func (s *SQLFolderStore) UpdateSettings(ctx context.Context, id, settings string) error {
	q := fmt.Sprintf("UPDATE folder SET auth_settings = %s WHERE id = %s", s.placeholder(1), s.placeholder(2))
	res, err := s.db.ExecContext(ctx, q, settings, id)
	if err != nil {
		return fmt.Errorf("update folder %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return crossbase.WithContext(crossbase.ErrNotFound, map[string]interface{}{"folder": id})
	}
	return nil
}

// Close closes the database if the store opened it.
func (s *SQLFolderStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
