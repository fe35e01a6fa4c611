package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/phenogen/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

const compilationColumns = `id, name, content_hash, step_count, leaf_count, request, bundle, created_at`

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// --- Compilation CRUD ---

func (s *SQLiteStore) CreateCompilation(ctx context.Context, c *model.Compilation) error {
	s.logger.Debug("sql", "op", "insert", "table", "compilations", "id", c.ID)

	bundleJSON, err := json.Marshal(c.Bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO compilations (`+compilationColumns+`, name_lower)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ContentHash, c.StepCount, c.LeafCount, c.Request, string(bundleJSON),
		c.CreatedAt.UTC().Format(timeLayout), strings.ToLower(c.Name),
	)
	return err
}

func (s *SQLiteStore) GetCompilation(ctx context.Context, id string) (*model.Compilation, error) {
	s.logger.Debug("sql", "op", "select", "table", "compilations", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT `+compilationColumns+` FROM compilations WHERE id = ?`, id)
	return scanCompilation(row)
}

func (s *SQLiteStore) GetCompilationByHash(ctx context.Context, hash string) (*model.Compilation, error) {
	s.logger.Debug("sql", "op", "select_by_hash", "table", "compilations", "hash", hash)

	row := s.db.QueryRowContext(ctx,
		`SELECT `+compilationColumns+` FROM compilations WHERE content_hash = ?`, hash)
	return scanCompilation(row)
}

// ListCompilations returns compilation summaries, newest first. Bundles are
// not loaded; fetch a single compilation for its content.
func (s *SQLiteStore) ListCompilations(ctx context.Context, opts model.ListOptions) ([]*model.Compilation, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "compilations", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	where := ""
	var args []any
	if opts.Name != "" {
		where = ` WHERE name_lower = ?`
		args = append(args, strings.ToLower(opts.Name))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compilations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content_hash, step_count, leaf_count, created_at
		 FROM compilations`+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Compilation
	for rows.Next() {
		var c model.Compilation
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.ContentHash, &c.StepCount, &c.LeafCount, &createdAt); err != nil {
			return nil, 0, err
		}
		c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, &c)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) DeleteCompilation(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "compilations", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM compilations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("compilation %s not found", id)
	}
	return nil
}

// scanCompilation reads one full row. It returns nil, nil when there is no row.
func scanCompilation(row *sql.Row) (*model.Compilation, error) {
	var c model.Compilation
	var bundleJSON, createdAt string

	err := row.Scan(&c.ID, &c.Name, &c.ContentHash, &c.StepCount, &c.LeafCount, &c.Request, &bundleJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(bundleJSON), &c.Bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &c, nil
}
