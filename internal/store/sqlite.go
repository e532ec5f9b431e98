package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLite persists definitions in a single SQLite file.
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Resolve(ctx context.Context, code string) (Definition, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Definition{}, ErrNotFound
	}

	var def Definition
	var public int
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT id, code, title, subtitle, public FROM brackets WHERE code = ?`, code,
	).Scan(&def.ID, &def.Code, &def.Title, &def.Subtitle, &public)
	if errors.Is(err, sql.ErrNoRows) {
		return Definition{}, ErrNotFound
	}
	if err != nil {
		return Definition{}, fmt.Errorf("query bracket: %w", err)
	}
	def.Public = public != 0

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, image_url FROM contestants WHERE bracket_id = ? ORDER BY id`, def.ID,
	)
	if err != nil {
		return Definition{}, fmt.Errorf("query contestants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Contestant
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL); err != nil {
			return Definition{}, fmt.Errorf("scan contestant: %w", err)
		}
		def.Contestants = append(def.Contestants, c)
	}
	if err := rows.Err(); err != nil {
		return Definition{}, fmt.Errorf("iterate contestants: %w", err)
	}
	return def, nil
}

func (s *SQLite) Create(ctx context.Context, b NewBracket) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	code, err := allocateCode(ctx, b.Code, func(ctx context.Context, code string) (bool, error) {
		return codeUnique(ctx, tx, code)
	})
	if err != nil {
		return "", err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO brackets (code, title, subtitle, public, created_at) VALUES (?, ?, ?, ?, ?)`,
		code, b.Title, b.Subtitle, boolToInt(b.Public), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert bracket: %w", err)
	}
	bracketID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("bracket id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contestants (bracket_id, name, image_url) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare contestant insert: %w", err)
	}
	defer stmt.Close()
	for _, c := range b.Contestants {
		if _, err := stmt.ExecContext(ctx, bracketID, c.Name, c.ImageURL); err != nil {
			return "", fmt.Errorf("insert contestant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return code, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func codeUnique(ctx context.Context, q queryer, code string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM brackets WHERE code = ?`, code).Scan(&n); err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return n == 0, nil
}

func (s *SQLite) IsCodeUnique(ctx context.Context, code string) (bool, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}
	return codeUnique(ctx, s.sqlDB, code)
}

func (s *SQLite) ListPublic(ctx context.Context) ([]Summary, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT code, title, subtitle FROM brackets WHERE public = 1 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query public brackets: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Code, &sum.Title, &sum.Subtitle); err != nil {
			return nil, fmt.Errorf("scan bracket: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
