package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements KV on top of SQLite or Postgres, sharing one schema.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
}

// OpenSQL opens (and if needed initializes) a SQL-backed store. For SQLite
// the dsn is a file path and parent directories are created; for Postgres it
// is a connection string.
func OpenSQL(dialect Dialect, dsn string) (*SQLStore, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
		if dsn == "" {
			return nil, errors.New("sqlite store requires a file path")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case DialectPostgres:
		driverName = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres store requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported store dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s store: %w", dialect, err)
	}

	s := &SQLStore{dialect: dialect, db: db}
	if dialect == DialectSQLite {
		if err := s.initPragmas(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) initPragmas(ctx context.Context) error {
	// WAL suits the frequent small writes of session persistence.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	create := `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) Get(key string) (string, bool, error) {
	q := "SELECT value FROM kv WHERE key = " + s.bind(1)
	var value string
	err := s.db.QueryRow(q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(key, value string) error {
	q := fmt.Sprintf(
		"INSERT INTO kv (key, value, updated_at) VALUES (%s, %s, %s) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		s.bind(1), s.bind(2), s.bind(3),
	)
	if _, err := s.db.Exec(q, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(key string) error {
	q := "DELETE FROM kv WHERE key = " + s.bind(1)
	if _, err := s.db.Exec(q, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) List(prefix string) ([]Pair, error) {
	pattern := escapeLike(prefix) + "%"
	q := "SELECT key, value FROM kv WHERE key LIKE " + s.bind(1) + " ESCAPE '\\' ORDER BY key"
	rows, err := s.db.Query(q, pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()
	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
