package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	kvTable  = "kv_entries"
	llmTable = "llm_requests"
)

// tables describes the SQLite layout. Migration is additive.
func tables() []*schema.Table {
	kv := schema.NewTable(kvTable).
		AddPrimary(&schema.Column{Name: "key", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "value", Type: field.TypeBytes}).
		AddColumn(&schema.Column{Name: "revision", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "updated_at", Type: field.TypeTime})

	llm := schema.NewTable(llmTable).
		AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "timestamp", Type: field.TypeTime}).
		AddColumn(&schema.Column{Name: "provider", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "model", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "purpose", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "input_tokens", Type: field.TypeInt}).
		AddColumn(&schema.Column{Name: "output_tokens", Type: field.TypeInt}).
		AddColumn(&schema.Column{Name: "latency_ms", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "success", Type: field.TypeBool}).
		AddColumn(&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""}).
		AddColumn(&schema.Column{Name: "request_body", Type: field.TypeString, Size: 1 << 20, Default: ""}).
		AddColumn(&schema.Column{Name: "response_body", Type: field.TypeString, Size: 1 << 20, Default: ""})
	llm.AddIndex("llm_requests_sequence", false, []string{"sequence"})

	return []*schema.Table{kv, llm}
}

// SQLite is the default Backing: one row per key in a local database.
type SQLite struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// OpenSQLite opens the database at dsn, applies recommended pragmas and
// migrates the tables.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	migrate, err := schema.NewMigrate(drv)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if err := migrate.Create(context.Background(), tables()...); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, drv: drv, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.drv.Close()
}

func (s *SQLite) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args := s.builder().
		Select("value").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var value []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, stamping it with the next global revision.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	rev, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := s.builder().
		Insert(kvTable).
		Columns("key", "value", "revision", "updated_at").
		Values(key, value, rev, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	query, args := s.builder().
		Delete(kvTable).
		Where(entsql.EQ("key", key)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Revision returns the revision stamped on key's latest write, or 0 if
// the key is absent. Revisions increase across all keys.
func (s *SQLite) Revision(ctx context.Context, key string) (int64, error) {
	query, args := s.builder().
		Select("revision").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var rev int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query revision %s: %w", key, err)
	}
	return rev, nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath returns $XDG_DATA_HOME/cbot/cbot.db, falling back to
// ~/.local/share/cbot/cbot.db, and creates its directory. Variables are
// read through getenv.
func DefaultDBPath(getenv func(string) string) (string, error) {
	dataHome := getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "cbot", "cbot.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
