package cache

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    _ "modernc.org/sqlite"
)

// SQLite is the shared tier: a key-value store durable across serving
// instances that point at the same file. Lapsed rows holding a complete
// payload are purged on read; a lapsed in-progress payload is still
// returned, because it is the resumption base for whichever instance
// reads it next and the resolver applies the freshness rule itself.
type SQLite struct {
    Now func() time.Time

    db *sql.DB
}

// NewSQLite opens (or creates) the database and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
    db, err := sql.Open("sqlite", path)
    if err != nil {
        return nil, fmt.Errorf("open sqlite: %w", err)
    }

    // WAL mode so concurrent readers do not block the writer.
    if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
        db.Close()
        return nil, fmt.Errorf("set WAL mode: %w", err)
    }

    s := &SQLite{Now: time.Now, db: db}
    if err := s.migrate(); err != nil {
        db.Close()
        return nil, fmt.Errorf("migrate: %w", err)
    }
    return s, nil
}

func (s *SQLite) migrate() error {
    _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
        key        TEXT PRIMARY KEY,
        payload    TEXT NOT NULL,
        expires_at INTEGER NOT NULL
    )`)
    return err
}

func (s *SQLite) Name() string { return "sqlite" }

// Get returns the payload stored under key, or absent when there is none.
// A lapsed row is purged and reported absent only when its payload is
// complete; an in-progress payload outlives its TTL so another instance
// can pick the cycle up where this row left off.
func (s *SQLite) Get(ctx context.Context, key string) (*Payload, bool, error) {
    var raw string
    var expiresAt int64
    err := s.db.QueryRowContext(ctx,
        "SELECT payload, expires_at FROM cache_entries WHERE key = ?", key,
    ).Scan(&raw, &expiresAt)
    if errors.Is(err, sql.ErrNoRows) { return nil, false, nil }
    if err != nil { return nil, false, fmt.Errorf("select cache entry: %w", err) }

    var p Payload
    if err := json.Unmarshal([]byte(raw), &p); err != nil {
        return nil, false, fmt.Errorf("decode cache entry: %w", err)
    }

    if s.Now().Unix() >= expiresAt && !p.Partial {
        _, _ = s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
        return nil, false, nil
    }
    return &p, true, nil
}

// Put upserts the payload under key with the given TTL.
func (s *SQLite) Put(ctx context.Context, key string, p *Payload, ttl time.Duration) error {
    raw, err := json.Marshal(p)
    if err != nil {
        return fmt.Errorf("encode cache entry: %w", err)
    }
    expiresAt := s.Now().Add(ttl).Unix()
    _, err = s.db.ExecContext(ctx,
        "INSERT OR REPLACE INTO cache_entries (key, payload, expires_at) VALUES (?, ?, ?)",
        key, string(raw), expiresAt,
    )
    if err != nil {
        return fmt.Errorf("upsert cache entry: %w", err)
    }
    return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
