package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lehigh-university-libraries/mods-enricher/internal/authority"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS lookups (
    domain TEXT NOT NULL,
    query TEXT NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT 0,
    uri TEXT,
    authority_uri TEXT,
    display_form TEXT,
    match_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (domain, query)
);
`

// SQLiteCache persists lookup results between runs
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path
func OpenSQLite(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between workers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteCache{db: db, path: path}, nil
}

// Path returns the database file path
func (c *SQLiteCache) Path() string {
	return c.path
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Get(ctx context.Context, domain vocabulary.Domain, key string) (authority.Result, bool, error) {
	var (
		r                         authority.Result
		uri, authURI, displayForm sql.NullString
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT resolved, uri, authority_uri, display_form, match_count
		FROM lookups WHERE domain = ? AND query = ?
	`, string(domain), key).Scan(&r.Resolved, &uri, &authURI, &displayForm, &r.MatchCount)
	if errors.Is(err, sql.ErrNoRows) {
		return authority.Result{}, false, nil
	}
	if err != nil {
		return authority.Result{}, false, fmt.Errorf("failed to read cached lookup: %w", err)
	}

	r.URI = uri.String
	r.AuthorityURI = authURI.String
	r.DisplayForm = displayForm.String
	r.Query = key
	r.Method = authority.MethodCache
	return r, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, domain vocabulary.Domain, key string, r authority.Result) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO lookups (domain, query, resolved, uri, authority_uri, display_form, match_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, query) DO UPDATE SET
			resolved = excluded.resolved,
			uri = excluded.uri,
			authority_uri = excluded.authority_uri,
			display_form = excluded.display_form,
			match_count = excluded.match_count
	`, string(domain), key, r.Resolved, nullable(r.URI), nullable(r.AuthorityURI), nullable(r.DisplayForm), r.MatchCount)
	if err != nil {
		return fmt.Errorf("failed to cache lookup: %w", err)
	}
	return nil
}

// Count returns the number of cached lookups
func (c *SQLiteCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lookups").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Open selects a cache implementation from a setting: "" disables caching,
// "memory" keeps results in process and anything else is a SQLite path.
// The returned closer is never nil.
func Open(setting string) (authority.Cache, io.Closer, error) {
	switch s := strings.TrimSpace(setting); s {
	case "", "none", "off":
		return nil, nopCloser{}, nil
	case "memory":
		return NewMemoryCache(), nopCloser{}, nil
	default:
		c, err := OpenSQLite(s)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return c, c, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
