// Package bccache stores compiled bytecode in a SQLite database, keyed by
// the source text and entry point it was compiled from.
package bccache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/waddlelang/waddle/bytecode"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

const schema = `
CREATE TABLE IF NOT EXISTS programs (
	key     TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	code    BLOB NOT NULL,
	created INTEGER NOT NULL
)`

// Cache is a persistent bytecode cache. It is safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path. Use ":memory:" for a
// cache that lives as long as the returned Cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening bytecode cache")
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating bytecode cache schema")
	}
	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key identifies the compilation of source starting at entry.
func Key(source, entry string) string {
	h := sha256.New()
	h.Write([]byte(entry))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached program for source and entry. Entries written by
// another format version or that fail to decode count as misses.
func (c *Cache) Get(ctx context.Context, source, entry string) (*bytecode.Program, bool, error) {
	key := Key(source, entry)
	var version int
	var code []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT version, code FROM programs WHERE key = ?`, key).Scan(&version, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "reading bytecode cache")
	}
	if version != bytecode.FormatVersion {
		tracer().Debugf("cache entry %.12s has version %d, want %d", key, version, bytecode.FormatVersion)
		return nil, false, nil
	}
	p, err := bytecode.Decode(code)
	if err != nil {
		tracer().Infof("dropping corrupt cache entry %.12s: %v", key, err)
		return nil, false, nil
	}
	return p, true, nil
}

// Put stores p as the compilation of source starting at entry.
func (c *Cache) Put(ctx context.Context, source, entry string, p *bytecode.Program) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO programs (key, version, code, created) VALUES (?, ?, ?, ?)`,
		Key(source, entry), bytecode.FormatVersion, bytecode.Encode(p), time.Now().Unix())
	return errors.Wrap(err, "writing bytecode cache")
}

// Load returns the cached program for source and entry, calling compile
// and storing its result on a miss. hit reports whether the cache served
// the program.
func (c *Cache) Load(ctx context.Context, source, entry string,
	compile func() (*bytecode.Program, error)) (p *bytecode.Program, hit bool, err error) {

	if p, hit, err = c.Get(ctx, source, entry); err != nil || hit {
		return p, hit, err
	}
	if p, err = compile(); err != nil {
		return nil, false, err
	}
	if err = c.Put(ctx, source, entry, p); err != nil {
		return nil, false, err
	}
	return p, false, nil
}

// Stats describes the cache contents.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats counts the cached programs and their encoded size.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(code)), 0) FROM programs`).Scan(&s.Entries, &s.Bytes)
	return s, errors.Wrap(err, "reading bytecode cache stats")
}

// Purge removes entries created before cutoff and returns how many were
// removed. A zero cutoff removes everything.
func (c *Cache) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := `DELETE FROM programs`, []any{}
	if !cutoff.IsZero() {
		query += ` WHERE created < ?`
		args = append(args, cutoff.Unix())
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "purging bytecode cache")
	}
	return res.RowsAffected()
}
