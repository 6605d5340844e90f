package bccache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"github.com/waddlelang/waddle/bytecode"
)

func sample() *bytecode.Program {
	return &bytecode.Program{
		Code: []bytecode.Instruction{
			bytecode.OpArg(bytecode.PushI32, 1),
			bytecode.OpArg(bytecode.PushI32, 2),
			bytecode.Op(bytecode.AddI32),
		},
		Functions: []bytecode.Function{{Name: "main", Returns: true}},
	}
}

func open(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	be.Err(t, err, nil)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMiss(t *testing.T) {
	c := open(t)
	p, hit, err := c.Get(context.Background(), "source", "main")
	be.Err(t, err, nil)
	be.True(t, !hit)
	be.True(t, p == nil)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := open(t)
	be.Err(t, c.Put(ctx, "source", "main", sample()), nil)

	p, hit, err := c.Get(ctx, "source", "main")
	be.Err(t, err, nil)
	be.True(t, hit)
	be.Equal(t, p, sample())

	_, hit, err = c.Get(ctx, "source", "start")
	be.Err(t, err, nil)
	be.True(t, !hit)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path)
	be.Err(t, err, nil)
	be.Err(t, c.Put(ctx, "source", "main", sample()), nil)
	be.Err(t, c.Close(), nil)

	c, err = Open(path)
	be.Err(t, err, nil)
	defer c.Close()
	_, hit, err := c.Get(ctx, "source", "main")
	be.Err(t, err, nil)
	be.True(t, hit)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	c := open(t)
	calls := 0
	compile := func() (*bytecode.Program, error) {
		calls++
		return sample(), nil
	}

	_, hit, err := c.Load(ctx, "source", "main", compile)
	be.Err(t, err, nil)
	be.True(t, !hit)

	p, hit, err := c.Load(ctx, "source", "main", compile)
	be.Err(t, err, nil)
	be.True(t, hit)
	be.Equal(t, calls, 1)
	be.Equal(t, p, sample())
}

func TestLoadDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	c := open(t)
	failure := errors.New("does not compile")

	_, _, err := c.Load(ctx, "source", "main", func() (*bytecode.Program, error) {
		return nil, failure
	})
	be.Err(t, err, failure)

	stats, err := c.Stats(ctx)
	be.Err(t, err, nil)
	be.Equal(t, stats.Entries, 0)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c := open(t)
	_, err := c.db.Exec(`INSERT INTO programs (key, version, code, created) VALUES (?, ?, ?, ?)`,
		Key("source", "main"), bytecode.FormatVersion, []byte("junk"), 0)
	be.Err(t, err, nil)

	_, hit, err := c.Get(ctx, "source", "main")
	be.Err(t, err, nil)
	be.True(t, !hit)
}

func TestStatsAndPurge(t *testing.T) {
	ctx := context.Background()
	c := open(t)
	be.Err(t, c.Put(ctx, "one", "main", sample()), nil)
	be.Err(t, c.Put(ctx, "two", "main", sample()), nil)

	stats, err := c.Stats(ctx)
	be.Err(t, err, nil)
	be.Equal(t, stats.Entries, 2)
	be.Equal(t, stats.Bytes, int64(2*len(bytecode.Encode(sample()))))

	removed, err := c.Purge(ctx, time.Now().Add(-time.Hour))
	be.Err(t, err, nil)
	be.Equal(t, removed, int64(0))

	removed, err = c.Purge(ctx, time.Time{})
	be.Err(t, err, nil)
	be.Equal(t, removed, int64(2))
}

func TestKey(t *testing.T) {
	be.Equal(t, len(Key("a", "main")), 64)
	be.True(t, Key("a", "main") != Key("a", "start"))
	be.True(t, Key("ab", "main") != Key("a", "bmain"))
}
