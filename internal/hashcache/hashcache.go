// Package hashcache persists content hashes of local files so repeated syncs
// only rehash files whose size or mtime changed.
package hashcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gadget1999/gobox/internal/db"
	"github.com/gadget1999/gobox/internal/utils"
	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
)

const (
	dbFileName   = "hashes.db"
	lockFileName = "hashes.lock"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_hashes (
    path TEXT NOT NULL,
    algo TEXT NOT NULL,
    size INTEGER NOT NULL,
    mtime_ns INTEGER NOT NULL,
    hash TEXT NOT NULL,
    PRIMARY KEY (path, algo)
);
`

var ErrLocked = errors.New("hash cache is in use by another gobox process")

type row struct {
	Size    int64  `db:"size"`
	MtimeNs int64  `db:"mtime_ns"`
	Hash    string `db:"hash"`
}

// Cache is a sqlite backed hash cache guarded by an exclusive file lock.
type Cache struct {
	db     *sqlx.DB
	lock   *flock.Flock
	logger *slog.Logger
}

// Open opens the cache in dir, taking the directory lock. It fails with
// ErrLocked when another process holds it.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache dir: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	database, err := db.NewSqliteDB(db.WithPath(filepath.Join(dir, dbFileName)), db.WithMaxOpenConns(1), db.WithLogger(logger))
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	c, err := newCache(database, logger)
	if err != nil {
		database.Close()
		lock.Unlock()
		return nil, err
	}
	c.lock = lock
	return c, nil
}

// OpenMemory returns an unlocked cache that forgets everything on Close.
func OpenMemory(logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := db.NewSqliteDB(db.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	c, err := newCache(database, logger)
	if err != nil {
		database.Close()
		return nil, err
	}
	return c, nil
}

func newCache(database *sqlx.DB, logger *slog.Logger) (*Cache, error) {
	if _, err := database.Exec(schema); err != nil {
		return nil, fmt.Errorf("init hash cache schema: %w", err)
	}
	return &Cache{db: database, logger: logger}, nil
}

// Lookup returns the cached hash if the file still has the recorded size and
// mtime.
func (c *Cache) Lookup(ctx context.Context, path, algo string, size int64, modTime time.Time) (string, bool) {
	var r row
	err := c.db.GetContext(ctx, &r, `SELECT size, mtime_ns, hash FROM file_hashes WHERE path = ? AND algo = ?`, path, algo)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("hash cache lookup", "path", path, "error", err)
		}
		return "", false
	}
	if r.Size != size || r.MtimeNs != modTime.UnixNano() {
		return "", false
	}
	return r.Hash, true
}

func (c *Cache) Store(ctx context.Context, path, algo string, size int64, modTime time.Time, sum string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO file_hashes (path, algo, size, mtime_ns, hash) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path, algo) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns, hash = excluded.hash`,
		path, algo, size, modTime.UnixNano(), sum)
	if err != nil {
		return fmt.Errorf("store hash for %s: %w", path, err)
	}
	return nil
}

// Len returns the number of cached hashes.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM file_hashes`)
	return n, err
}

func (c *Cache) Close() error {
	err := c.db.Close()
	if c.lock != nil {
		if uerr := c.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}
