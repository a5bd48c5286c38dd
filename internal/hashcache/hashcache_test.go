package hashcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_LookupInvalidatesOnChange(t *testing.T) {
	c, err := OpenMemory(nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)

	_, ok := c.Lookup(ctx, "/a.txt", "sha1", 3, mtime)
	assert.False(t, ok)

	require.NoError(t, c.Store(ctx, "/a.txt", "sha1", 3, mtime, "abc"))
	sum, ok := c.Lookup(ctx, "/a.txt", "sha1", 3, mtime)
	assert.True(t, ok)
	assert.Equal(t, "abc", sum)

	_, ok = c.Lookup(ctx, "/a.txt", "sha1", 4, mtime)
	assert.False(t, ok, "size change")
	_, ok = c.Lookup(ctx, "/a.txt", "sha1", 3, mtime.Add(time.Nanosecond))
	assert.False(t, ok, "mtime change")
	_, ok = c.Lookup(ctx, "/a.txt", "md5", 3, mtime)
	assert.False(t, ok, "other algorithm")

	require.NoError(t, c.Store(ctx, "/a.txt", "sha1", 4, mtime, "def"))
	sum, ok = c.Lookup(ctx, "/a.txt", "sha1", 4, mtime)
	assert.True(t, ok)
	assert.Equal(t, "def", sum)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_DirectoryLock(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, nil)
	require.NoError(t, err)

	_, err = Open(dir, nil)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Close())

	second, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestCache_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	mtime := time.Unix(1700000000, 0)

	c, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Store(ctx, "/x", "md5", 1, mtime, "h"))
	require.NoError(t, c.Close())

	c, err = Open(dir, nil)
	require.NoError(t, err)
	defer c.Close()
	sum, ok := c.Lookup(ctx, "/x", "md5", 1, mtime)
	assert.True(t, ok)
	assert.Equal(t, "h", sum)
}
