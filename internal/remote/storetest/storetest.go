// Package storetest checks that a remote.Store behaves the way the resolver,
// the sync engine and the action handlers expect.
package storetest

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises newStore with the shared store contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) remote.Store) {
	t.Run("Root", func(t *testing.T) { testRoot(t, newStore(t)) })
	t.Run("Mkdir", func(t *testing.T) { testMkdir(t, newStore(t)) })
	t.Run("UploadDownload", func(t *testing.T) { testUploadDownload(t, newStore(t)) })
	t.Run("UploadVersion", func(t *testing.T) { testUploadVersion(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("RenameMove", func(t *testing.T) { testRenameMove(t, newStore(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, newStore(t)) })
	t.Run("AccountInfo", func(t *testing.T) { testAccountInfo(t, newStore(t)) })
}

var modTime = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

func upload(t *testing.T, s remote.Store, parentID, name, content string) *remote.Node {
	t.Helper()
	n, err := s.Upload(context.Background(), &remote.UploadRequest{
		ParentID: parentID,
		Name:     name,
		Body:     strings.NewReader(content),
		Size:     int64(len(content)),
		ModTime:  modTime,
	})
	require.NoError(t, err)
	return n
}

func names(t *testing.T, s remote.Store, folderID string) []string {
	t.Helper()
	nodes, err := remote.ListAll(context.Background(), s, folderID)
	require.NoError(t, err)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func testRoot(t *testing.T, s remote.Store) {
	root, err := s.Get(context.Background(), remote.RootID, remote.KindFolder)
	require.NoError(t, err)
	assert.Equal(t, remote.RootID, root.ID)
	assert.Equal(t, remote.KindFolder, root.Kind)
	assert.Empty(t, names(t, s, remote.RootID))
}

func testMkdir(t *testing.T, s remote.Store) {
	ctx := context.Background()
	a, err := s.Mkdir(ctx, remote.RootID, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, remote.KindFolder, a.Kind)

	_, err = s.Mkdir(ctx, remote.RootID, "a")
	assert.ErrorIs(t, err, remote.ErrAlreadyExists)

	b, err := s.Mkdir(ctx, a.ID, "b")
	require.NoError(t, err)
	got, err := s.Get(ctx, b.ID, remote.KindFolder)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)

	_, err = s.Get(ctx, b.ID, remote.KindFile)
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.Equal(t, []string{"b"}, names(t, s, a.ID))
}

func testUploadDownload(t *testing.T, s remote.Store) {
	ctx := context.Background()
	dir, err := s.Mkdir(ctx, remote.RootID, "docs")
	require.NoError(t, err)

	n := upload(t, s, dir.ID, "hello.txt", "hello")
	assert.Equal(t, "hello.txt", n.Name)
	assert.Equal(t, remote.KindFile, n.Kind)
	assert.EqualValues(t, 5, n.Size)
	assert.True(t, modTime.Equal(n.ModifiedAt), "mtime %s", n.ModifiedAt)
	if algo := s.HashAlgo(); algo != "" {
		h, err := utils.NewHasher(algo)
		require.NoError(t, err)
		h.Write([]byte("hello"))
		assert.Equal(t, hex.EncodeToString(h.Sum(nil)), n.Hash)
	}

	got, err := s.Get(ctx, n.ID, remote.KindFile)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.Size)

	var buf bytes.Buffer
	require.NoError(t, s.Download(ctx, n, &buf))
	assert.Equal(t, "hello", buf.String())

	_, err = s.Get(ctx, n.ID, remote.KindFolder)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func testUploadVersion(t *testing.T, s remote.Store) {
	ctx := context.Background()
	n := upload(t, s, remote.RootID, "v.txt", "one")

	v2, err := s.Upload(ctx, &remote.UploadRequest{
		ParentID: remote.RootID,
		Name:     "v.txt",
		Body:     strings.NewReader("second"),
		Size:     6,
		ModTime:  modTime.Add(time.Hour),
		Existing: n,
	})
	require.NoError(t, err)
	assert.Equal(t, n.ID, v2.ID)
	assert.EqualValues(t, 6, v2.Size)

	var buf bytes.Buffer
	require.NoError(t, s.Download(ctx, v2, &buf))
	assert.Equal(t, "second", buf.String())
	assert.Equal(t, []string{"v.txt"}, names(t, s, remote.RootID))
}

func testList(t *testing.T, s remote.Store) {
	ctx := context.Background()
	for _, name := range []string{"c", "a"} {
		_, err := s.Mkdir(ctx, remote.RootID, name)
		require.NoError(t, err)
	}
	upload(t, s, remote.RootID, "b.txt", "b")

	assert.Equal(t, []string{"a", "b.txt", "c"}, names(t, s, remote.RootID))

	limit, offset := 1, 1
	page, err := s.List(ctx, remote.RootID, remote.ListParams{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "b.txt", page.Entries[0].Name)
	assert.EqualValues(t, 1, page.Entries[0].Size)

	_, err = s.List(ctx, "missing-folder-id", remote.ListParams{})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func testRenameMove(t *testing.T, s remote.Store) {
	ctx := context.Background()
	src, err := s.Mkdir(ctx, remote.RootID, "src")
	require.NoError(t, err)
	dst, err := s.Mkdir(ctx, remote.RootID, "dst")
	require.NoError(t, err)
	f := upload(t, s, src.ID, "a.txt", "aaa")
	upload(t, s, src.ID, "taken.txt", "t")

	_, err = s.Rename(ctx, f, "taken.txt")
	assert.ErrorIs(t, err, remote.ErrAlreadyExists)

	renamed, err := s.Rename(ctx, f, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", renamed.Name)
	assert.Equal(t, []string{"b.txt", "taken.txt"}, names(t, s, src.ID))

	moved, err := s.Move(ctx, renamed, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", moved.Name)
	assert.Equal(t, []string{"b.txt"}, names(t, s, dst.ID))
	assert.Equal(t, []string{"taken.txt"}, names(t, s, src.ID))

	var buf bytes.Buffer
	require.NoError(t, s.Download(ctx, moved, &buf))
	assert.Equal(t, "aaa", buf.String())

	folder, err := s.Rename(ctx, src, "renamed")
	require.NoError(t, err)
	assert.Equal(t, []string{"taken.txt"}, names(t, s, folder.ID))

	movedDir, err := s.Move(ctx, folder, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "renamed"}, names(t, s, dst.ID))

	_, err = s.Move(ctx, dst, movedDir.ID)
	assert.Error(t, err, "a folder cannot move below itself")
}

func testRemove(t *testing.T, s remote.Store) {
	ctx := context.Background()
	dir, err := s.Mkdir(ctx, remote.RootID, "full")
	require.NoError(t, err)
	f := upload(t, s, dir.ID, "x.txt", "x")

	err = s.Remove(ctx, dir, false)
	assert.ErrorIs(t, err, remote.ErrNotEmpty)

	require.NoError(t, s.Remove(ctx, f, false))
	_, err = s.Get(ctx, f.ID, remote.KindFile)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	upload(t, s, dir.ID, "y.txt", "y")
	require.NoError(t, s.Remove(ctx, dir, true))
	_, err = s.Get(ctx, dir.ID, remote.KindFolder)
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.Empty(t, names(t, s, remote.RootID))

	empty, err := s.Mkdir(ctx, remote.RootID, "empty")
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, empty, false))
}

func testAccountInfo(t *testing.T, s remote.Store) {
	acct, err := s.AccountInfo(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, acct.ID)
}
