package client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/local"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/remote/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *memstore.Store
	client  *Client
	workDir string
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	workDir := t.TempDir()
	return &testEnv{
		store:   store,
		client:  New(store, local.NewStore(nil), WithWorkDir(workDir)),
		workDir: workDir,
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}
}

func (e *testEnv) run(t *testing.T, spec *action.Spec, u action.Unit) (any, error) {
	t.Helper()
	h, ok := e.client.Handlers()[spec.ID]
	require.True(t, ok, "handler for %s", spec.ID)
	return h(context.Background(), u, spec, batch.Output{Out: e.out, Err: e.errOut})
}

func (e *testEnv) writeLocal(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.workDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	mtime := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func (e *testEnv) resolve(t *testing.T, ref string, hint remote.Hint) *remote.Node {
	t.Helper()
	node, err := remote.NewResolver(e.store).Resolve(context.Background(), ref, hint)
	require.NoError(t, err)
	return node
}

func TestHandlers_CoverEveryAction(t *testing.T) {
	handlers := newEnv(t).client.Handlers()
	for _, id := range action.All {
		assert.Contains(t, handlers, id)
	}
	assert.Len(t, handlers, len(action.All))
}

func TestMkdir_NestedAndExisting(t *testing.T) {
	env := newEnv(t)
	spec := &action.Spec{ID: action.Mkdir}

	v, err := env.run(t, spec, action.Single("a/b/c"))
	require.NoError(t, err)
	assert.Equal(t, "c", v.(*remote.Node).Name)
	env.resolve(t, "/a/b/c", remote.HintFolder)

	_, err = env.run(t, spec, action.Single("a/b/c"))
	assert.ErrorIs(t, err, remote.ErrAlreadyExists)

	_, err = env.run(t, &action.Spec{ID: action.Mkdir, Mkdir: action.MkdirOptions{Chdir: "/a"}}, action.Single("d"))
	require.NoError(t, err)
	env.resolve(t, "/a/d", remote.HintFolder)
}

func TestRenameMoveRemove(t *testing.T) {
	env := newEnv(t)
	_, err := env.run(t, &action.Spec{ID: action.Mkdir}, action.Single("src/inner"))
	require.NoError(t, err)
	_, err = env.run(t, &action.Spec{ID: action.Mkdir}, action.Single("dst"))
	require.NoError(t, err)

	_, err = env.run(t, &action.Spec{ID: action.RenameDir}, action.Pair("src/inner", "renamed"))
	require.NoError(t, err)
	env.resolve(t, "/src/renamed", remote.HintFolder)

	_, err = env.run(t, &action.Spec{ID: action.RenameDir}, action.Pair("src/renamed", "x/y"))
	assert.Error(t, err)

	_, err = env.run(t, &action.Spec{ID: action.RenameFile}, action.Pair("src/renamed", "z"))
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)

	_, err = env.run(t, &action.Spec{ID: action.MoveDir}, action.Pair("src/renamed", "dst"))
	require.NoError(t, err)
	env.resolve(t, "/dst/renamed", remote.HintFolder)

	_, err = env.run(t, &action.Spec{ID: action.RemoveDir}, action.Single("dst"))
	assert.ErrorIs(t, err, remote.ErrNotEmpty)

	_, err = env.run(t, &action.Spec{ID: action.RemoveDir, Remove: action.RemoveOptions{Recursive: true}}, action.Single("dst"))
	require.NoError(t, err)
	_, err = remote.NewResolver(env.store).Resolve(context.Background(), "/dst", remote.HintFolder)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	_, err = env.run(t, &action.Spec{ID: action.RemoveDir, Remove: action.RemoveOptions{Recursive: true}}, action.Single("/"))
	assert.Error(t, err)
}

func TestUploadFileCreatesVersion(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "notes.txt", "v1")
	spec := &action.Spec{ID: action.Upload, Transfer: action.TransferOptions{Chdir: "/backup"}}

	v, err := env.run(t, spec, action.Single("notes.txt"))
	require.NoError(t, err)
	first := v.(*remote.Node)

	env.writeLocal(t, "notes.txt", "v2!")
	v, err = env.run(t, spec, action.Single("notes.txt"))
	require.NoError(t, err)
	second := v.(*remote.Node)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 3, second.Size)

	var buf bytes.Buffer
	require.NoError(t, env.store.Download(context.Background(), second, &buf))
	assert.Equal(t, "v2!", buf.String())
}

func TestUploadDirAndDownloadDirRoundTrip(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "project/a.txt", "a")
	env.writeLocal(t, "project/sub/b.txt", "bb")
	env.writeLocal(t, "project/skip.tmp", "tmp")

	_, err := env.run(t, &action.Spec{ID: action.Upload, Transfer: action.TransferOptions{
		Chdir:    "/remote",
		Excludes: action.Excludes{Pattern: `\.tmp$`},
	}}, action.Single("project"))
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "upload /sub/b.txt (new)")
	env.resolve(t, "/remote/project/sub/b.txt", remote.HintFile)
	_, err = remote.NewResolver(env.store).Resolve(context.Background(), "/remote/project/skip.tmp", remote.HintFile)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	target := t.TempDir()
	env.out.Reset()
	_, err = env.run(t, &action.Spec{ID: action.DownloadDir, Transfer: action.TransferOptions{Chdir: target, Verbose: true}}, action.Single("/remote/project"))
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "download /sub/b.txt (new, 2 B)")

	data, err := os.ReadFile(filepath.Join(target, "project", "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))
}

func TestDownloadFile(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "report.txt", "quarterly")
	_, err := env.run(t, &action.Spec{ID: action.Upload}, action.Single("report.txt"))
	require.NoError(t, err)

	target := t.TempDir()
	v, err := env.run(t, &action.Spec{ID: action.DownloadFile, Transfer: action.TransferOptions{Chdir: target, Verbose: true}}, action.Single("/report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "downloaded "+filepath.Join(target, "report.txt")+" (9 B)", v)

	data, err := os.ReadFile(filepath.Join(target, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "quarterly", string(data))
}

func TestPushDryRunLeavesRemoteUntouched(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "site/index.html", "<html>")
	spec := &action.Spec{ID: action.Push, Binary: true, Sync: action.SyncOptions{DryRun: true, Delete: true}}

	_, err := env.run(t, spec, action.Pair("site", "/www"))
	require.NoError(t, err)
	assert.Equal(t, "upload /index.html (new)\n1 transfer(s), 0 delete(s), 0 skipped, 0 identical\n", env.out.String())
	assert.Zero(t, env.store.Calls()["mkdir"])
	assert.Zero(t, env.store.Calls()["upload"])

	env.out.Reset()
	spec.Sync.DryRun = false
	_, err = env.run(t, spec, action.Pair("site", "/www"))
	require.NoError(t, err)
	assert.Equal(t, "upload /index.html (new)\n1 transfer(s), 0 delete(s), 0 skipped, 0 identical\n", env.out.String())
	env.resolve(t, "/www/index.html", remote.HintFile)
}

func TestPushRejectsMissingOrFileSource(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "file.txt", "x")
	spec := &action.Spec{ID: action.Push, Binary: true}

	_, err := env.run(t, spec, action.Pair("file.txt", "/dst"))
	assert.ErrorContains(t, err, "is not a directory")

	_, err = env.run(t, spec, action.Pair("missing", "/dst"))
	assert.ErrorIs(t, err, local.ErrNotFound)
}

func TestPullAndCompare(t *testing.T) {
	env := newEnv(t)
	env.writeLocal(t, "src/a.txt", "alpha")
	env.writeLocal(t, "src/b.txt", "bravo")
	_, err := env.run(t, &action.Spec{ID: action.Push, Binary: true}, action.Pair("src", "/mirror"))
	require.NoError(t, err)

	env.out.Reset()
	_, err = env.run(t, &action.Spec{ID: action.Pull, Binary: true, Sync: action.SyncOptions{Chdir: env.workDir}}, action.Pair("copy", "/mirror"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(env.workDir, "copy", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	env.writeLocal(t, "copy/b.txt", "BRAVO")
	env.writeLocal(t, "copy/c.txt", "new")
	env.out.Reset()
	_, err = env.run(t, &action.Spec{ID: action.CompareDir, Binary: true}, action.Pair("copy", "/mirror"))
	require.NoError(t, err)
	assert.Equal(t, "M /b.txt\n+ /c.txt\n", env.out.String())

	v, err := env.run(t, &action.Spec{ID: action.CompareFile, Binary: true}, action.Pair("copy/a.txt", "/mirror/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "identical", v)
	v, err = env.run(t, &action.Spec{ID: action.CompareFile, Binary: true}, action.Pair("copy/b.txt", "/mirror/b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "different", v)

	_, err = env.run(t, &action.Spec{ID: action.Pull, Binary: true}, action.Pair("copy", "/nowhere"))
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestListAndInfo(t *testing.T) {
	env := newEnv(t)
	for _, name := range []string{"b", "a", "c"} {
		_, err := env.run(t, &action.Spec{ID: action.Mkdir}, action.Single("docs/"+name))
		require.NoError(t, err)
	}

	limit := 2
	v, err := env.run(t, &action.Spec{ID: action.List, List: action.ListOptions{Limit: &limit}}, action.Single("docs"))
	require.NoError(t, err)
	page := v.(*remote.Page)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "a", page.Entries[0].Name)

	v, err = env.run(t, &action.Spec{ID: action.Info, Info: action.InfoOptions{IsFile: false}}, action.Single("docs/c"))
	require.NoError(t, err)
	assert.Equal(t, remote.KindFolder, v.(*remote.Node).Kind)

	_, err = env.run(t, &action.Spec{ID: action.Info, Info: action.InfoOptions{IsFile: true}}, action.Single("docs/c"))
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)
}

func TestWhatID(t *testing.T) {
	env := newEnv(t)
	v, err := env.run(t, &action.Spec{ID: action.Mkdir}, action.Single("docs"))
	require.NoError(t, err)
	id := v.(*remote.Node).ID

	msg, err := env.client.WhatID(context.Background(), "/docs", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, "folder /docs's id is "+id, msg)

	_, err = env.client.WhatID(context.Background(), "/docs", remote.HintFile)
	assert.EqualError(t, err, "no id found for /docs(type: f)")

	_, err = env.client.WhatID(context.Background(), "/missing", remote.HintAny)
	assert.True(t, strings.HasSuffix(err.Error(), "(type: unspecified)"))
}

// slowListStore widens the window between a folder lookup and its Mkdir so
// concurrent units all see a shared parent as missing.
type slowListStore struct {
	*memstore.Store
}

func (s slowListStore) List(ctx context.Context, folderID string, params remote.ListParams) (*remote.Page, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Store.List(ctx, folderID, params)
}

func TestUpload_ConcurrentUnitsShareNewParent(t *testing.T) {
	env := newEnv(t)
	c := New(slowListStore{env.store}, local.NewStore(nil), WithWorkDir(env.workDir))
	var units []action.Unit
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		env.writeLocal(t, name, name)
		units = append(units, action.Single(name))
	}

	spec := &action.Spec{ID: action.Upload, Transfer: action.TransferOptions{Chdir: "/shared/inbox"}}
	exec := &batch.Executor{Out: env.out, Err: env.errOut, Jobs: 4}
	report := exec.Run(context.Background(), spec, units, c.Handlers())
	require.Zero(t, report.Errors, env.errOut.String())

	inbox := env.resolve(t, "/shared/inbox", remote.HintFolder)
	children, err := remote.ListAll(context.Background(), env.store, inbox.ID)
	require.NoError(t, err)
	assert.Len(t, children, len(units))

	root, err := remote.ListAll(context.Background(), env.store, remote.RootID)
	require.NoError(t, err)
	assert.Len(t, root, 1)
}
