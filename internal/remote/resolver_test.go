package remote_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/remote/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memstore.Store, map[string]*remote.Node) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	nodes := map[string]*remote.Node{}

	docs, err := store.Mkdir(ctx, remote.RootID, "docs")
	require.NoError(t, err)
	nodes["/docs"] = docs

	nested, err := store.Mkdir(ctx, docs.ID, "2024")
	require.NoError(t, err)
	nodes["/docs/2024"] = nested

	report, err := store.Upload(ctx, &remote.UploadRequest{ParentID: nested.ID, Name: "report.txt", Body: strings.NewReader("q1")})
	require.NoError(t, err)
	nodes["/docs/2024/report.txt"] = report

	numeric, err := store.Mkdir(ctx, remote.RootID, "42")
	require.NoError(t, err)
	nodes["/42"] = numeric
	return store, nodes
}

func TestResolver_ByPath(t *testing.T) {
	store, nodes := seed(t)
	r := remote.NewResolver(store)
	ctx := context.Background()

	node, err := r.Resolve(ctx, "docs/2024/report.txt", remote.HintFile)
	require.NoError(t, err)
	assert.Equal(t, nodes["/docs/2024/report.txt"].ID, node.ID)

	node, err = r.Resolve(ctx, "/docs/2024/", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, nodes["/docs/2024"].ID, node.ID)

	root, err := r.Resolve(ctx, "/", remote.HintAny)
	require.NoError(t, err)
	assert.Equal(t, remote.RootID, root.ID)
}

func TestResolver_HintMismatch(t *testing.T) {
	store, _ := seed(t)
	r := remote.NewResolver(store)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "docs/2024", remote.HintFile)
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)

	_, err = r.Resolve(ctx, "docs/2024/report.txt", remote.HintFolder)
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)

	_, err = r.Resolve(ctx, "docs/missing", remote.HintAny)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	_, err = r.Resolve(ctx, "/", remote.HintFile)
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)
}

func TestResolver_ByID(t *testing.T) {
	store, nodes := seed(t)
	r := remote.NewResolver(store)
	ctx := context.Background()

	report := nodes["/docs/2024/report.txt"]
	node, err := r.Resolve(ctx, report.ID, remote.HintAny)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", node.Name)

	_, err = r.Resolve(ctx, report.ID, remote.HintFolder)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	_, err = r.Resolve(ctx, "9999", remote.HintAny)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestResolver_PlainNames(t *testing.T) {
	store, nodes := seed(t)
	ctx := context.Background()

	// "42" is not a valid id in the seeded store, only a folder name
	_, err := remote.NewResolver(store).Resolve(ctx, "42", remote.HintFolder)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	node, err := remote.NewResolver(store, remote.WithPlainNames(true)).Resolve(ctx, "42", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, nodes["/42"].ID, node.ID)
}

func TestResolver_CachesPrefixes(t *testing.T) {
	store, _ := seed(t)
	r := remote.NewResolver(store)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "docs/2024/report.txt", remote.HintFile)
	require.NoError(t, err)
	before := store.Calls()["list"]

	_, err = r.Resolve(ctx, "docs/2024/report.txt", remote.HintFile)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "docs/2024", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, before, store.Calls()["list"])

	r.Purge()
	_, err = r.Resolve(ctx, "docs/2024", remote.HintFolder)
	require.NoError(t, err)
	assert.Greater(t, store.Calls()["list"], before)
}

func TestResolver_ResolveOrCreateFolder(t *testing.T) {
	store, nodes := seed(t)
	r := remote.NewResolver(store)
	ctx := context.Background()

	existing, err := r.ResolveOrCreateFolder(ctx, "docs/2024")
	require.NoError(t, err)
	assert.Equal(t, nodes["/docs/2024"].ID, existing.ID)

	created, err := r.ResolveOrCreateFolder(ctx, "docs/2025/q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", created.Name)

	again, err := remote.NewResolver(store).Resolve(ctx, "/docs/2025/q1", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	_, err = r.ResolveOrCreateFolder(ctx, "docs/2024/report.txt/x")
	assert.ErrorIs(t, err, remote.ErrTypeMismatch)
}

// lateMkdirStore behaves as if another writer created the folder between the
// resolver's lookup and its Mkdir.
type lateMkdirStore struct {
	*memstore.Store
}

func (s lateMkdirStore) Mkdir(ctx context.Context, parentID, name string) (*remote.Node, error) {
	if _, err := s.Store.Mkdir(ctx, parentID, name); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", name, remote.ErrAlreadyExists)
}

func TestResolver_ResolveOrCreateFolderLosesMkdirRace(t *testing.T) {
	store, nodes := seed(t)
	r := remote.NewResolver(lateMkdirStore{store})
	ctx := context.Background()

	got, err := r.ResolveOrCreateFolder(ctx, "docs/2025/q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", got.Name)

	want, err := remote.NewResolver(store).Resolve(ctx, "/docs/2025/q1", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)

	parent, err := remote.NewResolver(store).Resolve(ctx, "/docs/2025", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, nodes["/docs"].ID, parent.ParentID)
}

func TestListAll_FollowsPages(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	for _, name := range []string{"c", "a", "b"} {
		_, err := store.Mkdir(ctx, remote.RootID, name)
		require.NoError(t, err)
	}

	limit := 2
	page, err := store.List(ctx, remote.RootID, remote.ListParams{Limit: &limit})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)
	assert.Equal(t, 3, page.TotalCount)

	all, err := remote.ListAll(ctx, store, remote.RootID)
	require.NoError(t, err)
	var names []string
	for _, n := range all {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestListParams_Query(t *testing.T) {
	assert.Empty(t, remote.ListParams{}.Query())

	limit, offset := 5, 0
	q := remote.ListParams{Limit: &limit, Offset: &offset, Fields: []string{"name", "size"}}.Query()
	assert.Equal(t, map[string]string{"limit": "5", "offset": "0", "fields": "name,size"}, q)
}
