package boxsdk_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gadget1999/gobox/internal/devserver"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/remote/memstore"
	"github.com/gadget1999/gobox/internal/remote/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "test-token"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(devserver.SetupRoutes(memstore.New(), token, discard))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, url, accessToken string) *boxsdk.Client {
	t.Helper()
	c, err := boxsdk.New(&boxsdk.Config{APIURL: url, AccessToken: accessToken, Logger: discard})
	require.NoError(t, err)
	return c
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) remote.Store {
		return boxsdk.NewStore(newClient(t, newServer(t).URL, token))
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := &boxsdk.Config{APIURL: "http://127.0.0.1:8080/", AccessToken: "t"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIURL)
	assert.Equal(t, cfg.APIURL, cfg.UploadURL)

	assert.ErrorIs(t, (&boxsdk.Config{AccessToken: "t"}).Validate(), boxsdk.ErrNoAPIURL)
	assert.ErrorIs(t, (&boxsdk.Config{APIURL: "http://x"}).Validate(), boxsdk.ErrNoAccessToken)
}

func TestAPIError_BadToken(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL, "wrong")

	_, err := c.Users.Me(context.Background())
	var apiErr *boxsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, boxsdk.CodeUnauthorized, apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestAPIError_MapsToRemoteErrors(t *testing.T) {
	srv := newServer(t)
	store := boxsdk.NewStore(newClient(t, srv.URL, token))
	ctx := context.Background()

	_, err := store.Get(ctx, "999", remote.KindFile)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	var buf io.Writer = io.Discard
	err = store.Download(ctx, &remote.Node{ID: "999", Kind: remote.KindFile}, buf)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	_, err = store.Mkdir(ctx, remote.RootID, "a/b")
	var apiErr *boxsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, boxsdk.CodeItemNameInvalid, apiErr.Code)
}

func TestResolverOverAPI(t *testing.T) {
	srv := newServer(t)
	store := boxsdk.NewStore(newClient(t, srv.URL, token))
	ctx := context.Background()

	dir, err := store.Mkdir(ctx, remote.RootID, "photos")
	require.NoError(t, err)
	_, err = store.Mkdir(ctx, dir.ID, "2024")
	require.NoError(t, err)

	r := remote.NewResolver(store)
	node, err := r.Resolve(ctx, "/photos/2024", remote.HintFolder)
	require.NoError(t, err)
	assert.Equal(t, "2024", node.Name)
	assert.Equal(t, dir.ID, node.ParentID)

	byID, err := r.Resolve(ctx, dir.ID, remote.HintAny)
	require.NoError(t, err)
	assert.Equal(t, "photos", byID.Name)
}

func TestItemNode(t *testing.T) {
	n := (&boxsdk.Item{Type: boxsdk.TypeFile, ID: "7", Name: "a", SHA1: "abc", Parent: &boxsdk.ItemRef{ID: "0"}}).Node()
	assert.Equal(t, remote.KindFile, n.Kind)
	assert.Equal(t, "abc", n.Hash)
	assert.Equal(t, "0", n.ParentID)

	back := boxsdk.ItemFromNode(n)
	assert.Equal(t, boxsdk.TypeFile, back.Type)
	assert.Nil(t, back.ModifiedAt)
}
