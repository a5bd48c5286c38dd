package boxsdk

import (
	"context"
	"io"

	"github.com/gadget1999/gobox/internal/remote"
)

// Store serves remote.Store over the API.
type Store struct {
	sdk *Client
}

var _ remote.Store = (*Store)(nil)

func NewStore(sdk *Client) *Store {
	return &Store{sdk: sdk}
}

func (s *Store) HashAlgo() string { return "sha1" }

func (s *Store) Get(ctx context.Context, id string, kind remote.Kind) (*remote.Node, error) {
	var (
		item *Item
		err  error
	)
	if kind == remote.KindFile {
		item, err = s.sdk.Files.Get(ctx, id)
	} else {
		item, err = s.sdk.Folders.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return item.Node(), nil
}

func (s *Store) List(ctx context.Context, folderID string, params remote.ListParams) (*remote.Page, error) {
	if len(params.Fields) == 0 {
		params.Fields = DefaultFields
	}
	items, err := s.sdk.Folders.Items(ctx, folderID, params.Query())
	if err != nil {
		return nil, err
	}
	return items.Page(), nil
}

func (s *Store) Mkdir(ctx context.Context, parentID, name string) (*remote.Node, error) {
	item, err := s.sdk.Folders.Create(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	return item.Node(), nil
}

func (s *Store) Rename(ctx context.Context, node *remote.Node, name string) (*remote.Node, error) {
	return s.update(ctx, node, &UpdateItemRequest{Name: name})
}

func (s *Store) Move(ctx context.Context, node *remote.Node, parentID string) (*remote.Node, error) {
	return s.update(ctx, node, &UpdateItemRequest{Parent: &ItemRef{ID: parentID}})
}

func (s *Store) update(ctx context.Context, node *remote.Node, update *UpdateItemRequest) (*remote.Node, error) {
	var (
		item *Item
		err  error
	)
	if node.IsFile() {
		item, err = s.sdk.Files.Update(ctx, node.ID, update)
	} else {
		item, err = s.sdk.Folders.Update(ctx, node.ID, update)
	}
	if err != nil {
		return nil, err
	}
	return item.Node(), nil
}

func (s *Store) Remove(ctx context.Context, node *remote.Node, recursive bool) error {
	if node.IsFile() {
		return s.sdk.Files.Delete(ctx, node.ID)
	}
	return s.sdk.Folders.Delete(ctx, node.ID, recursive)
}

func (s *Store) Download(ctx context.Context, node *remote.Node, w io.Writer) error {
	return s.sdk.Files.Download(ctx, node.ID, w)
}

func (s *Store) Upload(ctx context.Context, req *remote.UploadRequest) (*remote.Node, error) {
	var (
		item *Item
		err  error
	)
	if req.Existing != nil {
		item, err = s.sdk.Files.UploadVersion(ctx, req.Existing.ID, req.Existing.Name, req.ModTime, req.Body)
	} else {
		item, err = s.sdk.Files.Upload(ctx, req.ParentID, req.Name, req.ModTime, req.Body)
	}
	if err != nil {
		return nil, err
	}
	return item.Node(), nil
}

func (s *Store) AccountInfo(ctx context.Context) (*remote.Account, error) {
	user, err := s.sdk.Users.Me(ctx)
	if err != nil {
		return nil, err
	}
	return user.Account(), nil
}
