package boxsdk

import (
	"context"
	"strconv"

	"github.com/imroc/req/v3"
)

const (
	folders     = "/folders"
	folderByID  = "/folders/{id}"
	folderItems = "/folders/{id}/items"
)

type FoldersAPI struct {
	client *req.Client
}

func newFoldersAPI(client *req.Client) *FoldersAPI {
	return &FoldersAPI{client: client}
}

func (f *FoldersAPI) Get(ctx context.Context, id string) (item *Item, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetSuccessResult(&item).
		Get(folderByID)

	if err := handleAPIError(resp, err, "get folder "+id); err != nil {
		return nil, err
	}

	return item, nil
}

// Items lists one page of a folder. Empty query values are not sent.
func (f *FoldersAPI) Items(ctx context.Context, id string, query map[string]string) (items *ItemCollection, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParams(query).
		SetSuccessResult(&items).
		Get(folderItems)

	if err := handleAPIError(resp, err, "list folder "+id); err != nil {
		return nil, err
	}

	return items, nil
}

func (f *FoldersAPI) Create(ctx context.Context, parentID, name string) (item *Item, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(&CreateFolderRequest{Name: name, Parent: ItemRef{ID: parentID}}).
		SetSuccessResult(&item).
		Post(folders)

	if err := handleAPIError(resp, err, "create folder "+name); err != nil {
		return nil, err
	}

	return item, nil
}

// Update renames or moves a folder.
func (f *FoldersAPI) Update(ctx context.Context, id string, update *UpdateItemRequest) (item *Item, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(update).
		SetSuccessResult(&item).
		Put(folderByID)

	if err := handleAPIError(resp, err, "update folder "+id); err != nil {
		return nil, err
	}

	return item, nil
}

func (f *FoldersAPI) Delete(ctx context.Context, id string, recursive bool) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParam("recursive", strconv.FormatBool(recursive)).
		Delete(folderByID)

	return handleAPIError(resp, err, "delete folder "+id)
}
