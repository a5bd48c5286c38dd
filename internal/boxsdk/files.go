package boxsdk

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/imroc/req/v3"
)

const (
	fileByID       = "/files/{id}"
	fileContent    = "/files/{id}/content"
	uploadNew      = "/files/content"
	uploadVersion  = "/files/%s/content"
	attributesPart = "attributes"
	filePart       = "file"
)

type FilesAPI struct {
	client    *req.Client
	uploadURL string
}

func newFilesAPI(client *req.Client, uploadURL string) *FilesAPI {
	return &FilesAPI{client: client, uploadURL: uploadURL}
}

func (f *FilesAPI) Get(ctx context.Context, id string) (item *Item, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetSuccessResult(&item).
		Get(fileByID)

	if err := handleAPIError(resp, err, "get file "+id); err != nil {
		return nil, err
	}

	return item, nil
}

// Update renames or moves a file.
func (f *FilesAPI) Update(ctx context.Context, id string, update *UpdateItemRequest) (item *Item, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(update).
		SetSuccessResult(&item).
		Put(fileByID)

	if err := handleAPIError(resp, err, "update file "+id); err != nil {
		return nil, err
	}

	return item, nil
}

func (f *FilesAPI) Delete(ctx context.Context, id string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(fileByID)

	return handleAPIError(resp, err, "delete file "+id)
}

// Download streams the content of a file into w.
func (f *FilesAPI) Download(ctx context.Context, id string, w io.Writer) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		DisableAutoReadResponse().
		Get(fileContent)
	if err != nil {
		return fmt.Errorf("http request error: download file %s: %w", id, err)
	}
	if resp.IsErrorState() {
		return readAPIError(resp, "download file "+id)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download file %s: %w", id, err)
	}
	return nil
}

// Upload creates a new file in parentID.
func (f *FilesAPI) Upload(ctx context.Context, parentID, name string, modTime time.Time, body io.Reader) (*Item, error) {
	attrs := &UploadAttributes{Name: name, Parent: &ItemRef{ID: parentID}}
	return f.upload(ctx, f.uploadURL+uploadNew, name, attrs, modTime, body, "upload "+name)
}

// UploadVersion replaces the content of an existing file.
func (f *FilesAPI) UploadVersion(ctx context.Context, id, name string, modTime time.Time, body io.Reader) (*Item, error) {
	url := f.uploadURL + fmt.Sprintf(uploadVersion, id)
	return f.upload(ctx, url, name, &UploadAttributes{}, modTime, body, "upload version of "+id)
}

func (f *FilesAPI) upload(ctx context.Context, url, name string, attrs *UploadAttributes, modTime time.Time, body io.Reader, operation string) (*Item, error) {
	if !modTime.IsZero() {
		t := modTime.UTC()
		attrs.ContentModifiedAt = &t
	}
	attrJSON, err := jsonMarshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("%s: encode attributes: %w", operation, err)
	}

	var items *ItemCollection
	resp, err := f.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetFormData(map[string]string{attributesPart: string(attrJSON)}).
		SetFileReader(filePart, name, body).
		SetSuccessResult(&items).
		Post(url)

	if err := handleAPIError(resp, err, operation); err != nil {
		return nil, err
	}
	if items == nil || len(items.Entries) == 0 {
		return nil, fmt.Errorf("%s: empty upload response", operation)
	}
	return items.Entries[0], nil
}
