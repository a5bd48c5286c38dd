// Package s3store is a remote.Store over an S3 bucket. Folders are key
// prefixes ending in "/", made explicit by zero-byte marker objects; node ids
// are keys relative to the configured prefix.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/utils"
)

const (
	metaModTime     = "mtime"
	deleteBatchSize = 1000
	defaultLimit    = 100
)

type Store struct {
	api    API
	config *Config
	base   string
	logger *slog.Logger
}

var _ remote.Store = (*Store)(nil)

func New(api API, config *Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.Trim(config.Prefix, "/")
	if base != "" {
		base += "/"
	}
	return &Store{
		api:    api,
		config: config,
		base:   base,
		logger: logger.With("component", "s3store", "bucket", config.Bucket),
	}
}

func (s *Store) HashAlgo() string { return "md5" }

func (s *Store) Get(ctx context.Context, id string, kind remote.Kind) (*remote.Node, error) {
	if kind == remote.KindFolder {
		if id == remote.RootID {
			return s.root(), nil
		}
		ok, err := s.prefixExists(ctx, s.dirPrefix(id))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("folder %s: %w", id, remote.ErrNotFound)
		}
		return s.folderNode(id), nil
	}

	if id == remote.RootID || strings.HasSuffix(id, "/") {
		return nil, fmt.Errorf("file %s: %w", id, remote.ErrNotFound)
	}
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.config.Bucket,
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return nil, s.wrap(err, "file "+id)
	}
	n := s.fileNode(id, aws.ToInt64(out.ContentLength), aws.ToString(out.ETag), aws.ToTime(out.LastModified))
	if t, ok := parseModTime(out.Metadata); ok {
		n.ModifiedAt = t
	}
	return n, nil
}

func (s *Store) List(ctx context.Context, folderID string, params remote.ListParams) (*remote.Page, error) {
	prefix := s.dirPrefix(folderID)
	found := folderID == remote.RootID
	var nodes []*remote.Node

	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket:    &s.config.Bucket,
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s.wrap(err, "list "+folderID)
		}
		for _, cp := range page.CommonPrefixes {
			found = true
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			nodes = append(nodes, s.folderNode(s.childID(folderID, name)))
		}
		for _, obj := range page.Contents {
			found = true
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			name := strings.TrimPrefix(key, prefix)
			nodes = append(nodes, s.fileNode(s.childID(folderID, name), aws.ToInt64(obj.Size), aws.ToString(obj.ETag), aws.ToTime(obj.LastModified)))
		}
	}
	if !found {
		return nil, fmt.Errorf("folder %s: %w", folderID, remote.ErrNotFound)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	offset, limit := 0, defaultLimit
	if params.Offset != nil {
		offset = *params.Offset
	}
	if params.Limit != nil {
		limit = *params.Limit
	}
	out := &remote.Page{TotalCount: len(nodes), Offset: offset, Limit: limit, Entries: []*remote.Node{}}
	for i := offset; i < len(nodes) && i < offset+limit; i++ {
		n := nodes[i]
		if n.IsFile() && n.Hash == "" {
			// no content hash in the listing, read the stored mtime instead
			if err := s.loadModTime(ctx, n); err != nil {
				return nil, err
			}
		}
		out.Entries = append(out.Entries, n)
	}
	return out, nil
}

func (s *Store) loadModTime(ctx context.Context, n *remote.Node) error {
	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.config.Bucket,
		Key:    aws.String(s.key(n.ID)),
	})
	if err != nil {
		return s.wrap(err, "file "+n.ID)
	}
	if t, ok := parseModTime(head.Metadata); ok {
		n.ModifiedAt = t
	}
	return nil
}

func (s *Store) Mkdir(ctx context.Context, parentID, name string) (*remote.Node, error) {
	if _, err := s.Get(ctx, parentID, remote.KindFolder); err != nil {
		return nil, err
	}
	id := s.childID(parentID, name)
	if err := s.ensureFree(ctx, id); err != nil {
		return nil, err
	}
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.config.Bucket,
		Key:           aws.String(s.dirPrefix(id)),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return nil, s.wrap(err, "mkdir "+id)
	}
	s.logger.Debug("created folder marker", "id", id)
	return s.folderNode(id), nil
}

func (s *Store) Rename(ctx context.Context, node *remote.Node, name string) (*remote.Node, error) {
	return s.relocate(ctx, node, s.childID(parentOf(node.ID), name))
}

func (s *Store) Move(ctx context.Context, node *remote.Node, parentID string) (*remote.Node, error) {
	if _, err := s.Get(ctx, parentID, remote.KindFolder); err != nil {
		return nil, err
	}
	if !node.IsFile() && (parentID == node.ID || strings.HasPrefix(parentID, node.ID+"/")) {
		return nil, fmt.Errorf("move %s into itself: %w", node.Name, remote.ErrTypeMismatch)
	}
	return s.relocate(ctx, node, s.childID(parentID, path.Base(node.ID)))
}

// relocate copies every key of node to newID, then deletes the originals.
func (s *Store) relocate(ctx context.Context, node *remote.Node, newID string) (*remote.Node, error) {
	if node.ID == remote.RootID {
		return nil, fmt.Errorf("relocate root folder: %w", remote.ErrTypeMismatch)
	}
	if err := s.ensureFree(ctx, newID); err != nil {
		return nil, err
	}

	var keys []string
	var from, to string
	if node.IsFile() {
		from, to = s.key(node.ID), s.key(newID)
		keys = []string{from}
	} else {
		from, to = s.dirPrefix(node.ID), s.dirPrefix(newID)
		var err error
		if keys, err = s.allKeys(ctx, from); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("folder %s: %w", node.ID, remote.ErrNotFound)
		}
	}

	for _, key := range keys {
		_, err := s.api.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     &s.config.Bucket,
			CopySource: aws.String(s.copySource(key)),
			Key:        aws.String(to + strings.TrimPrefix(key, from)),
		})
		if err != nil {
			return nil, s.wrap(err, "copy "+key)
		}
	}
	if err := s.deleteKeys(ctx, keys); err != nil {
		return nil, err
	}
	return s.Get(ctx, newID, node.Kind)
}

func (s *Store) Remove(ctx context.Context, node *remote.Node, recursive bool) error {
	if node.IsFile() {
		if _, err := s.Get(ctx, node.ID, remote.KindFile); err != nil {
			return err
		}
		_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: &s.config.Bucket,
			Key:    aws.String(s.key(node.ID)),
		})
		return s.wrap(err, "remove "+node.ID)
	}

	if node.ID == remote.RootID {
		return fmt.Errorf("remove root folder: %w", remote.ErrTypeMismatch)
	}
	prefix := s.dirPrefix(node.ID)
	keys, err := s.allKeys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("folder %s: %w", node.ID, remote.ErrNotFound)
	}
	if !recursive && (len(keys) > 1 || keys[0] != prefix) {
		return fmt.Errorf("%s: %w", node.Name, remote.ErrNotEmpty)
	}
	return s.deleteKeys(ctx, keys)
}

func (s *Store) Download(ctx context.Context, node *remote.Node, w io.Writer) error {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.config.Bucket,
		Key:    aws.String(s.key(node.ID)),
	})
	if err != nil {
		return s.wrap(err, "download "+node.ID)
	}
	defer out.Body.Close()
	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("download %s: %w", node.ID, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, req *remote.UploadRequest) (*remote.Node, error) {
	var id string
	if req.Existing != nil {
		id = req.Existing.ID
	} else {
		if _, err := s.Get(ctx, req.ParentID, remote.KindFolder); err != nil {
			return nil, err
		}
		id = s.childID(req.ParentID, req.Name)
		if err := s.ensureFree(ctx, id); err != nil {
			return nil, err
		}
	}

	body, size, err := seekable(req.Body)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", id, err)
	}
	modTime := req.ModTime.UTC().Truncate(time.Second)
	if req.ModTime.IsZero() {
		modTime = time.Now().UTC().Truncate(time.Second)
	}

	out, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.config.Bucket,
		Key:           aws.String(s.key(id)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(utils.DetectContentType(id)),
		Metadata:      map[string]string{metaModTime: strconv.FormatInt(modTime.Unix(), 10)},
	})
	if err != nil {
		return nil, s.wrap(err, "upload "+id)
	}
	return s.fileNode(id, size, aws.ToString(out.ETag), modTime), nil
}

func (s *Store) AccountInfo(_ context.Context) (*remote.Account, error) {
	login := "default credentials"
	if s.config.AccessKey != "" {
		login = utils.MaskSecret(s.config.AccessKey)
	}
	return &remote.Account{
		ID:    s.config.Bucket,
		Name:  "s3://" + s.config.Bucket + "/" + s.base,
		Login: login,
	}, nil
}

func (s *Store) root() *remote.Node {
	return &remote.Node{ID: remote.RootID, Name: s.config.Bucket, Kind: remote.KindFolder}
}

func (s *Store) folderNode(id string) *remote.Node {
	return &remote.Node{ID: id, Name: path.Base(id), Kind: remote.KindFolder, ParentID: parentOf(id)}
}

func (s *Store) fileNode(id string, size int64, etag string, modified time.Time) *remote.Node {
	etag = strings.Trim(etag, `"`)
	if strings.Contains(etag, "-") {
		// multipart etags are not content hashes
		etag = ""
	}
	return &remote.Node{
		ID:         id,
		Name:       path.Base(id),
		Kind:       remote.KindFile,
		ParentID:   parentOf(id),
		Size:       size,
		Hash:       etag,
		ModifiedAt: modified.UTC(),
	}
}

func (s *Store) key(id string) string { return s.base + id }

func (s *Store) dirPrefix(id string) string {
	if id == remote.RootID {
		return s.base
	}
	return s.base + id + "/"
}

func (s *Store) childID(parentID, name string) string {
	if parentID == remote.RootID {
		return name
	}
	return parentID + "/" + name
}

func parentOf(id string) string {
	dir := path.Dir(id)
	if dir == "." || dir == "/" {
		return remote.RootID
	}
	return dir
}

// ensureFree fails when a file or folder already uses id.
func (s *Store) ensureFree(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id, remote.KindFile); err == nil {
		return fmt.Errorf("%s: %w", id, remote.ErrAlreadyExists)
	} else if !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	ok, err := s.prefixExists(ctx, s.dirPrefix(id))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%s: %w", id, remote.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) prefixExists(ctx context.Context, prefix string) (bool, error) {
	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  &s.config.Bucket,
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, s.wrap(err, "stat "+prefix)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (s *Store) allKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: &s.config.Bucket,
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s.wrap(err, "list "+prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &s.config.Bucket,
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return s.wrap(err, "delete objects")
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

func (s *Store) copySource(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.config.Bucket + "/" + strings.Join(parts, "/")
}

func (s *Store) wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return fmt.Errorf("%s: %w", what, remote.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func parseModTime(meta map[string]string) (time.Time, bool) {
	raw, ok := meta[metaModTime]
	if !ok {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// seekable returns a body the SDK can sign and retry, with its length.
func seekable(r io.Reader) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end - cur, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
