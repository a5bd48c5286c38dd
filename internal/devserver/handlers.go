package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type handler struct {
	store remote.Store
}

func (h *handler) me(ctx *gin.Context) {
	acct, err := h.store.AccountInfo(ctx.Request.Context())
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	ctx.PureJSON(http.StatusOK, &boxsdk.User{
		Type:        boxsdk.TypeUser,
		ID:          acct.ID,
		Name:        acct.Name,
		Login:       acct.Login,
		SpaceAmount: acct.SpaceTotal,
		SpaceUsed:   acct.SpaceUsed,
	})
}

func (h *handler) get(kind remote.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		node, err := h.store.Get(ctx.Request.Context(), ctx.Param("id"), kind)
		if err != nil {
			abortWithStoreError(ctx, err)
			return
		}
		ctx.PureJSON(http.StatusOK, boxsdk.ItemFromNode(node))
	}
}

func (h *handler) items(ctx *gin.Context) {
	var params remote.ListParams
	for _, q := range []struct {
		key string
		dst **int
	}{{"limit", &params.Limit}, {"offset", &params.Offset}} {
		raw := ctx.Query(q.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, fmt.Errorf("invalid %s %q", q.key, raw))
			return
		}
		*q.dst = &n
	}
	if f := ctx.Query("fields"); f != "" {
		params.Fields = strings.Split(f, ",")
	}

	page, err := h.store.List(ctx.Request.Context(), ctx.Param("id"), params)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	ctx.PureJSON(http.StatusOK, collection(page))
}

func (h *handler) createFolder(ctx *gin.Context) {
	var body boxsdk.CreateFolderRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, err)
		return
	}
	if err := validName(body.Name); err != nil {
		abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeItemNameInvalid, err)
		return
	}
	node, err := h.store.Mkdir(ctx.Request.Context(), body.Parent.ID, body.Name)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	ctx.PureJSON(http.StatusCreated, boxsdk.ItemFromNode(node))
}

// update renames and/or moves a file or folder.
func (h *handler) update(kind remote.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var body boxsdk.UpdateItemRequest
		if err := ctx.ShouldBindJSON(&body); err != nil {
			abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, err)
			return
		}
		node, err := h.store.Get(ctx.Request.Context(), ctx.Param("id"), kind)
		if err != nil {
			abortWithStoreError(ctx, err)
			return
		}
		if body.Name != "" && body.Name != node.Name {
			if err := validName(body.Name); err != nil {
				abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeItemNameInvalid, err)
				return
			}
			if node, err = h.store.Rename(ctx.Request.Context(), node, body.Name); err != nil {
				abortWithStoreError(ctx, err)
				return
			}
		}
		if body.Parent != nil && body.Parent.ID != node.ParentID {
			if node, err = h.store.Move(ctx.Request.Context(), node, body.Parent.ID); err != nil {
				abortWithStoreError(ctx, err)
				return
			}
		}
		ctx.PureJSON(http.StatusOK, boxsdk.ItemFromNode(node))
	}
}

func (h *handler) remove(kind remote.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		node, err := h.store.Get(ctx.Request.Context(), ctx.Param("id"), kind)
		if err != nil {
			abortWithStoreError(ctx, err)
			return
		}
		recursive, _ := strconv.ParseBool(ctx.Query("recursive"))
		if err := h.store.Remove(ctx.Request.Context(), node, recursive); err != nil {
			abortWithStoreError(ctx, err)
			return
		}
		ctx.Status(http.StatusNoContent)
	}
}

func (h *handler) download(ctx *gin.Context) {
	node, err := h.store.Get(ctx.Request.Context(), ctx.Param("id"), remote.KindFile)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	ctx.Header("Content-Type", utils.DetectContentType(node.Name))
	ctx.Header("Content-Length", strconv.FormatInt(node.Size, 10))
	ctx.Status(http.StatusOK)
	if err := h.store.Download(ctx.Request.Context(), node, ctx.Writer); err != nil {
		// headers are gone, all we can do is cut the body short
		ctx.Error(err)
		ctx.Abort()
	}
}

// upload handles both new files and new versions of :id.
func (h *handler) upload(ctx *gin.Context) {
	var attrs boxsdk.UploadAttributes
	if raw := ctx.PostForm("attributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
			abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, fmt.Errorf("invalid attributes: %w", err))
			return
		}
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, fmt.Errorf("missing file part: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, boxsdk.CodeInternalError, err)
		return
	}
	defer f.Close()

	req := &remote.UploadRequest{Body: f, Size: fh.Size}
	if attrs.ContentModifiedAt != nil {
		req.ModTime = *attrs.ContentModifiedAt
	}

	if id := ctx.Param("id"); id != "" {
		existing, err := h.store.Get(ctx.Request.Context(), id, remote.KindFile)
		if err != nil {
			abortWithStoreError(ctx, err)
			return
		}
		req.Existing = existing
		req.ParentID = existing.ParentID
		req.Name = existing.Name
	} else {
		if attrs.Parent == nil {
			abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeBadRequest, errors.New("attributes.parent is required"))
			return
		}
		req.ParentID = attrs.Parent.ID
		req.Name = attrs.Name
		if req.Name == "" {
			req.Name = fh.Filename
		}
		if err := validName(req.Name); err != nil {
			abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeItemNameInvalid, err)
			return
		}
	}

	node, err := h.store.Upload(ctx.Request.Context(), req)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	status := http.StatusCreated
	if req.Existing != nil {
		status = http.StatusOK
	}
	ctx.PureJSON(status, &boxsdk.ItemCollection{TotalCount: 1, Limit: 1, Entries: []*boxsdk.Item{boxsdk.ItemFromNode(node)}})
}

func collection(page *remote.Page) *boxsdk.ItemCollection {
	out := &boxsdk.ItemCollection{
		TotalCount: page.TotalCount,
		Offset:     page.Offset,
		Limit:      page.Limit,
		Entries:    make([]*boxsdk.Item, 0, len(page.Entries)),
	}
	for _, n := range page.Entries {
		out.Entries = append(out.Entries, boxsdk.ItemFromNode(n))
	}
	return out
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
