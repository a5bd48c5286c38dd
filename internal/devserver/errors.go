package devserver

import (
	"errors"
	"net/http"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gin-gonic/gin"
)

// abortWithError writes the API error body and stops the handler chain.
func abortWithError(ctx *gin.Context, status int, code string, err error) {
	ctx.Abort()
	ctx.Error(err)
	apiErr := boxsdk.NewAPIError(status, code, err.Error())
	apiErr.RequestID = ctx.GetString(requestIDKey)
	ctx.PureJSON(status, apiErr)
}

// abortWithStoreError maps a store error onto a status and an error code.
func abortWithStoreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, remote.ErrNotFound):
		abortWithError(ctx, http.StatusNotFound, boxsdk.CodeNotFound, err)
	case errors.Is(err, remote.ErrAlreadyExists):
		abortWithError(ctx, http.StatusConflict, boxsdk.CodeItemNameInUse, err)
	case errors.Is(err, remote.ErrNotEmpty):
		abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeFolderNotEmpty, err)
	case errors.Is(err, remote.ErrTypeMismatch):
		abortWithError(ctx, http.StatusBadRequest, boxsdk.CodeOperationBlocked, err)
	default:
		abortWithError(ctx, http.StatusInternalServerError, boxsdk.CodeInternalError, err)
	}
}
