package devserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

var errUnauthorized = errors.New("missing or invalid access token")

// requestID keeps the caller's X-Request-Id, or assigns one.
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(boxsdk.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
			ctx.Request.Header.Set(boxsdk.HeaderRequestID, id)
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(boxsdk.HeaderRequestID, id)
		ctx.Next()
	}
}

// bearerAuth accepts requests carrying the token. An empty token disables
// the check.
func bearerAuth(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}
		got, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abortWithError(ctx, http.StatusUnauthorized, boxsdk.CodeUnauthorized, errUnauthorized)
			return
		}
		ctx.Next()
	}
}

var excludedExtensions = []string{
	".png", ".gif", ".jpeg", ".jpg", ".webp",
	".zip", ".tar", ".gz", ".bz2", ".7z",
}

// gzipResponses compresses JSON responses. File content is sent as is.
func gzipResponses() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.BestSpeed,
		gzip.WithExcludedPathsRegexs([]string{`^/files/[^/]+/content$`}),
		gzip.WithExcludedExtensions(excludedExtensions),
	)
}

// corsAll lets browser tools on any origin call the API with a bearer token.
func corsAll() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Authorization",
			boxsdk.HeaderRequestID,
		},
		ExposeHeaders: []string{boxsdk.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	})
}

// secureHeaders sets the browser hardening headers. The dev server speaks
// plain http so there is no redirect or HSTS.
func secureHeaders() gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IENoOpen:           true,
	})
}
