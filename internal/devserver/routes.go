package devserver

import (
	"log/slog"
	"net/http"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/version"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

// SetupRoutes serves the file API over store. An empty token disables auth.
func SetupRoutes(store remote.Store, token string, logger *slog.Logger) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20 // 8 MiB

	h := &handler{store: store}

	r.Use(requestID())
	r.Use(slogGin.NewWithConfig(logger.WithGroup("http"), slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(corsAll())
	r.Use(secureHeaders())
	r.Use(gzipResponses())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	api := r.Group("/", bearerAuth(token))
	{
		api.GET("/users/me", h.me)

		api.POST("/folders", h.createFolder)
		api.GET("/folders/:id", h.get(remote.KindFolder))
		api.GET("/folders/:id/items", h.items)
		api.PUT("/folders/:id", h.update(remote.KindFolder))
		api.DELETE("/folders/:id", h.remove(remote.KindFolder))

		api.GET("/files/:id", h.get(remote.KindFile))
		api.PUT("/files/:id", h.update(remote.KindFile))
		api.DELETE("/files/:id", h.remove(remote.KindFile))
		api.GET("/files/:id/content", h.download)
		api.POST("/files/content", h.upload)
		api.POST("/files/:id/content", h.upload)
	}

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, boxsdk.NewAPIError(http.StatusNotFound, boxsdk.CodeNotFound, "not found"))
	})

	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, boxsdk.NewAPIError(http.StatusMethodNotAllowed, boxsdk.CodeMethodNotAllowed, "method not allowed"))
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
