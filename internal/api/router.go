package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/reconnect/internal/api/handlers"
	"github.com/your-org/reconnect/internal/api/ws"
	"github.com/your-org/reconnect/internal/storage"
)

type RouterConfig struct {
	Files *storage.FileStore
	// Mirror, Notifier and Events are optional.
	Mirror       handlers.Mirror
	Notifier     handlers.Notifier
	Events       handlers.EventSink
	Hub          *ws.Hub
	MaxBodyBytes int64
	CORSOrigins  []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))

	systemH := handlers.NewSystemHandler(cfg.Files, cfg.Mirror, cfg.Events)
	documentH := handlers.NewDocumentHandler(cfg.Files, cfg.Mirror, cfg.Notifier)
	imageH := handlers.NewImageHandler(cfg.Files, cfg.Mirror, cfg.Notifier)

	r.GET("/healthz", systemH.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/status", systemH.Status)
	r.POST("/update-document", documentH.Update)
	r.POST("/upload-image", imageH.Upload)
	r.POST("/login", systemH.Login)

	// Paths used by the browser client.
	legacy := r.Group("/api")
	legacy.GET("/status", systemH.Status)
	legacy.POST("/update-persons-json", documentH.Update)
	legacy.POST("/upload-image", imageH.Upload)

	if cfg.Hub != nil {
		r.GET("/ws", cfg.Hub.HandleWS)
	}

	// The client loads the canonical document and images from here.
	r.Static(cfg.Files.DataURLPath(), cfg.Files.DataDir())
	r.Static(cfg.Files.ImageURLPath(), cfg.Files.ImageDir())

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
