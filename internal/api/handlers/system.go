package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/reconnect/internal/storage"
	"github.com/your-org/reconnect/pkg/dto"
)

type SystemHandler struct {
	files  *storage.FileStore
	mirror Mirror
	events EventSink
}

func NewSystemHandler(files *storage.FileStore, mirror Mirror, events EventSink) *SystemHandler {
	return &SystemHandler{files: files, mirror: mirror, events: events}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the project root and the state of the data and image
// directories.
func (h *SystemHandler) Status(c *gin.Context) {
	data := h.files.DataStatus()
	img := h.files.ImageStatus()

	resp := dto.StatusResponse{
		Status:      "ok",
		ServerTime:  time.Now().UTC().Format(time.RFC3339Nano),
		ProjectRoot: h.files.Root(),
		Directories: map[string]dto.DirectoryStatus{
			"data": dto.DirectoryStatus(data),
			"img":  dto.DirectoryStatus(img),
		},
		DocumentURL: h.files.DocumentURLPath(),
	}

	if h.mirror != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		mirror := &dto.MirrorStatus{Bucket: h.mirror.Bucket(), Reachable: true}
		if err := h.mirror.Ping(ctx); err != nil {
			mirror.Reachable = false
			mirror.Error = err.Error()
		}
		resp.Mirror = mirror
	}

	if h.events != nil {
		events := &dto.EventsStatus{Sink: h.events.Name(), Connected: true}
		if err := h.events.Ping(); err != nil {
			events.Connected = false
			events.Error = err.Error()
		}
		resp.Events = events
	}

	c.JSON(http.StatusOK, resp)
}

// Login is a placeholder; institution accounts are not supported.
func (h *SystemHandler) Login(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, dto.Result{
		Success: false,
		Message: "Login feature is not available in this demo version.",
	})
}
