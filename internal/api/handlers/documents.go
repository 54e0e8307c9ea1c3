package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/your-org/reconnect/internal/observability"
	"github.com/your-org/reconnect/internal/storage"
	"github.com/your-org/reconnect/pkg/dto"
)

type DocumentHandler struct {
	files  *storage.FileStore
	mirror Mirror
	notify Notifier
}

func NewDocumentHandler(files *storage.FileStore, mirror Mirror, notify Notifier) *DocumentHandler {
	return &DocumentHandler{files: files, mirror: mirror, notify: notify}
}

// Update replaces the canonical document with the request body.
func (h *DocumentHandler) Update(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		observability.DocumentWrites.WithLabelValues("invalid").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.Result{Success: false, Message: "Document too large"})
			return
		}
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Invalid data format", Error: err.Error()})
		return
	}

	count, err := h.files.WriteDocument(body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	observability.DocumentWrites.WithLabelValues("ok").Inc()
	observability.DocumentPersons.Set(float64(count))

	if h.mirror != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), mirrorTimeout)
		if err := h.mirror.MirrorDocument(ctx, filepath.Base(h.files.DocumentPath()), body); err != nil {
			observability.MirrorFailures.WithLabelValues("document").Inc()
			slog.Warn("mirror document", "error", err)
		}
		cancel()
	}

	if h.notify != nil {
		evt := newEvent(dto.EventDocumentUpdated, h.files.DocumentPath())
		evt.Persons = count
		h.notify.Notify(c.Request.Context(), evt)
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Message: filepath.Base(h.files.DocumentPath()) + " updated successfully",
		Path:    h.files.DocumentPath(),
		Persons: &count,
	})
}

func (h *DocumentHandler) writeError(c *gin.Context, err error) {
	var dirErr *storage.DirectoryError

	switch {
	case storage.IsValidation(err):
		observability.DocumentWrites.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Invalid data format"})
	case errors.As(err, &dirErr):
		observability.DocumentWrites.WithLabelValues("error").Inc()
		slog.Error("data directory is not writable", "path", dirErr.Path)
		c.JSON(http.StatusInternalServerError, dto.Result{
			Success: false,
			Message: "Data directory is not writable",
			Path:    dirErr.Path,
		})
	default:
		observability.DocumentWrites.WithLabelValues("error").Inc()
		slog.Error("update document", "error", err)
		c.JSON(http.StatusInternalServerError, dto.Result{
			Success: false,
			Message: "Failed to update file",
			Path:    h.files.DocumentPath(),
			Error:   err.Error(),
		})
	}
}
