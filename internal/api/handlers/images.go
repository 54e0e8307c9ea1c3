package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/your-org/reconnect/internal/observability"
	"github.com/your-org/reconnect/internal/storage"
	"github.com/your-org/reconnect/pkg/dto"
)

type ImageHandler struct {
	files  *storage.FileStore
	mirror Mirror
	notify Notifier
}

func NewImageHandler(files *storage.FileStore, mirror Mirror, notify Notifier) *ImageHandler {
	return &ImageHandler{files: files, mirror: mirror, notify: notify}
}

// Upload stores a base64 encoded image under the image directory.
func (h *ImageHandler) Upload(c *gin.Context) {
	var req dto.UploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.Result{Success: false, Message: "Image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Missing filename or image data"})
		return
	}

	written, err := h.files.WriteImage(req.Filename, req.Encoded())
	if err != nil {
		h.writeError(c, err)
		return
	}

	observability.ImageUploads.WithLabelValues("ok").Inc()
	observability.ImageBytes.Add(float64(len(written.Data)))

	if h.mirror != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), mirrorTimeout)
		contentType := mimetype.Detect(written.Data).String()
		if err := h.mirror.MirrorImage(ctx, req.Filename, written.Data, contentType); err != nil {
			observability.MirrorFailures.WithLabelValues("image").Inc()
			slog.Warn("mirror image", "filename", req.Filename, "error", err)
		}
		cancel()
	}

	if h.notify != nil {
		evt := newEvent(dto.EventImageUploaded, written.RelPath)
		evt.Bytes = len(written.Data)
		h.notify.Notify(c.Request.Context(), evt)
	}

	c.JSON(http.StatusOK, dto.Result{
		Success:  true,
		Message:  "Image uploaded successfully",
		Path:     written.RelPath,
		FullPath: written.FullPath,
	})
}

func (h *ImageHandler) writeError(c *gin.Context, err error) {
	var dirErr *storage.DirectoryError

	switch {
	case errors.Is(err, storage.ErrMissingUpload):
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Missing filename or image data"})
	case errors.Is(err, storage.ErrInvalidFilename):
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Invalid filename", Error: err.Error()})
	case errors.Is(err, storage.ErrInvalidImage):
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Message: "Invalid image data", Error: err.Error()})
	case errors.As(err, &dirErr):
		observability.ImageUploads.WithLabelValues("error").Inc()
		slog.Error("image directory is not writable", "path", dirErr.Path)
		c.JSON(http.StatusInternalServerError, dto.Result{
			Success: false,
			Message: "Image directory is not writable",
			Path:    dirErr.Path,
		})
	default:
		observability.ImageUploads.WithLabelValues("error").Inc()
		slog.Error("upload image", "error", err)
		c.JSON(http.StatusInternalServerError, dto.Result{
			Success: false,
			Message: "Failed to upload image",
			Error:   err.Error(),
		})
	}
}
