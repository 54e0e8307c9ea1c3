package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/your-org/reconnect/internal/models"
	"github.com/your-org/reconnect/pkg/dto"
)

// ImageCache holds local previews and the server paths of uploaded images.
type ImageCache interface {
	PutImage(ctx context.Context, filename, dataURI string) error
	PutImagePath(ctx context.Context, filename, path string) error
}

// Upload is a stored image. Path is relative to the project root, e.g.
// img/image_1700000000000_42.png.
type Upload struct {
	Filename string
	Path     string
}

type Uploader struct {
	client *Client
	cache  ImageCache
	now    func() time.Time
}

func NewUploader(c *Client, cache ImageCache) *Uploader {
	return &Uploader{client: c, cache: cache, now: time.Now}
}

// Upload stores data on the server under a generated name. The local preview
// is cached before the request so it survives a failed upload.
func (u *Uploader) Upload(ctx context.Context, originalName string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image %q", originalName)
	}

	filename := GenerateImageName(originalName, u.now())
	encoded := DataURI(data)

	if u.cache != nil {
		if err := u.cache.PutImage(ctx, filename, encoded); err != nil {
			slog.Warn("cache image preview", "filename", filename, "error", err)
		}
	}

	result, err := u.client.post(ctx, "/upload-image", dto.UploadImageRequest{
		Filename:     filename,
		EncodedImage: encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	path := result.Path
	if path == "" {
		path = "img/" + filename
	}
	if u.cache != nil {
		if err := u.cache.PutImagePath(ctx, filename, path); err != nil {
			slog.Warn("cache image path", "filename", filename, "error", err)
		}
	}

	slog.Info("image uploaded", "filename", filename, "path", path, "bytes", len(data))
	return &Upload{Filename: filename, Path: path}, nil
}

// PhotoURL uploads data and returns the photoUrl to store on the record.
// Upload failure is logged and yields the placeholder.
func (u *Uploader) PhotoURL(ctx context.Context, originalName string, data []byte) string {
	up, err := u.Upload(ctx, originalName, data)
	if err != nil {
		slog.Warn("image upload failed, using placeholder", "file", originalName, "error", err)
		return models.PlaceholderPhoto
	}
	return up.Path
}

// GenerateImageName returns image_<unix millis>_<0-9999>.<ext>. The
// extension is taken from the original name, falling back to "img".
func GenerateImageName(originalName string, now time.Time) string {
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = "img"
	}
	return fmt.Sprintf("image_%d_%d.%s", now.UnixMilli(), uuid.New().ID()%10000, ext)
}

// DataURI encodes data as a base64 data URI with its sniffed media type.
func DataURI(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
