package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/your-org/reconnect/internal/config"
)

var (
	ErrInvalidDocument     = errors.New("invalid data format")
	ErrMissingUpload       = errors.New("missing filename or image data")
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrInvalidImage        = errors.New("invalid image data")
	ErrDirectoryUnwritable = errors.New("directory is not writable")
)

// DirectoryError names the directory that failed the writability probe.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return ErrDirectoryUnwritable }

// IsValidation reports whether err was caused by a malformed request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrMissingUpload) ||
		errors.Is(err, ErrInvalidFilename) ||
		errors.Is(err, ErrInvalidImage)
}

const writeProbeName = ".write-test"

var dataURIPrefix = regexp.MustCompile(`^data:[^;,]*;base64,`)

type DirStatus struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
}

// FileStore writes the canonical document and uploaded images under the
// project root. Every write is a full overwrite; there is no locking.
type FileStore struct {
	root     string
	dataDir  string
	imageDir string
	docPath  string
	dataRel  string
	imageRel string
}

func NewFileStore(cfg config.StorageConfig) *FileStore {
	return &FileStore{
		root:     cfg.Root,
		dataDir:  cfg.DataPath(),
		imageDir: cfg.ImagePath(),
		docPath:  cfg.DocumentPath(),
		dataRel:  filepath.ToSlash(cfg.DataDir),
		imageRel: filepath.ToSlash(cfg.ImageDir),
	}
}

func (s *FileStore) Root() string         { return s.root }
func (s *FileStore) DataDir() string      { return s.dataDir }
func (s *FileStore) ImageDir() string     { return s.imageDir }
func (s *FileStore) DocumentPath() string { return s.docPath }

// DataURLPath and ImageURLPath are the directories as served over HTTP.
func (s *FileStore) DataURLPath() string  { return "/" + s.dataRel }
func (s *FileStore) ImageURLPath() string { return "/" + s.imageRel }

// DocumentURLPath is the canonical document as served over HTTP.
func (s *FileStore) DocumentURLPath() string {
	return s.DataURLPath() + "/" + filepath.Base(s.docPath)
}

func (s *FileStore) DataStatus() DirStatus  { return dirStatus(s.dataDir) }
func (s *FileStore) ImageStatus() DirStatus { return dirStatus(s.imageDir) }

// EnsureDirs creates the data and image directories if missing.
func (s *FileStore) EnsureDirs() error {
	for _, dir := range []string{s.dataDir, s.imageDir} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// LogLayout logs the project root contents and directory state.
func (s *FileStore) LogLayout() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		slog.Error("read project root", "path", s.root, "error", err)
	} else {
		for _, e := range entries {
			slog.Debug("project root entry", "name", e.Name(), "dir", e.IsDir())
		}
		slog.Info("project root", "path", s.root, "entries", len(entries))
	}

	for _, st := range []DirStatus{s.DataStatus(), s.ImageStatus()} {
		slog.Info("project directory", "path", st.Path, "exists", st.Exists, "writable", st.Writable)
	}
}

// WriteDocument validates body as {persons: [...]} and replaces the
// canonical file with it. It returns the number of persons written.
func (s *FileStore) WriteDocument(body []byte) (int, error) {
	count, err := validateDocument(body)
	if err != nil {
		return 0, err
	}

	if err := ensureDir(s.dataDir); err != nil {
		return 0, err
	}
	if !IsWritable(s.dataDir) {
		return 0, &DirectoryError{Path: s.dataDir, Err: ErrDirectoryUnwritable}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return 0, fmt.Errorf("format document: %w", err)
	}
	if err := os.WriteFile(s.docPath, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", s.docPath, err)
	}

	slog.Info("document updated", "path", s.docPath, "persons", count)
	return count, nil
}

// ReadDocument returns the raw canonical document.
func (s *FileStore) ReadDocument() ([]byte, error) {
	data, err := os.ReadFile(s.docPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.docPath, err)
	}
	return data, nil
}

// ImageWrite describes a stored upload.
type ImageWrite struct {
	RelPath  string
	FullPath string
	Data     []byte
}

// WriteImage decodes a base64 image, optionally prefixed with a data URI
// header, and stores it as <imageDir>/<filename>, replacing any existing file.
func (s *FileStore) WriteImage(filename, encoded string) (*ImageWrite, error) {
	if filename == "" || encoded == "" {
		return nil, ErrMissingUpload
	}
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	data, err := DecodeImage(encoded)
	if err != nil {
		return nil, err
	}

	if err := ensureDir(s.imageDir); err != nil {
		return nil, err
	}
	if !IsWritable(s.imageDir) {
		return nil, &DirectoryError{Path: s.imageDir, Err: ErrDirectoryUnwritable}
	}

	full := filepath.Join(s.imageDir, filename)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", full, err)
	}

	slog.Info("image saved", "path", full, "bytes", len(data))
	return &ImageWrite{
		RelPath:  s.imageRel + "/" + filename,
		FullPath: full,
		Data:     data,
	}, nil
}

// DecodeImage strips a data URI header and decodes the base64 payload.
func DecodeImage(encoded string) ([]byte, error) {
	payload := dataURIPrefix.ReplaceAllString(strings.TrimSpace(encoded), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return data, nil
}

// IsWritable probes dir by creating and removing a marker file.
func IsWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	probe := filepath.Join(dir, writeProbeName)
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		slog.Warn("directory is not writable", "path", dir, "error", err)
		return false
	}
	if err := os.Remove(probe); err != nil {
		slog.Warn("remove write probe", "path", probe, "error", err)
		return false
	}
	return true
}

func validateDocument(body []byte) (int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return 0, ErrInvalidDocument
	}
	raw, ok := doc["persons"]
	if !ok {
		return 0, ErrInvalidDocument
	}
	var persons []json.RawMessage
	if err := json.Unmarshal(raw, &persons); err != nil || persons == nil {
		return 0, ErrInvalidDocument
	}
	return len(persons), nil
}

func validateFilename(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	slog.Info("created directory", "path", dir)
	return nil
}

func dirStatus(dir string) DirStatus {
	_, err := os.Stat(dir)
	return DirStatus{
		Path:     dir,
		Exists:   err == nil,
		Writable: err == nil && IsWritable(dir),
	}
}
