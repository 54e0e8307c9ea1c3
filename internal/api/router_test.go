package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/reconnect/internal/config"
	"github.com/your-org/reconnect/internal/storage"
	"github.com/your-org/reconnect/pkg/dto"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []dto.Event
}

func (n *recordingNotifier) Notify(_ context.Context, evt *dto.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, *evt)
}

type fakeMirror struct {
	documents map[string][]byte
	images    map[string]string
	fail      bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{documents: map[string][]byte{}, images: map[string]string{}}
}

func (m *fakeMirror) MirrorDocument(_ context.Context, name string, data []byte) error {
	if m.fail {
		return errors.New("bucket unavailable")
	}
	m.documents[name] = data
	return nil
}

func (m *fakeMirror) MirrorImage(_ context.Context, filename string, _ []byte, contentType string) error {
	if m.fail {
		return errors.New("bucket unavailable")
	}
	m.images[filename] = contentType
	return nil
}

func (m *fakeMirror) Ping(context.Context) error {
	if m.fail {
		return errors.New("bucket unavailable")
	}
	return nil
}

func (m *fakeMirror) Bucket() string { return "reconnect" }

type testServer struct {
	router   http.Handler
	root     string
	files    *storage.FileStore
	notifier *recordingNotifier
}

func newTestServer(t *testing.T, mirror *fakeMirror) *testServer {
	t.Helper()
	root := t.TempDir()
	files := storage.NewFileStore(config.StorageConfig{
		Root:         root,
		DataDir:      "data",
		ImageDir:     "img",
		DocumentName: "persons.json",
	})
	notifier := &recordingNotifier{}

	cfg := RouterConfig{
		Files:        files,
		Notifier:     notifier,
		MaxBodyBytes: 1 << 20,
	}
	if mirror != nil {
		cfg.Mirror = mirror
	}

	return &testServer{router: NewRouter(cfg), root: root, files: files, notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte) (*httptest.ResponseRecorder, dto.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var result dto.Result
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &result)
	}
	return w, result
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.files.EnsureDirs())

	for _, path := range []string{"/status", "/api/status"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var status dto.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, s.root, status.ProjectRoot)
		assert.NotEmpty(t, status.ServerTime)
		assert.Equal(t, dto.DirectoryStatus{Path: filepath.Join(s.root, "data"), Exists: true, Writable: true}, status.Directories["data"])
		assert.Equal(t, dto.DirectoryStatus{Path: filepath.Join(s.root, "img"), Exists: true, Writable: true}, status.Directories["img"])
		assert.Nil(t, status.Mirror)
		assert.Nil(t, status.Events)
		assert.Equal(t, "/data/persons.json", status.DocumentURL)
	}
}

type fakeSink struct{ err error }

func (f fakeSink) Name() string { return "nats" }
func (f fakeSink) Ping() error  { return f.err }

func TestStatusReportsEventSink(t *testing.T) {
	root := t.TempDir()
	files := storage.NewFileStore(config.StorageConfig{
		Root:         root,
		DataDir:      "records",
		ImageDir:     "img",
		DocumentName: "registry.json",
	})

	for _, tc := range []struct {
		name string
		sink fakeSink
		want bool
	}{
		{"connected", fakeSink{}, true},
		{"disconnected", fakeSink{err: errors.New("nats not connected")}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{Files: files, Events: tc.sink})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var status dto.StatusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			require.NotNil(t, status.Events)
			assert.Equal(t, "nats", status.Events.Sink)
			assert.Equal(t, tc.want, status.Events.Connected)
			assert.Equal(t, "/records/registry.json", status.DocumentURL)
		})
	}
}

func TestStatusMissingDirectories(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Directories["data"].Exists)
	assert.False(t, status.Directories["data"].Writable)
}

func TestStatusReportsMirror(t *testing.T) {
	mirror := newFakeMirror()
	mirror.fail = true
	s := newTestServer(t, mirror)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.NotNil(t, status.Mirror)
	assert.False(t, status.Mirror.Reachable)
	assert.Equal(t, "reconnect", status.Mirror.Bucket)
}

func TestUpdateDocument(t *testing.T) {
	mirror := newFakeMirror()
	s := newTestServer(t, mirror)
	body := []byte(`{"persons":[{"id":1,"name":"Aisha"}]}`)

	w, result := s.do(t, http.MethodPost, "/update-document", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(s.root, "data", "persons.json"), result.Path)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(data))

	assert.Equal(t, body, mirror.documents["persons.json"])
	require.Len(t, s.notifier.events, 1)
	assert.Equal(t, dto.EventDocumentUpdated, s.notifier.events[0].Type)
	assert.Equal(t, 1, s.notifier.events[0].Persons)
}

func TestUpdateDocumentLegacyPath(t *testing.T) {
	s := newTestServer(t, nil)

	w, result := s.do(t, http.MethodPost, "/api/update-persons-json", []byte(`{"persons":[]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, result.Success)
}

func TestUpdateDocumentRejectsInvalidShape(t *testing.T) {
	s := newTestServer(t, nil)

	w, result := s.do(t, http.MethodPost, "/update-document", []byte(`{"persons":"not-an-array"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid data format", result.Message)

	_, err := os.Stat(filepath.Join(s.root, "data", "persons.json"))
	assert.True(t, os.IsNotExist(err), "no file is written")
	assert.Empty(t, s.notifier.events)
}

func TestUpdateDocumentOverwrites(t *testing.T) {
	s := newTestServer(t, nil)
	first := []byte(`{"persons":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`)
	second := []byte(`{"persons":[{"id":3,"name":"C"}]}`)

	w, _ := s.do(t, http.MethodPost, "/update-document", first)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/update-document", second)
	require.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(filepath.Join(s.root, "data", "persons.json"))
	require.NoError(t, err)
	assert.JSONEq(t, string(second), string(data))
}

func TestUpdateDocumentTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	big := append([]byte(`{"persons":["`), bytes.Repeat([]byte("x"), 2<<20)...)
	big = append(big, []byte(`"]}`)...)

	w, result := s.do(t, http.MethodPost, "/update-document", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, result.Success)
}

func TestUploadImage(t *testing.T) {
	mirror := newFakeMirror()
	s := newTestServer(t, mirror)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	body, err := json.Marshal(dto.UploadImageRequest{
		Filename:     "image_1700000000000_42.png",
		EncodedImage: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
	require.NoError(t, err)

	w, result := s.do(t, http.MethodPost, "/upload-image", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, result.Success)
	assert.Equal(t, "img/image_1700000000000_42.png", result.Path)
	assert.Equal(t, filepath.Join(s.root, "img", "image_1700000000000_42.png"), result.FullPath)

	data, err := os.ReadFile(result.FullPath)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	assert.Equal(t, "image/png", mirror.images["image_1700000000000_42.png"])
	require.Len(t, s.notifier.events, 1)
	assert.Equal(t, dto.EventImageUploaded, s.notifier.events[0].Type)

	// uploaded images are served back
	req := httptest.NewRequest(http.MethodGet, "/img/image_1700000000000_42.png", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestUploadImageLegacyPath(t *testing.T) {
	s := newTestServer(t, nil)
	body := []byte(`{"filename":"image_1_2.png","imageData":"data:image/png;base64,aGVsbG8="}`)

	w, result := s.do(t, http.MethodPost, "/api/upload-image", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, result.Success)
	assert.Equal(t, "img/image_1_2.png", result.Path)

	data, err := os.ReadFile(filepath.Join(s.root, "img", "image_1_2.png"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestUploadImageTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	big := append([]byte(`{"filename":"a.png","encodedImage":"`), bytes.Repeat([]byte("A"), 2<<20)...)
	big = append(big, []byte(`"}`)...)

	w, result := s.do(t, http.MethodPost, "/upload-image", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, result.Success)

	_, err := os.Stat(filepath.Join(s.root, "img", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadImageMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	testCases := map[string]string{
		"missing filename": `{"encodedImage":"aGVsbG8="}`,
		"missing image":    `{"filename":"a.png"}`,
		"empty body":       ``,
	}
	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			w, result := s.do(t, http.MethodPost, "/upload-image", []byte(body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, result.Success)
			assert.Equal(t, "Missing filename or image data", result.Message)
		})
	}
}

func TestUploadImageRejectsTraversal(t *testing.T) {
	s := newTestServer(t, nil)

	w, result := s.do(t, http.MethodPost, "/upload-image", []byte(`{"filename":"../x.png","encodedImage":"aGVsbG8="}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid filename", result.Message)
}

func TestMirrorFailureDoesNotFailWrite(t *testing.T) {
	mirror := newFakeMirror()
	mirror.fail = true
	s := newTestServer(t, mirror)

	w, result := s.do(t, http.MethodPost, "/update-document", []byte(`{"persons":[]}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, result.Success)
}

func TestServesCanonicalDocument(t *testing.T) {
	s := newTestServer(t, nil)
	body := []byte(`{"persons":[{"id":"id_a","name":"A"}]}`)
	w, _ := s.do(t, http.MethodPost, "/update-document", body)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/data/persons.json", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(body), rec.Body.String())
}

func TestLoginStub(t *testing.T) {
	s := newTestServer(t, nil)
	w, result := s.do(t, http.MethodPost, "/login", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.False(t, result.Success)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
