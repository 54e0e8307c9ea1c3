package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/reconnect/internal/models"
	"github.com/your-org/reconnect/pkg/dto"
)

type memoryCache struct {
	mu        sync.Mutex
	documents []models.Document
	images    map[string]string
	paths     map[string]string
	records   []models.PersonRecord
}

func newMemoryCache() *memoryCache {
	return &memoryCache{images: map[string]string{}, paths: map[string]string{}}
}

func (m *memoryCache) PutDocument(_ context.Context, doc models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, doc)
	return nil
}

func (m *memoryCache) PutImage(_ context.Context, filename, dataURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[filename] = dataURI
	return nil
}

func (m *memoryCache) PutImagePath(_ context.Context, filename, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[filename] = path
	return nil
}

func (m *memoryCache) Records(context.Context) ([]models.PersonRecord, bool, error) {
	return m.records, m.records != nil, nil
}

type recordingRecovery struct {
	calls  int
	doc    models.Document
	cause  error
	accept bool
}

func (r *recordingRecovery) Recover(_ context.Context, doc models.Document, cause error) (bool, error) {
	r.calls++
	r.doc = doc
	r.cause = cause
	return r.accept, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func embeddedRecord() models.PersonRecord {
	return models.PersonRecord{
		ID:       models.StringID("id_abc"),
		Name:     "Omar",
		Age:      9,
		Category: models.CategorySeparated,
		Location: "Cairo, Egypt",
		PhotoURL: "data:image/png;base64,AAAA",
	}
}

func TestPersistCommitted(t *testing.T) {
	var got models.Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/update-document", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, dto.Result{Success: true, Message: "persons.json updated successfully", Path: "/srv/data/persons.json"})
	}))
	defer srv.Close()

	cache := newMemoryCache()
	recovery := &recordingRecovery{}
	p := NewPersister(New(srv.URL), WithDocumentCache(cache), WithRecovery(recovery))

	out := p.Persist(context.Background(), append(models.DemoRecords(), embeddedRecord()))
	require.True(t, out.Committed(), "err: %v", out.Err)
	assert.Equal(t, "/srv/data/persons.json", out.Path)
	assert.Zero(t, recovery.calls)

	require.Len(t, got.Persons, 2)
	assert.Equal(t, models.PlaceholderPhoto, got.Persons[1].PhotoURL, "embedded photos never reach the server")
	assert.Equal(t, "Cairo, Egypt", got.Persons[1].LastLocation)
	require.Len(t, cache.documents, 1)
	assert.Equal(t, got, cache.documents[0])
}

func TestPersistServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, dto.Result{
			Success: false, Message: "Data directory is not writable", Path: "/srv/data",
		})
	}))
	defer srv.Close()

	recovery := &recordingRecovery{accept: true}
	p := NewPersister(New(srv.URL), WithRecovery(recovery))

	out := p.Persist(context.Background(), models.DemoRecords())
	assert.Equal(t, models.OutcomeFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrRejected)
	assert.Equal(t, "Data directory is not writable", out.Message)
	assert.True(t, out.Recovered)
	assert.Equal(t, 1, recovery.calls)
	assert.Len(t, recovery.doc.Persons, 1)
}

func TestPersistSuccessFalseWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.Result{Success: false, Message: "nope"})
	}))
	defer srv.Close()

	out := NewPersister(New(srv.URL)).Persist(context.Background(), nil)
	assert.Equal(t, models.OutcomeFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrRejected)
	assert.False(t, out.Recovered)
}

func TestPersistServerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	recovery := &recordingRecovery{}
	p := NewPersister(New(url), WithRecovery(recovery))

	out := p.Persist(context.Background(), models.DemoRecords())
	assert.Equal(t, models.OutcomeFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrUnavailable)
	assert.Equal(t, 1, recovery.calls)
	assert.False(t, out.Recovered)
}

func TestPersistDoesNotRetry(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		writeJSON(w, http.StatusServiceUnavailable, dto.Result{Success: false, Message: "busy"})
	}))
	defer srv.Close()

	NewPersister(New(srv.URL)).Persist(context.Background(), models.DemoRecords())
	assert.Equal(t, 1, requests)
}

func TestUploadImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	var req dto.UploadImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-image", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusOK, dto.Result{Success: true, Path: "img/" + req.Filename})
	}))
	defer srv.Close()

	cache := newMemoryCache()
	u := NewUploader(New(srv.URL), cache)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }

	up, err := u.Upload(context.Background(), "holiday.photo.png", png)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^image_1700000000000_\d{1,4}\.png$`), up.Filename)
	assert.Equal(t, "img/"+up.Filename, up.Path)
	assert.Equal(t, up.Filename, req.Filename)
	assert.True(t, strings.HasPrefix(req.EncodedImage, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(req.EncodedImage, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, png, raw)

	assert.Equal(t, req.EncodedImage, cache.images[up.Filename])
	assert.Equal(t, up.Path, cache.paths[up.Filename])
}

func TestUploadFailureKeepsPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, dto.Result{Success: false, Message: "Missing filename or image data"})
	}))
	defer srv.Close()

	cache := newMemoryCache()
	u := NewUploader(New(srv.URL), cache)

	_, err := u.Upload(context.Background(), "a.jpg", []byte("jpeg-ish"))
	assert.ErrorIs(t, err, ErrRejected)
	assert.Len(t, cache.images, 1)
	assert.Empty(t, cache.paths)

	assert.Equal(t, models.PlaceholderPhoto, u.PhotoURL(context.Background(), "a.jpg", []byte("jpeg-ish")))
}

func TestGenerateImageName(t *testing.T) {
	now := time.UnixMilli(42)
	assert.Regexp(t, `^image_42_\d+\.jpeg$`, GenerateImageName("x.jpeg", now))
	assert.Regexp(t, `^image_42_\d+\.img$`, GenerateImageName("noext", now))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[GenerateImageName("x.png", time.Now())] = true
	}
	assert.Greater(t, len(seen), 1)
}

// registryServer serves /status naming docURL and answers docURL with body
// and code. An empty body means 404.
func registryServer(t *testing.T, docURL string, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok", DocumentURL: docURL})
		case docURL:
			if body == "" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, _ = w.Write([]byte(body))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadRecordsHierarchy(t *testing.T) {
	ctx := context.Background()
	cached := newMemoryCache()
	cached.records = []models.PersonRecord{{ID: models.StringID("id_c"), Name: "Cached"}}

	srv := registryServer(t, "/records/registry.json", http.StatusOK, `{"persons":[{"id":7,"name":"Server","age":"unknown"}]}`)
	records, src, err := LoadRecords(ctx, New(srv.URL), cached)
	require.NoError(t, err)
	assert.Equal(t, SourceServer, src)
	require.Len(t, records, 1)
	assert.Equal(t, "Server", records[0].Name)
	assert.Equal(t, models.Age(0), records[0].Age)

	empty := registryServer(t, "/data/persons.json", http.StatusOK, "")
	records, src, err = LoadRecords(ctx, New(empty.URL), cached)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Equal(t, "Cached", records[0].Name)

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()
	records, src, err = LoadRecords(ctx, New(downURL), newMemoryCache())
	require.NoError(t, err)
	assert.Equal(t, SourceDemo, src)
	assert.Equal(t, models.DemoRecords(), records)
}

func TestLoadRecordsRefusesUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	cached := newMemoryCache()
	cached.records = []models.PersonRecord{{ID: models.StringID("id_c"), Name: "Cached"}}

	testCases := map[string]struct {
		code int
		body string
		want error
	}{
		"not json":         {http.StatusOK, `<html>oops</html>`, ErrMalformedDocument},
		"no persons array": {http.StatusOK, `{"people":[]}`, ErrMalformedDocument},
		"server error":     {http.StatusInternalServerError, `{"success":false}`, ErrRejected},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := registryServer(t, "/data/persons.json", tc.code, tc.body)
			records, _, err := LoadRecords(ctx, New(srv.URL), cached)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, records, "no fallback set is offered for a document that exists")
		})
	}
}

func TestLoadDocumentDefaultsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
		case "/data/persons.json":
			writeJSON(w, http.StatusOK, models.NewDocument(models.DemoRecords()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	doc, err := New(srv.URL).LoadDocument(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Persons, 1)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok", ProjectRoot: "/srv"})
	}))
	defer srv.Close()

	st, err := New(srv.URL + "/").Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/srv", st.ProjectRoot)
}

func TestClipboardFallback(t *testing.T) {
	doc := models.NewDocument(models.DemoRecords())

	t.Run("accepted", func(t *testing.T) {
		var out bytes.Buffer
		var copied string
		f := NewClipboardFallback(strings.NewReader("y\n"), &out, "/srv/data/persons.json")
		f.copy = func(s string) error { copied = s; return nil }

		ok, err := f.Recover(context.Background(), doc, ErrUnavailable)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, out.String(), "/srv/data/persons.json")
		assert.Contains(t, copied, `"persons"`)
	})

	t.Run("declined", func(t *testing.T) {
		var out bytes.Buffer
		f := NewClipboardFallback(strings.NewReader("\n"), &out, "persons.json")
		f.copy = func(string) error { t.Fatal("copy must not run"); return nil }

		ok, err := f.Recover(context.Background(), doc, ErrUnavailable)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, out.String(), "Aisha Patel", "the document is always printed")
	})

	t.Run("clipboard unavailable", func(t *testing.T) {
		var out bytes.Buffer
		f := NewClipboardFallback(strings.NewReader("yes\n"), &out, "persons.json")
		f.copy = func(string) error { return errors.New("no clipboard utility") }

		ok, err := f.Recover(context.Background(), doc, ErrUnavailable)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
