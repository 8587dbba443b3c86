package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/database"
	"github.com/hanyong5/2025book/internal/importers"
	"github.com/hanyong5/2025book/internal/services"
	"github.com/hanyong5/2025book/internal/storage"
)

const testStorageRoot = "https://cdn.example.com"

const testManifest = `{
  "title": "The Moon Rabbit",
  "author": "Anonymous",
  "cover": "book-covers/moon-rabbit.jpg",
  "pages": [
    {"page_no": 1, "image": "books/1/page1.jpg", "captions": {"sentences": [
      {"s": 0, "e": 2, "text": "Once upon a time", "sound": "p1_s1.mp3"},
      {"s": 1.5, "e": 3, "text": "there was a rabbit"}
    ]}},
    {"page_no": 2, "image_clean": "books/1/page2_clean.jpg", "captions": null}
  ]
}`

// testEnv wires a router over a real SQLite database.
type testEnv struct {
	db       *database.Database
	pipeline *importers.Pipeline
	cfg      RouterConfig
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pipeline := importers.NewPipeline(services.NewImportService(db, nil))
	return &testEnv{
		db:       db,
		pipeline: pipeline,
		cfg: RouterConfig{
			Store:    db,
			Resolver: storage.NewResolver(testStorageRoot, "", ""),
			Health:   db,
			Importer: pipeline,
			Version:  "test",
		},
	}
}

func (e *testEnv) importManifest(t *testing.T, manifest string) uint {
	t.Helper()
	result, err := e.pipeline.Import([]byte(manifest))
	require.NoError(t, err)
	return result.BookID
}

func (e *testEnv) router() *gin.Engine {
	return NewRouter(e.cfg)
}

func doRequest(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
