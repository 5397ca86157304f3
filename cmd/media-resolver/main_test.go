package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-resolver/internal/database"
	"media-resolver/internal/fetcher"
	"media-resolver/internal/handlers"
	"media-resolver/internal/indexer"
	"media-resolver/internal/media"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/resolver"
	"media-resolver/internal/startup"
	"media-resolver/internal/testutil"
)

type testServer struct {
	library string
	indexer *indexer.Indexer
	handler *handlers.Handlers
	http    http.Handler
}

// newTestServer wires the real catalog, indexer and pipeline over a
// temporary library holding one 400x300 JPEG tagged with EXIF orientation 6.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	library := t.TempDir()
	jpeg := testutil.WithEXIFOrientation(t, testutil.EncodeJPEG(t, testutil.Gradient(400, 300)), 6)
	if err := os.WriteFile(filepath.Join(library, "photo.jpg"), jpeg, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	db, err := database.New(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	idx := indexer.New(db, library, 0)
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	store := database.NewMediaStore(db, nil, "")
	p := pipeline.New(resolver.New(store), fetcher.New(store), media.NewStdDecoder(media.DefaultMaxPixels),
		pipeline.WithAllowedRoots(library))

	config := &startup.Config{MaxWidth: 200, MaxHeight: 200, JPEGQuality: 85, Normalize: true, LogHealthChecks: false}
	h := handlers.New(p, db, idx, config)
	return &testServer{
		library: library,
		indexer: idx,
		handler: h,
		http:    wrapHandler(setupRouter(h), config),
	}
}

func TestSetupRouterRoutes(t *testing.T) {
	s := newTestServer(t)
	routes, err := startup.GetRoutes(setupRouter(s.handler))
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	have := make(map[string]bool)
	for _, r := range routes {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /healthz",
		"HEAD /livez",
		"GET /readyz",
		"GET /version",
		"GET /api/assets",
		"POST /api/assets/metadata",
		"GET /api/assets/blob",
		"POST /api/assets/blob",
		"POST /api/assets/batch",
		"GET /api/assets/{id}",
		"GET /api/stats",
		"POST /api/reindex",
	} {
		if !have[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestMetadataEndToEnd(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(s.library, "photo.jpg")

	body, _ := json.Marshal(map[string]any{"uri": path})
	req := httptest.NewRequest(http.MethodPost, "/api/assets/metadata", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	md := res.Metadata
	if md.Identifier != indexer.IdentifierForPath(path) {
		t.Errorf("Identifier = %q, want catalog id", md.Identifier)
	}
	// 400x300 stored, rotated 90° is 300x400 logical, fitted into 200x200.
	if md.Width != 150 || md.Height != 200 {
		t.Errorf("dimensions = %dx%d, want 150x200", md.Width, md.Height)
	}
	if md.Orientation.EXIF() != 1 || !res.Transformed {
		t.Errorf("orientation = %v, transformed = %v", md.Orientation, res.Transformed)
	}
}

func TestBlobEndToEnd(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(s.library, "photo.jpg")

	req := httptest.NewRequest(http.MethodGet, "/api/assets/blob?maxWidth=0&normalize=false&uri="+path, nil)
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	original, _ := os.ReadFile(path)
	if !bytes.Equal(rec.Body.Bytes(), original) {
		t.Error("untransformed blob differs from the library file")
	}
	if rec.Header().Get("X-Asset-Orientation") != "6" || rec.Header().Get("X-Asset-Width") != "300" {
		t.Errorf("headers = %v", rec.Header())
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Error("image bytes were compressed")
	}
}

func TestUnknownAssetIs404(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/assets/metadata", strings.NewReader(`{"info":{"assetIdentifier":"nope"}}`))
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body %s)", rec.Code, rec.Body)
	}
}

func TestBlobRefusesPathsOutsideLibrary(t *testing.T) {
	s := newTestServer(t)

	secret := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(secret, []byte("do not serve"), 0o600); err != nil {
		t.Fatal(err)
	}
	escape, err := filepath.Rel(s.library, secret)
	if err != nil {
		t.Fatal(err)
	}

	for _, uri := range []string{
		"/etc/passwd",
		"file:///etc/hostname",
		secret,
		s.library + string(filepath.Separator) + escape,
	} {
		t.Run(uri, func(t *testing.T) {
			for _, endpoint := range []string{"/api/assets/blob", "/api/assets/metadata"} {
				req := httptest.NewRequest(http.MethodGet, endpoint+"?uri="+url.QueryEscape(uri), nil)
				rec := httptest.NewRecorder()
				s.http.ServeHTTP(rec, req)

				if rec.Code != http.StatusForbidden {
					t.Errorf("%s status = %d, want 403 (body %s)", endpoint, rec.Code, rec.Body)
				}
				if strings.Contains(rec.Body.String(), "do not serve") || strings.Contains(rec.Body.String(), "root:") {
					t.Errorf("%s leaked file contents: %s", endpoint, rec.Body)
				}
			}
		})
	}
}

func TestCatalogListingIsCompressed(t *testing.T) {
	s := newTestServer(t)

	// Enough rows to cross the compression threshold.
	for i := 0; i < 20; i++ {
		name := filepath.Join(s.library, strings.Repeat("x", i+1)+".jpg")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := s.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("listing not compressed (%d bytes)", rec.Body.Len())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var page struct {
		Items []database.Asset `json:"items"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 21 {
		t.Errorf("listed %d assets, want 21", len(page.Items))
	}
}

func TestMetricsRouter(t *testing.T) {
	s := newTestServer(t)
	r := setupMetricsRouter(s.handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "media_resolver_") {
		t.Errorf("/metrics = %d, missing media_resolver_ series", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
}
