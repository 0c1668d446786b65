package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"threadfinder/config"
	"threadfinder/faces"
	"threadfinder/faces/facestest"
	"threadfinder/gallery"
	"threadfinder/handlers"
	"threadfinder/processing"
	"threadfinder/storage"
)

func TestNewEngine_Unknown(t *testing.T) {
	if _, err := newEngine("opencv"); err == nil {
		t.Error("newEngine(opencv) should fail")
	}
}

func TestAnnotationTable(t *testing.T) {
	out := annotationTable([]processing.Annotation{
		{ID: "face-3", Name: "Alice Jones", Box: processing.Rect{Left: 1, Top: 2, Width: 30, Height: 40}},
	})
	for _, want := range []string{"ID", "Name", "face-3", "Alice Jones", "30", "40"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable without headers should be empty")
	}
}

func TestIdentityTable(t *testing.T) {
	out := identityTable(gallery.New(gallery.Identity{Name: "Bob", Encoding: faces.Encoding{1, 2, 3}}))
	if !strings.Contains(out, "Bob") || !strings.Contains(out, "3") {
		t.Errorf("identityTable() =\n%s", out)
	}
}

func TestNewRouter(t *testing.T) {
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>threadfinder</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	oldStatic, oldDebug := config.STATIC_DIR, config.DEBUG_MODE
	config.STATIC_DIR, config.DEBUG_MODE = staticDir, true
	t.Cleanup(func() { config.STATIC_DIR, config.DEBUG_MODE = oldStatic, oldDebug })

	store, err := storage.NewDiskStorage(&storage.Bucket{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	pool := processing.NewPool(gallery.New(), &facestest.Engine{}, 1)
	router := newRouter(handlers.New(pool, store))

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "threadfinder"},
		{"/gallery", http.StatusOK, `"count":0`},
		{"/status", http.StatusOK, `"engine":"fake"`},
		{"/history", http.StatusNotFound, "history disabled"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.body) {
			t.Errorf("GET %s = %d %q", tt.path, rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("cache-control"); got != "no-cache" {
			t.Errorf("GET %s: cache-control = %q, want no-cache", tt.path, got)
		}
	}

	if _, err = store.Save("a.png", "image/png", strings.NewReader("png")); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /uploads/a.png = %d", rec.Code)
	}
	if got := rec.Header().Get("cache-control"); got != "private, max-age=86400" {
		t.Errorf("upload cache-control = %q", got)
	}
}
