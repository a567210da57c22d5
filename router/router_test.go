package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/cachebuster/config"
	"go.uber.org/zap"
)

func TestNew_ServesStaticFolder(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("ok()"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.CoreConfig{
		Static: config.StaticConfig{StaticDir: dir, StaticURLPath: "/assets"},
	}
	r := New(cfg, zap.NewNop())

	tests := []struct {
		target string
		want   int
	}{
		{"/assets/js/app.js?q=abcde", http.StatusOK},
		{"/assets/js/missing.js", http.StatusNotFound},
		{"/elsewhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.target, rec.Code, tt.want)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/js/app.js", nil))
	if rec.Body.String() != "ok()" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestNew_NotFoundCaching(t *testing.T) {
	cfg := &config.CoreConfig{
		Static: config.StaticConfig{StaticDir: t.TempDir(), StaticURLPath: "/static"},
	}
	r := New(cfg, zap.NewNop())

	tests := []struct {
		target      string
		wantNoStore bool
	}{
		{"/static/js/gone.js?q=abcde", true},
		{"/nowhere", false},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", tt.target, rec.Code)
		}
		if got := rec.Header().Get("Cache-Control") == "no-store"; got != tt.wantNoStore {
			t.Errorf("GET %s Cache-Control = %q", tt.target, rec.Header().Get("Cache-Control"))
		}
	}
}
