package fileserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func staticDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"app.js":          "console.log(1)",
		"app.js.gz":       "GZIPPED",
		"css/site.css":    "body{}",
		"css/site.css.br": "BROTLI",
		"img/logo.svg":    "<svg/>",
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestHandler(t *testing.T) {
	h := Handler("/static", staticDir(t), Options{})

	tests := []struct {
		name       string
		method     string
		target     string
		accept     string
		wantStatus int
		wantBody   string
		wantEnc    string
		wantType   string
	}{
		{"plain file ignores q", http.MethodGet, "/static/img/logo.svg?q=abcde", "", 200, "<svg/>", "", "image/svg+xml"},
		{"gzip variant", http.MethodGet, "/static/app.js?q=12345", "gzip, deflate", 200, "GZIPPED", "gzip", "javascript"},
		{"brotli preferred", http.MethodGet, "/static/css/site.css", "gzip, br", 200, "BROTLI", "br", "text/css"},
		{"no accepted encoding", http.MethodGet, "/static/app.js", "", 200, "console.log(1)", "", "javascript"},
		{"missing file", http.MethodGet, "/static/missing.js?q=", "", 404, "", "", ""},
		{"directory hidden", http.MethodGet, "/static/css/", "", 404, "", "", ""},
		{"post rejected", http.MethodPost, "/static/app.js", "", 405, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != 200 {
				return
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.wantEnc {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.wantEnc)
			}
			if got := rec.Header().Get("Content-Type"); !strings.Contains(got, tt.wantType) {
				t.Errorf("Content-Type = %q, want it to contain %q", got, tt.wantType)
			}
		})
	}
}

func TestHandler_DisablePrecompressed(t *testing.T) {
	h := Handler("/static", staticDir(t), Options{DisablePrecompressed: true})

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "console.log(1)" {
		t.Errorf("body = %q, want uncompressed file", rec.Body.String())
	}
}

func TestHandler_CustomNotFound(t *testing.T) {
	var seen []string
	h := Handler("/static", staticDir(t), Options{
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			w.WriteHeader(http.StatusGone)
		}),
	})

	for _, target := range []string{"/static/missing.js?q=abcde", "/static/css/", "/elsewhere"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusGone {
			t.Errorf("GET %s = %d, want custom handler", target, rec.Code)
		}
	}
	want := []string{"/static/missing.js", "/static/css/", "/elsewhere"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("NotFound saw %v, want %v", seen, want)
	}
}

func TestAcceptsEncoding(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip;q=1.0, BR;q=0.5")
	if !acceptsEncoding(req, "gzip") || !acceptsEncoding(req, "br") {
		t.Error("expected gzip and br to be accepted")
	}
	if acceptsEncoding(req, "zstd") {
		t.Error("zstd should not be accepted")
	}
}
