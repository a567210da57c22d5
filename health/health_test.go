package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func serve(t *testing.T, h http.Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, resp
}

func TestHandler(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		want       Response
	}{
		{"no checks", nil, 200, Response{Status: "ok"}},
		{
			"static ok",
			map[string]Check{"static_folder": StaticFolderCheck(dir), "noop": nil},
			200,
			Response{Status: "ok", Checks: map[string]string{"static_folder": "ok", "noop": "ok"}},
		},
		{
			"one failing",
			map[string]Check{
				"static_folder": StaticFolderCheck(dir),
				"assets":        func(context.Context) error { return errors.New("no fingerprints") },
			},
			503,
			Response{Status: "error", Checks: map[string]string{"static_folder": "ok", "assets": "error: no fingerprints"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serve(t, Handler(tt.checks, nil))
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			if resp.Status != tt.want.Status || len(resp.Checks) != len(tt.want.Checks) {
				t.Fatalf("resp = %+v, want %+v", resp, tt.want)
			}
			for k, v := range tt.want.Checks {
				if resp.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}

func TestStaticFolderCheck_Missing(t *testing.T) {
	check := StaticFolderCheck(filepath.Join(t.TempDir(), "gone"))
	if err := check(context.Background()); err == nil {
		t.Error("check passed for missing folder")
	}
}
