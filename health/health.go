// Package health exposes a JSON readiness endpoint.
package health

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"

	"github.com/dalemusser/cachebuster/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check represents a single health probe. It returns nil when healthy.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.Handler that runs checks on each request.
// With no checks it answers {"status":"ok"}. Any failing check turns the
// response into a 503 with per-check results.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		results := make(map[string]string, len(checks))
		failed := false
		for _, name := range names {
			check := checks[name]
			if check == nil {
				results[name] = "ok"
				continue
			}
			if err := check(r.Context()); err != nil {
				failed = true
				results[name] = "error: " + err.Error()
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			results[name] = "ok"
		}

		if failed {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

// Mount attaches the handler at path (e.g. "/healthz") on r.
func Mount(r chi.Router, path string, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, path, Handler(checks, logger))
}

// StaticFolderCheck fails when dir is no longer a readable directory, e.g.
// after a deploy removed it from under a running process.
func StaticFolderCheck(dir string) Check {
	return func(ctx context.Context) error {
		fi, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return errors.New("static folder is not a directory")
		}
		return nil
	}
}
