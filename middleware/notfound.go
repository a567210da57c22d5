// middleware/notfound.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/dalemusser/cachebuster/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler answers 404s. Misses under staticPrefix are marked
// no-store so a cache in front of the host never pins a 404 to a
// fingerprinted URL; the asset may appear with the next deploy. They are
// logged at debug since crawlers hit stale asset paths constantly.
func NotFoundHandler(logger *zap.Logger, staticPrefix string) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if isStatic(r.URL.Path, staticPrefix) {
			logger.Debug("static_not_found",
				zap.String("path", r.URL.Path),
				zap.String("fingerprint", r.URL.Query().Get("q")),
			)
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		logger.Info("not_found",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
		)
		httputil.JSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	}
}

// MethodNotAllowedHandler answers 405s with the methods this host serves.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("method_not_allowed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		w.Header().Set("Allow", "GET, HEAD")
		httputil.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET and HEAD are supported")
	}
}

func isStatic(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
