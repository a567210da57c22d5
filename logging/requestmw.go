// logging/requestmw.go
package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger returns a middleware that logs HTTP requests with method, path,
// status, bytes, latency, remote IP, user agent, referer, and request ID.
//
// Requests under staticPrefix (e.g. "/static") are logged at debug level with
// the fingerprint they asked for, so asset traffic does not drown page logs.
// An empty staticPrefix logs everything at info.
func RequestLogger(logger *zap.Logger, staticPrefix string) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staticPrefix != "" {
		staticPrefix = strings.TrimRight(staticPrefix, "/") + "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("host", r.Host),
				zap.String("scheme", schemeFromRequest(r)),
				zap.String("proto", r.Proto),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("remote_ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.String("referer", r.Referer()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}

			if staticPrefix != "" && strings.HasPrefix(r.URL.Path, staticPrefix) {
				fields = append(fields, zap.String("fingerprint", r.URL.Query().Get("q")))
				logger.Debug("static_request", fields...)
				return
			}
			logger.Info("http_request", fields...)
		})
	}
}

func schemeFromRequest(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		return xf
	}
	return "http"
}
