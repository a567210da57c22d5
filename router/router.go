// router/router.go
package router

import (
	"github.com/dalemusser/cachebuster/config"
	"github.com/dalemusser/cachebuster/fileserver"
	"github.com/dalemusser/cachebuster/logging"
	"github.com/dalemusser/cachebuster/metrics"
	"github.com/dalemusser/cachebuster/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router pre-wired with the standard middleware stack:
// - RequestID
// - RealIP
// - Recoverer (panic → 500)
// - metrics HTTP middleware
// - request logging (static assets at debug)
// - CORS and compression, when enabled in config
// - NotFound / MethodNotAllowed handlers (static misses are no-store)
//
// It also mounts the static folder at StaticURLPath. Pages, health and
// metrics routes are left to the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Request context & safety
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger, coreCfg.Static.StaticURLPath))

	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))

	prefix := coreCfg.Static.StaticURLPath
	notFound := middleware.NotFoundHandler(logger, prefix)
	r.NotFound(notFound)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	r.Handle(prefix+"/*", fileserver.Handler(prefix, coreCfg.Static.StaticDir, fileserver.Options{
		DisablePrecompressed: !coreCfg.Static.StaticPrecompressed,
		NotFound:             notFound,
	}))

	return r
}
