// middleware/compress.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/cachebuster/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing on the fly.
// Images and fonts are already compressed.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig returns a compression middleware based on the CoreConfig.
//
// If coreCfg.EnableCompression is false, it returns an identity middleware.
// Responses already carrying Content-Encoding (pre-compressed static files)
// are passed through untouched by chi's compressor.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	level := coreCfg.CompressionLevel
	if level < 1 || level > 9 {
		// config.validateCoreConfig rejects this; reaching here is a bug.
		panic(fmt.Sprintf("middleware: invalid compression level %d", level))
	}
	return middleware.Compress(level, compressibleTypes...)
}
