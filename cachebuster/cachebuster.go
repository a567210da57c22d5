// Package cachebuster fingerprints static assets by content and adds the
// fingerprint to every generated static URL as the "q" query parameter.
//
// The fingerprint map is computed once, when the cache buster is attached to
// a host, by walking the host's static folder. After that every URL built for
// the "static" endpoint gets ?q=<fingerprint>, so assets can be served with
// long-lived cache headers while browsers still pick up changed files.
//
// Typical wiring:
//
//	cb, err := cachebuster.New(app, map[string]any{
//	    "extensions": []string{".css", ".js"},
//	    "hash_size":  10,
//	})
//	if err != nil {
//	    return err // startup must fail
//	}
//
// or, when the host is created later:
//
//	cb, _ := cachebuster.New(nil, opts)
//	...
//	if err := cb.InitApp(app, nil); err != nil { ... }
package cachebuster

import (
	"fmt"
	"time"

	"github.com/dalemusser/cachebuster/metrics"
	"github.com/dalemusser/cachebuster/urlgen"
	"go.uber.org/zap"
)

// QueryParam is the query parameter that carries the fingerprint.
const QueryParam = "q"

// FilenameParam is the static endpoint's value naming the requested file.
const FilenameParam = "filename"

// Host is what the cache buster needs from the web application.
type Host interface {
	// StaticFolder is the directory static assets are served from.
	StaticFolder() string

	// URLDefaults registers a hook that runs for every generated URL.
	URLDefaults(fn urlgen.DefaultsFunc)

	// Logger may return nil.
	Logger() *zap.Logger
}

// CacheBuster owns the fingerprint map of one host.
type CacheBuster struct {
	cfg     Config
	bustMap *Map
}

// New validates opts and, when host is non-nil, attaches to it right away.
// opts may be nil, a Config, a *Config or a key-value mapping; see ParseConfig.
func New(host Host, opts any) (*CacheBuster, error) {
	cfg, err := ParseConfig(opts)
	if err != nil {
		return nil, err
	}

	cb := &CacheBuster{cfg: cfg}
	if host != nil {
		if err := cb.InitApp(host, nil); err != nil {
			return nil, err
		}
	}
	return cb, nil
}

// InitApp computes the fingerprint map for host's static folder and registers
// the URL hook. Non-nil opts replace the configuration given to New.
//
// Any error leaves host untouched: no hook is registered.
func (cb *CacheBuster) InitApp(host Host, opts any) error {
	if host == nil {
		return fmt.Errorf("cachebuster: InitApp: host is nil")
	}
	cfg := cb.cfg
	if opts != nil {
		parsed, err := ParseConfig(opts)
		if err != nil {
			return err
		}
		cfg = parsed
	}
	cfg.normalize()

	logger := host.Logger()
	if logger == nil {
		logger = zap.NewNop()
	}

	root := host.StaticFolder()
	logger.Debug("computing hashes for static assets",
		zap.String("static_folder", root),
		zap.Strings("extensions", cfg.Extensions),
		zap.Int("hash_size", cfg.HashSize),
		zap.String("hash_algorithm", cfg.HashAlgorithm),
	)

	start := time.Now()
	m, err := buildMap(root, cfg, func(rel, fp string) {
		logger.Debug("computed hash", zap.String("file", rel), zap.String("fingerprint", fp))
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	cb.cfg = cfg
	cb.bustMap = m
	metrics.ObserveFingerprintBuild(m.Len(), elapsed)
	logger.Debug("hashes generated for all static assets",
		zap.Int("files", m.Len()),
		zap.Duration("elapsed", elapsed),
	)

	host.URLDefaults(newHook(m))
	return nil
}

// Config returns the active configuration.
func (cb *CacheBuster) Config() Config {
	return cb.cfg
}

// Map returns the fingerprint map, or nil before InitApp succeeded.
func (cb *CacheBuster) Map() *Map {
	return cb.bustMap
}

// Fingerprint returns the fingerprint for a static file, or "".
func (cb *CacheBuster) Fingerprint(filename string) string {
	return cb.bustMap.Lookup(filename)
}

// newHook returns the URL defaults hook bound to m. It only touches the
// static endpoint, and only by setting the q value.
func newHook(m *Map) urlgen.DefaultsFunc {
	return func(endpoint string, values map[string]string) {
		if endpoint != urlgen.StaticEndpoint {
			return
		}
		values[QueryParam] = m.Lookup(values[FilenameParam])
	}
}
