// Package urlgen builds URLs for named endpoints.
//
// Endpoints are registered once at startup with a path pattern such as
// "/static/{filename}". Callers then ask for a URL by endpoint name and a set
// of values; values matching a placeholder are substituted into the path and
// the rest are rendered as the query string.
//
// Defaults hooks run before every URL is built and may add or change values
// for the endpoint being generated. This is the extension point other
// packages (for example cachebuster) use to decorate URLs.
//
// Example:
//
//	b := urlgen.New()
//	b.Register(urlgen.StaticEndpoint, "/static/{filename}")
//	u, _ := b.URLFor(urlgen.StaticEndpoint, map[string]string{"filename": "css/app.css"})
//	// u == "/static/css/app.css"
package urlgen

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// StaticEndpoint is the reserved endpoint name for static assets.
const StaticEndpoint = "static"

var (
	// ErrUnknownEndpoint is returned when URLFor is called for an endpoint
	// that was never registered.
	ErrUnknownEndpoint = errors.New("urlgen: unknown endpoint")

	// ErrMissingParam is returned when a placeholder in the endpoint pattern
	// has no value.
	ErrMissingParam = errors.New("urlgen: missing path parameter")
)

// DefaultsFunc is called for every URL generation with the endpoint name and
// a private copy of the values. It may mutate values in place.
type DefaultsFunc func(endpoint string, values map[string]string)

// Builder holds named endpoints and the defaults hooks applied to them.
// Register and Defaults are meant to be called during setup; URLFor is safe
// for concurrent use.
type Builder struct {
	mu        sync.RWMutex
	endpoints map[string]pattern
	defaults  []DefaultsFunc
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{endpoints: make(map[string]pattern)}
}

// Register adds (or replaces) the pattern for a named endpoint.
// Placeholders are written as {name}.
func (b *Builder) Register(endpoint, path string) error {
	p, err := parsePattern(path)
	if err != nil {
		return fmt.Errorf("register %q: %w", endpoint, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoints[endpoint] = p
	return nil
}

// Defaults appends a hook that runs before every URL is built.
// Hooks run in registration order.
func (b *Builder) Defaults(fn DefaultsFunc) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaults = append(b.defaults, fn)
}

// Has reports whether endpoint is registered.
func (b *Builder) Has(endpoint string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.endpoints[endpoint]
	return ok
}

// URLFor builds the URL for endpoint. The caller's map is never modified.
func (b *Builder) URLFor(endpoint string, values map[string]string) (string, error) {
	b.mu.RLock()
	p, ok := b.endpoints[endpoint]
	hooks := b.defaults
	b.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}

	vals := make(map[string]string, len(values)+1)
	for k, v := range values {
		vals[k] = v
	}
	for _, fn := range hooks {
		fn(endpoint, vals)
	}

	return p.build(vals)
}

// pattern is a parsed endpoint path: literal text interleaved with
// placeholder names.
type pattern struct {
	parts  []string // literal, param, literal, param, ..., literal
	params map[string]struct{}
}

func parsePattern(path string) (pattern, error) {
	if !strings.HasPrefix(path, "/") {
		return pattern{}, fmt.Errorf("pattern %q must start with /", path)
	}
	p := pattern{params: make(map[string]struct{})}
	rest := path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			p.parts = append(p.parts, rest)
			return p, nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return pattern{}, fmt.Errorf("pattern %q has unclosed placeholder", path)
		}
		name := rest[open+1 : open+end]
		if name == "" {
			return pattern{}, fmt.Errorf("pattern %q has empty placeholder", path)
		}
		p.parts = append(p.parts, rest[:open], name)
		p.params[name] = struct{}{}
		rest = rest[open+end+1:]
	}
}

func (p pattern) build(vals map[string]string) (string, error) {
	var sb strings.Builder
	for i, part := range p.parts {
		if i%2 == 0 {
			sb.WriteString(part)
			continue
		}
		v, ok := vals[part]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %q", ErrMissingParam, part)
		}
		sb.WriteString(escapePath(v))
	}

	query := url.Values{}
	for k, v := range vals {
		if _, isParam := p.params[k]; isParam {
			continue
		}
		query.Set(k, v)
	}
	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query.Encode())
	}
	return sb.String(), nil
}

// escapePath escapes each segment of a slash-separated value so nested
// asset paths keep their directory structure.
func escapePath(v string) string {
	segs := strings.Split(strings.TrimPrefix(v, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
