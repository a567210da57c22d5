// templates/funcs.go
package templates

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/dalemusser/cachebuster/urlgen"
)

// URLBuilder is the part of urlgen.Builder templates need.
type URLBuilder interface {
	URLFor(endpoint string, values map[string]string) (string, error)
}

// Funcs returns helpers available to all templates. URL helpers go through
// urls, so registered defaults hooks (such as the cache buster's) apply to
// template-rendered links too.
func Funcs(urls URLBuilder) template.FuncMap {
	return template.FuncMap{
		// {{ static "css/app.css" }} → "/static/css/app.css?q=1a2b3"
		"static": func(filename string) (string, error) {
			return urls.URLFor(urlgen.StaticEndpoint, map[string]string{"filename": filename})
		},
		// {{ url_for "user" "id" .ID }}
		"url_for": func(endpoint string, kv ...string) (string, error) {
			values, err := pairs(kv)
			if err != nil {
				return "", fmt.Errorf("url_for %q: %w", endpoint, err)
			}
			return urls.URLFor(endpoint, values)
		},

		// {{ "a b" | urlquery }} → "a+b"
		"urlquery": url.QueryEscape,
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
	}
}

func pairs(kv []string) (map[string]string, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("odd number of key/value arguments (%d)", len(kv))
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m, nil
}
