// templates/render.go
package templates

import (
	"bytes"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// Parse builds a named template set from source with Funcs(urls) installed.
func Parse(name, src string, urls URLBuilder) (*template.Template, error) {
	return template.New(name).Funcs(Funcs(urls)).Parse(src)
}

// Render executes tmpl into a buffer first so a failing template (for
// example an unknown url_for endpoint) produces a clean 500 instead of a
// half-written page.
func Render(w http.ResponseWriter, logger *zap.Logger, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		if logger != nil {
			logger.Error("template render failed", zap.String("name", tmpl.Name()), zap.Error(err))
		}
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
