// cmd/cachebuster/main.go
//
// cachebuster serves a static folder with fingerprinted URLs. The index page
// renders links through the "static" template helper, so every asset URL
// carries ?q=<hash> and can be cached indefinitely by browsers and CDNs.
package main

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/dalemusser/cachebuster/app"
	"github.com/dalemusser/cachebuster/cachebuster"
	"github.com/dalemusser/cachebuster/config"
	"github.com/dalemusser/cachebuster/health"
	"github.com/dalemusser/cachebuster/metrics"
	"github.com/dalemusser/cachebuster/router"
	"github.com/dalemusser/cachebuster/templates"
	"github.com/dalemusser/cachebuster/version"
	"go.uber.org/zap"
)

const indexSrc = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ .Name }}</title>
{{- range .Styles }}
  <link rel="stylesheet" href="{{ static . }}">
{{- end }}
</head>
<body>
  <h1>{{ .Name }}</h1>
  <ul>
{{- range .Entries }}
    <li><a href="{{ static .Path }}">{{ .Path }}</a> <code>{{ .Fingerprint }}</code></li>
{{- end }}
  </ul>
{{- range .Scripts }}
  <script src="{{ static . }}"></script>
{{- end }}
</body>
</html>
`

type indexData struct {
	Name    string
	Styles  []string
	Scripts []string
	Entries []cachebuster.Entry
}

func main() {
	var s site
	err := app.Run(context.Background(), app.Hooks{
		Name:         "cachebuster",
		LoadConfig:   config.Load,
		Init:         s.init,
		BuildHandler: s.handler,
	})
	if err != nil {
		os.Exit(1)
	}
}

// site wires the cache buster into the demo application.
type site struct {
	cb *cachebuster.CacheBuster
}

func (s *site) init(a *app.App) error {
	if !a.Config.Bust.BustEnable {
		a.Logger().Info("cache busting disabled")
		return nil
	}
	cb, err := cachebuster.New(a, a.Config.BustOptions())
	if err != nil {
		return err
	}
	s.cb = cb
	a.Logger().Info("cache busting enabled",
		zap.Int("files", cb.Map().Len()),
		zap.Int("hash_size", cb.Config().HashSize),
		zap.String("hash_algorithm", cb.Config().HashAlgorithm),
	)
	return nil
}

func (s *site) handler(a *app.App) (http.Handler, error) {
	r := router.New(a.Config, a.Logger())

	index, err := templates.Parse("index", indexSrc, a.URLs)
	if err != nil {
		return nil, err
	}
	r.Get("/", s.index(a, index))

	health.Mount(r, "/healthz", map[string]health.Check{
		"static_folder": health.StaticFolderCheck(a.StaticFolder()),
	}, a.Logger())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Method(http.MethodGet, "/version", version.Handler())

	return r, nil
}

func (s *site) index(a *app.App, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := indexData{Name: a.Name}
		if s.cb != nil {
			data.Entries = s.cb.Map().Entries()
		}
		for _, e := range data.Entries {
			switch {
			case strings.HasSuffix(e.Path, ".css"):
				data.Styles = append(data.Styles, e.Path)
			case strings.HasSuffix(e.Path, ".js"):
				data.Scripts = append(data.Scripts, e.Path)
			}
		}
		templates.Render(w, a.Logger(), tmpl, data)
	}
}
