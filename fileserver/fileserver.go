// Package fileserver serves a static folder over HTTP, preferring
// pre-compressed siblings (file.br, file.gz) when the client accepts them.
//
// Fingerprinted URLs carry the content hash in the "q" query parameter. The
// handler ignores the query entirely: the fingerprint only exists to change
// the URL when the bytes change.
package fileserver

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// Options configures the static file handler.
type Options struct {
	// DisablePrecompressed disables checking for .br and .gz variants.
	DisablePrecompressed bool

	// AllowDirListing enables http.FileServer's directory index pages.
	AllowDirListing bool

	// NotFound answers requests for files that do not exist. The request
	// still carries the full URL, prefix included. Nil uses http.NotFound.
	NotFound http.Handler
}

// Handler returns an http.Handler that serves files from rootDir.
//
// The urlPrefix is stripped from the request URL before looking up files.
// For example, if urlPrefix is "/static" and the request is for
// "/static/js/app.js?q=1a2b3", the handler looks for "js/app.js" in rootDir.
//
// Example usage:
//
//	r.Handle("/static/*", fileserver.Handler("/static", "static", fileserver.Options{}))
func Handler(urlPrefix, rootDir string, opts Options) http.Handler {
	root := http.Dir(rootDir)
	files := http.StripPrefix(urlPrefix, http.FileServer(root))
	notFound := opts.NotFound
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		rel := strings.TrimPrefix(r.URL.Path, urlPrefix)
		if len(rel) == len(r.URL.Path) && urlPrefix != "" {
			notFound.ServeHTTP(w, r)
			return
		}

		// Canonicalize the requested path and strip leading slash for http.Dir.Open
		req := strings.TrimPrefix(path.Clean("/"+rel), "/")

		if !opts.AllowDirListing && isDir(root, req) {
			notFound.ServeHTTP(w, r)
			return
		}

		if !opts.DisablePrecompressed && servePrecompressed(w, r, root, req) {
			return
		}

		if req != "" && !exists(root, req) {
			notFound.ServeHTTP(w, r)
			return
		}

		files.ServeHTTP(w, r)
	})
}

// servePrecompressed serves req.br or req.gz when present and accepted.
// It reports whether a response was written.
func servePrecompressed(w http.ResponseWriter, r *http.Request, root http.Dir, req string) bool {
	if req == "" {
		return false
	}
	candidates := []struct {
		ext      string
		encoding string
	}{
		{".br", "br"},
		{".gz", "gzip"},
	}

	for _, cand := range candidates {
		if !acceptsEncoding(r, cand.encoding) {
			continue
		}

		f, err := root.Open(req + cand.ext)
		if err != nil {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			_ = f.Close()
			continue
		}

		w.Header().Set("Content-Encoding", cand.encoding)
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Set("Content-Type", mimeTypeByOriginal(req))

		http.ServeContent(w, r, req, fi.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

func exists(root http.Dir, name string) bool {
	f, err := root.Open("/" + name)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func isDir(root http.Dir, name string) bool {
	f, err := root.Open("/" + name)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	return err == nil && fi.IsDir()
}

// acceptsEncoding checks if the client accepts the given encoding.
func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

// mimeTypeByOriginal returns the MIME type for the original filename
// (without .gz/.br suffix).
func mimeTypeByOriginal(name string) string {
	ext := strings.ToLower(filepath.Ext(name))

	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}

	switch ext {
	case ".wasm":
		return "application/wasm"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json", ".map":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
