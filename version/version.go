// version/version.go
package version

import (
	"net/http"
	"runtime"

	"github.com/dalemusser/cachebuster/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/cachebuster/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/cachebuster/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build description served at /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// Handler responds with Get() as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// String returns e.g. "1.2.3 (abc123, built 2024-01-15T10:30:00Z)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}
