// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/cachebuster/config"
	"github.com/dalemusser/cachebuster/logging"
	"github.com/dalemusser/cachebuster/metrics"
	"github.com/dalemusser/cachebuster/server"
	"github.com/dalemusser/cachebuster/urlgen"
	"go.uber.org/zap"
)

// App is a running web application: its config, logger and URL builder.
// It is the host that extensions such as the cache buster attach to.
type App struct {
	Name   string
	Config *config.CoreConfig
	URLs   *urlgen.Builder

	logger *zap.Logger
}

// NewApp creates an App and registers the static endpoint at
// StaticURLPath + "/{filename}".
func NewApp(name string, cfg *config.CoreConfig, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	urls := urlgen.New()
	if err := urls.Register(urlgen.StaticEndpoint, cfg.Static.StaticURLPath+"/{filename}"); err != nil {
		return nil, fmt.Errorf("app: register static endpoint: %w", err)
	}
	return &App{Name: name, Config: cfg, URLs: urls, logger: logger}, nil
}

// StaticFolder returns the configured static root.
func (a *App) StaticFolder() string { return a.Config.Static.StaticDir }

// URLDefaults registers fn to run before every URL is built.
func (a *App) URLDefaults(fn urlgen.DefaultsFunc) { a.URLs.Defaults(fn) }

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// URLFor builds the URL for endpoint. See urlgen.Builder.URLFor.
func (a *App) URLFor(endpoint string, values map[string]string) (string, error) {
	return a.URLs.URLFor(endpoint, values)
}

// Hooks defines the integration points an application provides to Run.
type Hooks struct {
	// Name is used only for logging/diagnostics.
	Name string

	// LoadConfig returns the core config. It typically calls config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, error)

	// Init runs once the App exists and before the handler is built.
	// Extensions such as the cache buster are registered here. May be nil.
	Init func(a *App) error

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(a *App) (http.Handler, error)
}

// Run executes the standard startup sequence:
//
//  1. Bootstrap logger
//  2. Load config (Hooks.LoadConfig)
//  3. Build final logger based on config
//  4. Register default metrics
//  5. Create the App and run Hooks.Init
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler (Hooks.BuildHandler)
//  8. Start the HTTP server and block until shutdown
func Run(ctx context.Context, hooks Hooks) error {
	if hooks.LoadConfig == nil || hooks.BuildHandler == nil {
		return errors.New("app: LoadConfig and BuildHandler are required")
	}

	// 1) Bootstrap logger for early startup
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	// 2) Load config
	coreCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return err
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	// 3) Build final logger
	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return err
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))

	// 4) Register default metrics
	metrics.RegisterDefault(logger)

	// 5) App + extensions
	a, err := NewApp(hooks.Name, coreCfg, logger)
	if err != nil {
		logger.Error("app create failed", zap.Error(err))
		return err
	}
	if hooks.Init != nil {
		if err := hooks.Init(a); err != nil {
			logger.Error("app init failed", zap.Error(err))
			return err
		}
	}

	// 6) Shutdown signals → context
	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	// 7) Handler
	handler, err := hooks.BuildHandler(a)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return err
	}

	// 8) Serve
	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
