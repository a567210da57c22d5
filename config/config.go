// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CACHEBUSTER_STATIC_DIR.
const EnvPrefix = "CACHEBUSTER"

// HTTPConfig groups the listener port and server timeouts.
type HTTPConfig struct {
	HTTPPort int `mapstructure:"http_port"`

	// Timeouts are parsed with parseDurationFlexible, not by mapstructure.
	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// StaticConfig describes where static assets live and where they are served.
type StaticConfig struct {
	// StaticDir is the static root walked by the cache buster.
	StaticDir string `mapstructure:"static_dir"`

	// StaticURLPath is the URL prefix static files are mounted under.
	StaticURLPath string `mapstructure:"static_url_path"`

	// StaticPrecompressed enables serving .br/.gz siblings.
	StaticPrecompressed bool `mapstructure:"static_precompressed"`
}

// BustConfig holds the cache buster options.
type BustConfig struct {
	BustEnable        bool     `mapstructure:"bust_enable"`
	BustExtensions    []string `mapstructure:"bust_extensions"`
	BustHashSize      int      `mapstructure:"bust_hash_size"`
	BustHashAlgorithm string   `mapstructure:"bust_hash_algorithm"`
}

// CORSConfig groups all CORS behavior and lists.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSExposedHeaders   []string `mapstructure:"cors_exposed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// CoreConfig holds the configuration of a cache-busting static host.
type CoreConfig struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	// grouped config
	HTTP   HTTPConfig   `mapstructure:",squash"`
	Static StaticConfig `mapstructure:",squash"`
	Bust   BustConfig   `mapstructure:",squash"`
	CORS   CORSConfig   `mapstructure:",squash"`

	// HTTP behavior
	EnableCompression bool `mapstructure:"enable_compression"`
	CompressionLevel  int  `mapstructure:"compression_level"`
}

// BustOptions returns the cache buster options as a key-value mapping, the
// form cachebuster.New accepts from config files.
func (c CoreConfig) BustOptions() map[string]any {
	return map[string]any{
		"extensions":     c.Bust.BustExtensions,
		"hash_size":      c.Bust.BustHashSize,
		"hash_algorithm": c.Bust.BustHashAlgorithm,
	}
}

// Dump returns a pretty JSON string of the config for debugging.
func (c CoreConfig) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into one
// CoreConfig, reading flags from the process command line.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
func Load(logger *zap.Logger) (*CoreConfig, error) {
	return LoadFrom(logger, pflag.CommandLine, os.Args[1:])
}

// LoadFrom is Load with an explicit flag set and argument list.
func LoadFrom(logger *zap.Logger, fs *pflag.FlagSet, args []string) (*CoreConfig, error) {
	// 0) Optionally load .env (safe: real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Define flags (only *explicitly set* flags will override)
	registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	mergeConfigFiles(logger, v)

	// 4) Defaults (lowest precedence)
	setDefaults(v)

	// 5) Apply *explicit* flags (highest precedence)
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Normalize list keys (accept JSON strings → []string)
	if err := normalizeListKeys(logger, v,
		"bust_extensions",
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
		"cors_exposed_headers",
	); err != nil {
		return nil, err
	}

	// 7) Build struct
	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode core config: %w", err)
	}

	// Parse durations
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"read_timeout", 15 * time.Second, &cfg.HTTP.ReadTimeout},
		{"read_header_timeout", 10 * time.Second, &cfg.HTTP.ReadHeaderTimeout},
		{"write_timeout", 60 * time.Second, &cfg.HTTP.WriteTimeout},
		{"idle_timeout", 120 * time.Second, &cfg.HTTP.IdleTimeout},
		{"shutdown_timeout", 15 * time.Second, &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil && logger != nil {
			logger.Warn("invalid "+d.key+"; using default",
				zap.Any("value", v.Get(d.key)), zap.Duration("default", d.def), zap.Error(err))
		}
		*d.dst = dur
	}

	cfg.Static.StaticURLPath = normalizeURLPath(cfg.Static.StaticURLPath)
	cfg.Bust.BustHashAlgorithm = strings.ToLower(strings.TrimSpace(cfg.Bust.BustHashAlgorithm))

	// 8) Validate
	if err := validateCoreConfig(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout")
	fs.String("idle_timeout", "120s", "HTTP idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown timeout")

	// static assets
	fs.String("static_dir", "static", "Directory static assets are served from")
	fs.String("static_url_path", "/static", "URL prefix for static assets")
	fs.Bool("static_precompressed", true, "Serve pre-compressed .br/.gz siblings when present")

	// cache busting
	fs.Bool("bust_enable", true, "Add content fingerprints to static URLs")
	fs.String("bust_extensions", "", `JSON array of file suffixes to fingerprint, e.g. '[".css",".js"]' (empty = all files)`)
	fs.Int("bust_hash_size", 5, "Hex characters kept from each content hash")
	fs.String("bust_hash_algorithm", "md5", `Content hash: "md5" or "sha256"`)

	// misc / CORS
	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Int("compression_level", 5, "Compression level 1-9")
	fs.Bool("enable_cors", false, "Enable CORS")

	// CORS lists as JSON strings or arrays
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example","https://b.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","HEAD"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Accept"]'`)
	fs.String("cors_exposed_headers", "", `JSON array of headers, e.g. '["Link"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")
}

func mergeConfigFiles(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout", "shutdown_timeout",
		"static_dir", "static_url_path", "static_precompressed",
		"bust_enable", "bust_extensions", "bust_hash_size", "bust_hash_algorithm",
		"enable_compression", "compression_level",
		"enable_cors",
		"cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_exposed_headers", "cors_allow_credentials", "cors_max_age",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("read_header_timeout", "10s")
	v.SetDefault("write_timeout", "60s")
	v.SetDefault("idle_timeout", "120s")
	v.SetDefault("shutdown_timeout", "15s")

	v.SetDefault("static_dir", "static")
	v.SetDefault("static_url_path", "/static")
	v.SetDefault("static_precompressed", true)

	v.SetDefault("bust_enable", true)
	v.SetDefault("bust_extensions", []string{})
	v.SetDefault("bust_hash_size", 5)
	v.SetDefault("bust_hash_algorithm", "md5")

	v.SetDefault("enable_compression", true)
	v.SetDefault("compression_level", 5)

	// Neutral CORS defaults
	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_exposed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		val := v.Get(key)
		switch t := val.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

// normalizeURLPath makes p start with "/" and drop any trailing "/".
func normalizeURLPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

func validateCoreConfig(cfg CoreConfig) error {
	var missing []string
	var invalid []string

	// Port sanity
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}

	// Static assets
	if strings.TrimSpace(cfg.Static.StaticDir) == "" {
		missing = append(missing, "CACHEBUSTER_STATIC_DIR (or --static_dir)")
	}
	if cfg.Static.StaticURLPath == "/" {
		invalid = append(invalid, "static_url_path cannot be the site root")
	}

	// Cache busting
	if cfg.Bust.BustEnable {
		if cfg.Bust.BustHashSize <= 0 {
			invalid = append(invalid, "bust_hash_size must be > 0")
		}
		if a := cfg.Bust.BustHashAlgorithm; a != "md5" && a != "sha256" {
			invalid = append(invalid, `bust_hash_algorithm must be "md5" or "sha256"`)
		}
	}

	// Compression
	if cfg.EnableCompression && (cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9) {
		invalid = append(invalid, "compression_level must be in 1..9")
	}

	// CORS sanity
	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		if len(cfg.CORS.CORSAllowedMethods) == 0 {
			missing = append(missing, "CORS: cors_allowed_methods (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("core configuration errors: %s", strings.Join(parts, " | "))
}
