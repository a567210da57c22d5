package cachebuster

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultHashSize is the number of hex characters kept from each digest.
//
// Five hex characters is about 20 bits. On trees with thousands of assets two
// files can share a fingerprint; that only means a stale copy may be served
// for one of them, so the default is kept for compatibility.
const DefaultHashSize = 5

// Supported digest algorithms.
const (
	AlgorithmMD5    = "md5"
	AlgorithmSHA256 = "sha256"
)

// DefaultAlgorithm is md5 so fingerprints stay identical to those produced by
// the Flask cache buster this package replaces.
const DefaultAlgorithm = AlgorithmMD5

// Config controls which files are fingerprinted and how.
type Config struct {
	// Extensions lists file suffixes (".js", ".css") eligible for
	// fingerprinting. Empty means every file is eligible.
	Extensions []string `mapstructure:"extensions"`

	// HashSize is the number of hex characters kept from the digest.
	HashSize int `mapstructure:"hash_size"`

	// HashAlgorithm is "md5" (default) or "sha256".
	HashAlgorithm string `mapstructure:"hash_algorithm"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{HashSize: DefaultHashSize, HashAlgorithm: DefaultAlgorithm}
}

// ParseConfig turns the options accepted by New and InitApp into a validated
// Config. raw may be nil, a Config, a *Config, or a key-value mapping such as
// the sub-tree returned by viper.GetStringMap. Anything else is rejected with
// ErrInvalidConfig.
func ParseConfig(raw any) (Config, error) {
	cfg := DefaultConfig()

	switch t := raw.(type) {
	case nil:
		return cfg, nil
	case Config:
		cfg = t
	case *Config:
		if t == nil {
			return DefaultConfig(), nil
		}
		cfg = *t
	case map[string]any, map[string]string:
		if err := decodeMapping(t, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: options must be a Config or a key-value mapping, got %T", ErrInvalidConfig, raw)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeMapping(m any, cfg *Config) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Metadata:         &md,
		DecodeHook:       rejectFractionalInts,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// Only an absent hash_size means the default; an explicit 0 is a mistake.
	if cfg.HashSize == 0 && slices.Contains(md.Keys, "hash_size") {
		return fmt.Errorf("%w: hash_size must be > 0, got 0", ErrInvalidConfig)
	}
	return nil
}

// rejectFractionalInts stops mapstructure from truncating 5.9 to 5.
func rejectFractionalInts(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return data, nil
}

// normalize fills zero values with defaults.
func (c *Config) normalize() {
	if c.HashSize == 0 {
		c.HashSize = DefaultHashSize
	}
	c.HashAlgorithm = strings.ToLower(strings.TrimSpace(c.HashAlgorithm))
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = DefaultAlgorithm
	}
}

func (c Config) validate() error {
	var invalid []string

	digestLen := digestHexLen(c.HashAlgorithm)
	if digestLen == 0 {
		invalid = append(invalid, fmt.Sprintf("hash_algorithm must be %q or %q, got %q", AlgorithmMD5, AlgorithmSHA256, c.HashAlgorithm))
	}
	if c.HashSize < 1 {
		invalid = append(invalid, fmt.Sprintf("hash_size must be > 0, got %d", c.HashSize))
	} else if digestLen > 0 && c.HashSize > digestLen {
		invalid = append(invalid, fmt.Sprintf("hash_size must be <= %d for %s, got %d", digestLen, c.HashAlgorithm, c.HashSize))
	}
	for _, ext := range c.Extensions {
		if strings.TrimSpace(ext) == "" {
			invalid = append(invalid, "extensions must not contain empty entries")
			break
		}
	}

	if len(invalid) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(invalid, ", "))
}

// digestHexLen returns the hex length of the algorithm's digest, or 0 if the
// algorithm is unknown.
func digestHexLen(alg string) int {
	switch alg {
	case AlgorithmMD5:
		return md5.Size * 2
	case AlgorithmSHA256:
		return sha256.Size * 2
	}
	return 0
}

func (c Config) newHash() hash.Hash {
	if c.HashAlgorithm == AlgorithmSHA256 {
		return sha256.New()
	}
	return md5.New()
}

// extensionSet returns the eligible suffixes as a set, or nil when every
// file is eligible.
func (c Config) extensionSet() map[string]struct{} {
	if len(c.Extensions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(c.Extensions))
	for _, ext := range c.Extensions {
		set[ext] = struct{}{}
	}
	return set
}
