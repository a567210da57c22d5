package cachebuster

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Config
	}{
		{"nil", nil, Config{HashSize: 5, HashAlgorithm: "md5"}},
		{"nil pointer", (*Config)(nil), Config{HashSize: 5, HashAlgorithm: "md5"}},
		{"empty map", map[string]any{}, Config{HashSize: 5, HashAlgorithm: "md5"}},
		{"struct", Config{Extensions: []string{".js"}, HashSize: 8}, Config{Extensions: []string{".js"}, HashSize: 8, HashAlgorithm: "md5"}},
		{"pointer", &Config{HashAlgorithm: "SHA256"}, Config{HashSize: 5, HashAlgorithm: "sha256"}},
		{
			"map with list",
			map[string]any{"extensions": []any{".css", ".js"}, "hash_size": 7},
			Config{Extensions: []string{".css", ".js"}, HashSize: 7, HashAlgorithm: "md5"},
		},
		{
			"map with []string",
			map[string]any{"extensions": []string{".css"}},
			Config{Extensions: []string{".css"}, HashSize: 5, HashAlgorithm: "md5"},
		},
		{
			"string map is weakly typed",
			map[string]string{"hash_size": "10", "hash_algorithm": "sha256", "extensions": ".css"},
			Config{Extensions: []string{".css"}, HashSize: 10, HashAlgorithm: "sha256"},
		},
		{
			"unknown keys ignored",
			map[string]any{"hash_size": 6, "something_else": true},
			Config{HashSize: 6, HashAlgorithm: "md5"},
		},
		{
			"whole float from JSON",
			map[string]any{"hash_size": float64(8)},
			Config{HashSize: 8, HashAlgorithm: "md5"},
		},
		{
			"int64 from config file",
			map[string]any{"hash_size": int64(9)},
			Config{HashSize: 9, HashAlgorithm: "md5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.raw)
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseConfig(%#v) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"string", "extensions=.css"},
		{"slice", []string{".css"}},
		{"int", 5},
		{"map with int keys", map[int]string{1: "x"}},
		{"negative hash size", map[string]any{"hash_size": -1}},
		{"hash size too large for md5", Config{HashSize: 33}},
		{"hash size too large for sha256", Config{HashSize: 65, HashAlgorithm: "sha256"}},
		{"unknown algorithm", Config{HashAlgorithm: "crc32"}},
		{"bad hash size type", map[string]any{"hash_size": "big"}},
		{"fractional hash size", map[string]any{"hash_size": 5.9}},
		{"fractional hash size string", map[string]string{"hash_size": "5.9"}},
		{"explicit zero hash size", map[string]any{"hash_size": 0}},
		{"explicit zero hash size string", map[string]string{"hash_size": "0"}},
		{"bad extensions type", map[string]any{"extensions": map[string]any{"a": 1}}},
		{"empty extension", Config{Extensions: []string{".js", " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.raw)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseConfig(%#v) err = %v, want ErrInvalidConfig", tt.raw, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HashSize != DefaultHashSize || cfg.HashAlgorithm != DefaultAlgorithm || len(cfg.Extensions) != 0 {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}
