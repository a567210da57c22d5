package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsValidLogLevel(t *testing.T) {
	for _, l := range []string{"debug", "INFO", " warn ", "Error", "fatal"} {
		if !IsValidLogLevel(l) {
			t.Errorf("IsValidLogLevel(%q) = false", l)
		}
	}
	for _, l := range []string{"", "verbose", "trace"} {
		if IsValidLogLevel(l) {
			t.Errorf("IsValidLogLevel(%q) = true", l)
		}
	}
}

func TestBuildLogger(t *testing.T) {
	tests := []struct {
		level, env string
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"debug", "dev", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn", "prod", zapcore.WarnLevel, zapcore.InfoLevel},
		{"nonsense", "dev", zapcore.InfoLevel, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := BuildLogger(tt.level, tt.env)
		if err != nil {
			t.Fatalf("BuildLogger(%q, %q): %v", tt.level, tt.env, err)
		}
		if !logger.Core().Enabled(tt.enabled) {
			t.Errorf("BuildLogger(%q): %v not enabled", tt.level, tt.enabled)
		}
		if logger.Core().Enabled(tt.disabled) {
			t.Errorf("BuildLogger(%q): %v enabled", tt.level, tt.disabled)
		}
	}
}

func TestRequestLogger_StaticAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RequestLogger(zap.New(core), "/static")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, p := range []string{"/static/app.js?q=abcde", "/", "/staticky"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	if e := entries[0]; e.Message != "static_request" || e.Level != zapcore.DebugLevel {
		t.Errorf("static entry = %q at %v", e.Message, e.Level)
	} else if fp := e.ContextMap()["fingerprint"]; fp != "abcde" {
		t.Errorf("fingerprint field = %v, want abcde", fp)
	}
	for _, e := range entries[1:] {
		if e.Message != "http_request" || e.Level != zapcore.InfoLevel {
			t.Errorf("entry = %q at %v, want http_request at info", e.Message, e.Level)
		}
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Errorf("panic not logged: %v", logs.All())
	}
}
