package config

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/router"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Mode != "hash" {
		t.Errorf("Mode = %q, want hash", cfg.Mode)
	}
	if cfg.Base != "/" {
		t.Errorf("Base = %q, want /", cfg.Base)
	}
	if !cfg.Fallback {
		t.Error("Fallback should default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Serve.Addr != DefaultAddr || !cfg.Serve.Metrics {
		t.Errorf("Serve = %+v", cfg.Serve)
	}
	if cfg.Path() != "" || cfg.Dir() != "" {
		t.Errorf("Path() = %q, want empty without a file", cfg.Path())
	}
	if cfg.RoutesPath() != "routes.yaml" {
		t.Errorf("RoutesPath() = %q, want routes.yaml", cfg.RoutesPath())
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "vnav.yaml", `
mode: history
base: /app
fallback: false
log_level: debug
routes: tables/routes.toml
watch: true
serve:
  addr: ":9000"
  metrics: false
chunks:
  bucket: views
  prefix: v1/
`},
		{"json", "vnav.json", `{
  "mode": "history",
  "base": "/app",
  "fallback": false,
  "log_level": "debug",
  "routes": "tables/routes.toml",
  "watch": true,
  "serve": {"addr": ":9000", "metrics": false},
  "chunks": {"bucket": "views", "prefix": "v1/"}
}`},
		{"toml", "vnav.toml", `
mode = "history"
base = "/app"
fallback = false
log_level = "debug"
routes = "tables/routes.toml"
watch = true

[serve]
addr = ":9000"
metrics = false

[chunks]
bucket = "views"
prefix = "v1/"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)

			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}

			if cfg.Mode != "history" || cfg.Base != "/app" || cfg.Fallback {
				t.Errorf("router settings = %q %q %v", cfg.Mode, cfg.Base, cfg.Fallback)
			}
			if cfg.LogLevel != "debug" || !cfg.Watch {
				t.Errorf("LogLevel = %q, Watch = %v", cfg.LogLevel, cfg.Watch)
			}
			if cfg.Serve.Addr != ":9000" || cfg.Serve.Metrics {
				t.Errorf("Serve = %+v", cfg.Serve)
			}
			if cfg.Chunks.Bucket != "views" || cfg.Chunks.Prefix != "v1/" {
				t.Errorf("Chunks = %+v", cfg.Chunks)
			}
			if cfg.Dir() != dir {
				t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
			}
			if want := filepath.Join(dir, "tables", "routes.toml"); cfg.RoutesPath() != want {
				t.Errorf("RoutesPath() = %q, want %q", cfg.RoutesPath(), want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "mode: abstract\nroutes: /etc/vnav/routes.json\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Mode != "abstract" {
		t.Errorf("Mode = %q, want abstract", cfg.Mode)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if cfg.RoutesPath() != "/etc/vnav/routes.json" {
		t.Errorf("absolute RoutesPath() = %q", cfg.RoutesPath())
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	if got := errorCode(err); got != errors.CodeConfigRead {
		t.Errorf("missing file code = %q, want %s", got, errors.CodeConfigRead)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vnav.yaml", "mode: [history\n")

	_, err := Load(dir)
	if got := errorCode(err); got != errors.CodeConfigRead {
		t.Errorf("code = %q, want %s (err %v)", got, errors.CodeConfigRead, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vnav.yaml", "mode: hash\nserve:\n  addr: :8000\n")
	t.Setenv("VNAV_MODE", "history")
	t.Setenv("VNAV_SERVE_ADDR", ":7777")
	t.Setenv("VNAV_LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Mode != "history" {
		t.Errorf("Mode = %q, want history from env", cfg.Mode)
	}
	if cfg.Serve.Addr != ":7777" {
		t.Errorf("Serve.Addr = %q, want :7777 from env", cfg.Serve.Addr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn from env", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Mode: "history", LogLevel: "info"}, false},
		{"abstract", Config{Mode: "abstract", LogLevel: "ERROR"}, false},
		{"unknown mode", Config{Mode: "memory", LogLevel: "info"}, true},
		{"unknown level", Config{Mode: "hash", LogLevel: "verbose"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errorCode(err) != errors.CodeConfigInvalid {
				t.Errorf("code = %q, want %s", errorCode(err), errors.CodeConfigInvalid)
			}
		})
	}

	dir := t.TempDir()
	writeFile(t, dir, "vnav.yaml", "mode: Memory\n")
	if _, err := Load(dir); errorCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Load with bad mode error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"", 0, true},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRouterOptions(t *testing.T) {
	cfg := &Config{Mode: "abstract", Base: "/app", LogLevel: "info"}

	r, err := router.New(cfg.RouterOptions(router.RouteConfig{Path: "/"}, router.RouteConfig{Path: "/a"})...)
	if err != nil {
		t.Fatalf("router.New error: %v", err)
	}
	if r.Mode() != router.ModeAbstract {
		t.Errorf("Mode() = %q, want abstract", r.Mode())
	}
	if len(r.GetRoutes()) != 2 {
		t.Errorf("GetRoutes() = %d records, want 2", len(r.GetRoutes()))
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("log output = %q", out)
	}
}
