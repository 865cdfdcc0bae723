package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env
	t.Setenv("AMBIENT_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != zerolog.InfoLevel {
		t.Errorf("LogLevel: got %v, want info", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":8099" {
		t.Errorf("HTTPAddr: got %s", cfg.HTTPAddr)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout: got %v", cfg.FetchTimeout)
	}
	if cfg.MaxImageBytes != 20<<20 {
		t.Errorf("MaxImageBytes: got %d", cfg.MaxImageBytes)
	}
	if len(cfg.Allow.URLs) != 0 || len(cfg.Allow.Dirs) != 0 {
		t.Errorf("allow-list should be empty by default: %+v", cfg.Allow)
	}
	if cfg.Quantize.Clusters != 3 || cfg.Quantize.Size != 80 || cfg.Quantize.MaskBackground {
		t.Errorf("Quantize: got %+v", cfg.Quantize)
	}
	if cfg.LightBackend != BackendLog {
		t.Errorf("LightBackend: got %s", cfg.LightBackend)
	}
	if len(cfg.Schedules) != 0 {
		t.Errorf("Schedules: got %v", cfg.Schedules)
	}
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AMBIENT_CONFIG", "")
	t.Setenv("AMBIENT_LOG_LEVEL", "DEBUG")
	t.Setenv("AMBIENT_FETCH_TIMEOUT", "3s")
	t.Setenv("AMBIENT_ALLOWLIST_URLS", "http://camera.local/, http://nas.local/snapshots")
	t.Setenv("AMBIENT_ALLOWLIST_DIRS", "/srv/frames")
	t.Setenv("AMBIENT_QUANTIZE_CLUSTERS", "5")
	t.Setenv("AMBIENT_QUANTIZE_MASK_BACKGROUND", "true")
	t.Setenv("AMBIENT_LIGHT_BACKEND", "homeassistant")
	t.Setenv("AMBIENT_LIGHT_HOMEASSISTANT_URL", "http://ha.local:8123/")
	t.Setenv("AMBIENT_LIGHT_HOMEASSISTANT_TOKEN", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != zerolog.DebugLevel {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout: got %v", cfg.FetchTimeout)
	}
	wantURLs := []string{"http://camera.local/", "http://nas.local/snapshots"}
	if !reflect.DeepEqual(cfg.Allow.URLs, wantURLs) {
		t.Errorf("URLs: got %v, want %v", cfg.Allow.URLs, wantURLs)
	}
	if !reflect.DeepEqual(cfg.Allow.Dirs, []string{"/srv/frames"}) {
		t.Errorf("Dirs: got %v", cfg.Allow.Dirs)
	}
	if cfg.Quantize.Clusters != 5 || !cfg.Quantize.MaskBackground {
		t.Errorf("Quantize: got %+v", cfg.Quantize)
	}
	if cfg.HomeAssistant.URL != "http://ha.local:8123" {
		t.Errorf("HomeAssistant.URL: got %s", cfg.HomeAssistant.URL)
	}
	if cfg.HomeAssistant.Token != "secret" {
		t.Errorf("HomeAssistant.Token: got %s", cfg.HomeAssistant.Token)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "ambient.yaml")
	content := `
log_level: warn
allowlist:
  dirs:
    - /srv/frames
    - /srv/covers
light:
  backend: websocket
schedules:
  - name: evening
    spec: "0 19 * * *"
    params:
      path: /srv/frames/tv.png
      entity_id: light.tv_backlight
      brightness_mode: natural
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AMBIENT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != zerolog.WarnLevel {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.Allow.Dirs, []string{"/srv/frames", "/srv/covers"}) {
		t.Errorf("Dirs: got %v", cfg.Allow.Dirs)
	}
	if cfg.LightBackend != BackendWebSocket {
		t.Errorf("LightBackend: got %s", cfg.LightBackend)
	}
	if len(cfg.Schedules) != 1 {
		t.Fatalf("Schedules: got %d, want 1", len(cfg.Schedules))
	}
	s := cfg.Schedules[0]
	if s.Name != "evening" || s.Spec != "0 19 * * *" {
		t.Errorf("schedule: got %+v", s)
	}
	if s.Params["entity_id"] != "light.tv_backlight" {
		t.Errorf("schedule params: got %v", s.Params)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"AMBIENT_LOG_LEVEL": "loud"}},
		{"bad timeout", map[string]string{"AMBIENT_FETCH_TIMEOUT": "soon"}},
		{"zero clusters", map[string]string{"AMBIENT_QUANTIZE_CLUSTERS": "0"}},
		{"unknown backend", map[string]string{"AMBIENT_LIGHT_BACKEND": "zigbee"}},
		{"homeassistant without url", map[string]string{
			"AMBIENT_LIGHT_BACKEND":             "homeassistant",
			"AMBIENT_LIGHT_HOMEASSISTANT_TOKEN": "secret",
		}},
		{"homeassistant without token", map[string]string{
			"AMBIENT_LIGHT_BACKEND":           "homeassistant",
			"AMBIENT_LIGHT_HOMEASSISTANT_URL": "http://ha.local:8123",
		}},
		{"missing config file", map[string]string{"AMBIENT_CONFIG": "/nonexistent/ambient.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("AMBIENT_CONFIG", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"comma separated", "a, b,,c ", []string{"a", "b", "c"}},
		{"slice", []any{"x", " y "}, []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringList(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
