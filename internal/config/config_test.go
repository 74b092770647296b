package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != filepath.Join(data, "reelchemist") {
		t.Fatalf("data dir = %q", cfg.DataDir)
	}
	if cfg.Limits.MaxDialogueLines != 3 || cfg.Limits.MaxVideoScenes != 3 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Export.Resolution != "1920x1080" || cfg.Export.Format != "mp4" {
		t.Fatalf("export = %+v", cfg.Export)
	}
	if cfg.Providers.Runway.BaseURL != "https://api.runwayml.com" {
		t.Fatalf("runway base url = %q", cfg.Providers.Runway.BaseURL)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/reelchemist-test
log_level: debug
limits:
  max_dialogue_lines: 10
  step_delay: 0s
export:
  format: webm
providers:
  elevenlabs:
    base_url: https://api.elevenlabs.io
    voices:
      MAYA: voice-maya
  runway:
    base_url: https://api.dev.runwayml.com/
`)
	t.Setenv("REELCHEMIST_MAX_VIDEO_SCENES", "7")
	t.Setenv("GEMINI_MODEL", "gemini-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/reelchemist-test" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected top level: %+v", cfg)
	}
	if cfg.Limits.MaxDialogueLines != 10 || cfg.Limits.MaxVideoScenes != 7 || cfg.Limits.StepDelay != 0 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Export.Format != "webm" || cfg.Export.FPS != 30 {
		t.Fatalf("export = %+v", cfg.Export)
	}
	if cfg.Providers.ElevenLabs.Voices["MAYA"] != "voice-maya" {
		t.Fatalf("voices = %v", cfg.Providers.ElevenLabs.Voices)
	}
	if cfg.Providers.ElevenLabs.Timeout != 90*time.Second {
		t.Fatalf("inline provider defaults lost: %+v", cfg.Providers.ElevenLabs.ProviderConfig)
	}
	if cfg.Providers.Gemini.Model != "gemini-test" {
		t.Fatalf("gemini model = %q", cfg.Providers.Gemini.Model)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{name: "plain http", yaml: "providers:\n  gemini:\n    base_url: http://generativelanguage.googleapis.com\n", want: "https is required"},
		{name: "foreign host", yaml: "providers:\n  stability:\n    base_url: https://evil.example.com\n", want: "not in the allowed hosts"},
		{name: "userinfo", yaml: "providers:\n  runway:\n    base_url: https://u:p@api.runwayml.com\n", want: "userinfo is not allowed"},
		{name: "log level", yaml: "log_level: chatty\n", want: "LogLevel"},
		{name: "export fps", yaml: "export:\n  fps: 500\n", want: "export settings"},
		{name: "bad env int", env: map[string]string{"REELCHEMIST_MAX_DIALOGUE_LINES": "many"}, want: "REELCHEMIST_MAX_DIALOGUE_LINES"},
		{name: "env base url", env: map[string]string{"ELEVENLABS_BASE_URL": "https://api.elevenlabs.io?x=1"}, want: "ELEVENLABS_BASE_URL"},
		{name: "malformed yaml", yaml: "limits: [", want: "parsing config file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_AllowedHostsWidenList(t *testing.T) {
	path := writeConfig(t, `
providers:
  gemini:
    base_url: https://llm-proxy.internal.example
    allowed_hosts: ["llm-proxy.internal.example"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers.Gemini.BaseURL != "https://llm-proxy.internal.example" {
		t.Fatalf("base url = %q", cfg.Providers.Gemini.BaseURL)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("REELCHEMIST_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := Path(); got != filepath.Join("/xdg", "reelchemist", "config.yaml") {
		t.Fatalf("Path() = %q", got)
	}
	t.Setenv("REELCHEMIST_CONFIG", "/etc/reelchemist.yaml")
	if got := Path(); got != "/etc/reelchemist.yaml" {
		t.Fatalf("Path() = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
