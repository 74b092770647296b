package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/reelchemist/internal/ports/adapters/elevenlabs"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/espeak"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/gemini"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/runway"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/stability"
	"github.com/forPelevin/reelchemist/internal/types"
)

type Config struct {
	DataDir   string               `yaml:"data_dir" validate:"required"`
	LogLevel  string               `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	Server    ServerConfig         `yaml:"server"`
	Providers ProvidersConfig      `yaml:"providers"`
	Espeak    EspeakConfig         `yaml:"espeak"`
	Limits    Limits               `yaml:"limits"`
	Export    types.ExportSettings `yaml:"export" validate:"-"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0,max=5m"`
}

type ProvidersConfig struct {
	Gemini     ProviderConfig   `yaml:"gemini"`
	Stability  ProviderConfig   `yaml:"stability"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Runway     ProviderConfig   `yaml:"runway"`
}

type ProviderConfig struct {
	BaseURL      string          `yaml:"base_url" validate:"required"`
	Model        string          `yaml:"model"`
	AllowedHosts []string        `yaml:"allowed_hosts"`
	Timeout      time.Duration   `yaml:"timeout" validate:"min=1s,max=10m"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type ElevenLabsConfig struct {
	ProviderConfig `yaml:",inline"`
	// Voices maps character names to voice ids on top of the built-in map.
	Voices map[string]string `yaml:"voices"`
}

// RateLimitConfig spaces requests to one provider. Zero requests per minute
// turns limiting off.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=0,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"min=0,max=100"`
}

type EspeakConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bin     string `yaml:"bin"`
	Voice   string `yaml:"voice"`
}

type Limits struct {
	MaxDialogueLines int           `yaml:"max_dialogue_lines" validate:"min=0,max=1000"`
	MaxVideoScenes   int           `yaml:"max_video_scenes" validate:"min=0,max=1000"`
	StepDelay        time.Duration `yaml:"step_delay" validate:"min=0,max=1m"`
}

func Default() Config {
	return Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Server:   ServerConfig{Addr: "127.0.0.1:8080", ShutdownTimeout: 10 * time.Second},
		Providers: ProvidersConfig{
			Gemini:    providerDefaults(gemini.DefaultBaseURL, gemini.DefaultModel),
			Stability: providerDefaults(stability.DefaultBaseURL, stability.DefaultEngine),
			ElevenLabs: ElevenLabsConfig{
				ProviderConfig: providerDefaults(elevenlabs.DefaultBaseURL, elevenlabs.DefaultModel),
			},
			Runway: providerDefaults(runway.DefaultBaseURL, runway.DefaultModel),
		},
		Espeak: EspeakConfig{Enabled: true, Bin: espeak.DefaultBin},
		Limits: Limits{
			MaxDialogueLines: 3,
			MaxVideoScenes:   3,
			StepDelay:        500 * time.Millisecond,
		},
		Export: types.DefaultExportSettings(),
	}
}

func providerDefaults(baseURL, model string) ProviderConfig {
	return ProviderConfig{
		BaseURL:   baseURL,
		Model:     model,
		Timeout:   90 * time.Second,
		RateLimit: RateLimitConfig{RequestsPerMinute: 30, BurstSize: 2},
	}
}

// Load reads .env, the YAML file at path (or the default location when path
// is empty) and environment overrides, in that order, then validates. A
// missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.DataDir = expandTilde(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Path is where the config file is looked up when none is given.
func Path() string {
	if p := os.Getenv("REELCHEMIST_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reelchemist", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "reelchemist", "config.yaml")
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "reelchemist")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "reelchemist")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("REELCHEMIST_DATA_DIR", &c.DataDir)
	str("REELCHEMIST_LOG_LEVEL", &c.LogLevel)
	str("REELCHEMIST_ADDR", &c.Server.Addr)
	str("ESPEAK_BIN", &c.Espeak.Bin)

	for _, p := range c.Providers.all() {
		prefix := strings.ToUpper(p.env)
		str(prefix+"_BASE_URL", &p.cfg.BaseURL)
		str(prefix+"_MODEL", &p.cfg.Model)
		if v, ok := lookup(prefix + "_ALLOWED_HOSTS"); ok && strings.TrimSpace(v) != "" {
			p.cfg.AllowedHosts = strings.Split(v, ",")
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"REELCHEMIST_MAX_DIALOGUE_LINES", &c.Limits.MaxDialogueLines},
		{"REELCHEMIST_MAX_VIDEO_SCENES", &c.Limits.MaxVideoScenes},
	}
	for _, it := range ints {
		v, ok := lookup(it.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", it.name, err)
		}
		*it.dst = n
	}
	if v, ok := lookup("REELCHEMIST_STEP_DELAY"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("REELCHEMIST_STEP_DELAY: %w", err)
		}
		c.Limits.StepDelay = d
	}
	return nil
}

type namedProvider struct {
	name string
	env  string
	cfg  *ProviderConfig
}

func (p *ProvidersConfig) all() []namedProvider {
	return []namedProvider{
		{name: "gemini", env: "gemini", cfg: &p.Gemini},
		{name: "stability", env: "stability", cfg: &p.Stability},
		{name: "elevenlabs", env: "elevenlabs", cfg: &p.ElevenLabs.ProviderConfig},
		{name: "runway", env: "runwayml", cfg: &p.Runway},
	}
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	for _, p := range c.Providers.all() {
		if err := provider.ValidateBaseURL(p.name, p.cfg.BaseURL, p.cfg.AllowedHosts); err != nil {
			return err
		}
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
