package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/forPelevin/reelchemist/internal/storage"
)

type Provider string

const (
	Gemini     Provider = "gemini"
	Stability  Provider = "stability"
	ElevenLabs Provider = "elevenlabs"
	Runway     Provider = "runway"
)

var envNames = map[Provider]string{
	Gemini:     "GEMINI_API_KEY",
	Stability:  "STABILITY_API_KEY",
	ElevenLabs: "ELEVENLABS_API_KEY",
	Runway:     "RUNWAYML_API_KEY",
}

// Providers lists every gated provider in a stable order.
func Providers() []Provider { return []Provider{Gemini, Stability, ElevenLabs, Runway} }

// EnvName is the fixed name the key is stored and overridden under.
func (p Provider) EnvName() string { return envNames[p] }

func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := envNames[p]; ok {
		return p, nil
	}
	for prov, name := range envNames {
		if strings.EqualFold(s, name) {
			return prov, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

var placeholderMarkers = []string{"YOUR_", "API_KEY_HERE", "${"}

const (
	geminiPrefix    = "AIza"
	geminiMinLength = 10
)

type Classification struct {
	Present     bool `json:"present"`
	Placeholder bool `json:"placeholder"`
	Malformed   bool `json:"malformed"`
	Valid       bool `json:"valid"`
}

func (c Classification) String() string {
	switch {
	case c.Valid:
		return "valid"
	case !c.Present:
		return "absent"
	case c.Placeholder:
		return "placeholder"
	case c.Malformed:
		return "malformed"
	}
	return "invalid"
}

// Classify is pure: it only looks at the value it is given.
func Classify(p Provider, raw string) Classification {
	v := strings.TrimSpace(raw)
	c := Classification{Present: v != ""}
	for _, m := range placeholderMarkers {
		if strings.Contains(raw, m) {
			c.Placeholder = true
			break
		}
	}
	if p == Gemini && (len(v) <= geminiMinLength || !strings.HasPrefix(v, geminiPrefix)) {
		c.Malformed = true
	}
	c.Valid = c.Present && !c.Placeholder && !c.Malformed
	return c
}

// Source is the narrow read/write view of where provider keys live.
type Source interface {
	Get(ctx context.Context, p Provider) (string, error)
	Set(ctx context.Context, p Provider, value string) error
}

// StorageSource reads keys/<NAME> from storage on every call. A non-empty
// environment variable of the same name wins over the stored value.
type StorageSource struct {
	st     storage.Storage
	lookup func(string) (string, bool)
}

func NewStorageSource(st storage.Storage) *StorageSource {
	return &StorageSource{st: st, lookup: os.LookupEnv}
}

func storageKey(p Provider) string { return "keys/" + p.EnvName() }

func (s *StorageSource) Get(ctx context.Context, p Provider) (string, error) {
	if p.EnvName() == "" {
		return "", fmt.Errorf("unknown provider %q", p)
	}
	if v, ok := s.lookup(p.EnvName()); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	b, err := s.st.Load(ctx, storageKey(p))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", p.EnvName(), err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Set stores the value; an empty value removes the stored key.
func (s *StorageSource) Set(ctx context.Context, p Provider, value string) error {
	if p.EnvName() == "" {
		return fmt.Errorf("unknown provider %q", p)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if err := s.st.Delete(ctx, storageKey(p)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("clear %s: %w", p.EnvName(), err)
		}
		return nil
	}
	if err := s.st.Save(ctx, storageKey(p), []byte(value)); err != nil {
		return fmt.Errorf("store %s: %w", p.EnvName(), err)
	}
	return nil
}

// Gate hands out a provider key only when it classifies as valid.
type Gate struct {
	src Source
	log *slog.Logger
}

func NewGate(src Source, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{src: src, log: log.With("component", "keys")}
}

// Key returns the key and true when it is usable. Anything else is logged at
// info level and reported as unavailable; callers fall back.
func (g *Gate) Key(ctx context.Context, p Provider) (string, bool) {
	raw, err := g.src.Get(ctx, p)
	if err != nil {
		g.log.Warn("provider key unreadable", "provider", p, "err", err)
		return "", false
	}
	c := Classify(p, raw)
	if !c.Valid {
		g.log.Info("provider unavailable, using fallback", "provider", p, "key", c.String())
		return "", false
	}
	return strings.TrimSpace(raw), true
}

type Status struct {
	Provider       Provider       `json:"provider"`
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	State          string         `json:"state"`
}

// Report classifies every provider key without exposing any value.
func Report(ctx context.Context, src Source) ([]Status, error) {
	out := make([]Status, 0, len(envNames))
	for _, p := range Providers() {
		raw, err := src.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		c := Classify(p, raw)
		out = append(out, Status{Provider: p, Name: p.EnvName(), Classification: c, State: c.String()})
	}
	return out, nil
}

// Check is the outcome of testing one key against its provider. Checked is
// false when the provider has no endpoint to test against; a valid key then
// counts as verified.
type Check struct {
	Status
	Verified bool   `json:"verified"`
	Checked  bool   `json:"checked"`
	Message  string `json:"message,omitempty"`
}
