package keys

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/forPelevin/reelchemist/internal/storage"
)

func TestClassify_PlaceholderWinsRegardlessOfShape(t *testing.T) {
	values := []string{
		"YOUR_KEY",
		"AIzaSyYOUR_GEMINI_KEY_1234567890",
		"API_KEY_HERE",
		"${GEMINI_API_KEY}",
		"x YOUR_ x",
	}
	for _, p := range Providers() {
		for _, v := range values {
			c := Classify(p, v)
			if !c.Placeholder || c.Valid {
				t.Fatalf("Classify(%s, %q) = %+v, want placeholder and not valid", p, v, c)
			}
		}
	}
}

func TestClassify_GeminiShapeRules(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		malformed bool
		valid     bool
	}{
		{"valid", "AIzaSyA1234567890abcdef", false, true},
		{"exactly ten", "AIza123456", true, false},
		{"eleven", "AIza1234567", false, true},
		{"missing prefix", "sk-1234567890abcdef", true, false},
		{"padded", "   AIzaSyA1234567890   ", false, true},
		{"empty", "   ", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(Gemini, tt.in)
			if c.Malformed != tt.malformed || c.Valid != tt.valid {
				t.Fatalf("Classify(gemini, %q) = %+v", tt.in, c)
			}
		})
	}
}

func TestClassify_OtherProvidersHaveNoShapeRule(t *testing.T) {
	c := Classify(Stability, "sk-1")
	if !c.Valid || c.Malformed {
		t.Fatalf("expected short stability key to be valid, got %+v", c)
	}
	if c := Classify(ElevenLabs, ""); c.Present || c.Valid {
		t.Fatalf("expected empty key to be absent, got %+v", c)
	}
}

func TestStorageSource_EnvOverridesAndNoCaching(t *testing.T) {
	ctx := context.Background()
	st := storage.NewFileSystem(t.TempDir())
	src := NewStorageSource(st)
	env := map[string]string{}
	src.lookup = func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	if v, err := src.Get(ctx, Runway); err != nil || v != "" {
		t.Fatalf("expected empty key, got %q, %v", v, err)
	}
	if err := src.Set(ctx, Runway, " rw-1 "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := src.Get(ctx, Runway); v != "rw-1" {
		t.Fatalf("expected stored key, got %q", v)
	}
	if err := src.Set(ctx, Runway, "rw-2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := src.Get(ctx, Runway); v != "rw-2" {
		t.Fatalf("expected updated key on next read, got %q", v)
	}
	env["RUNWAYML_API_KEY"] = "rw-env"
	if v, _ := src.Get(ctx, Runway); v != "rw-env" {
		t.Fatalf("expected env override, got %q", v)
	}
	delete(env, "RUNWAYML_API_KEY")
	if err := src.Set(ctx, Runway, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if v, _ := src.Get(ctx, Runway); v != "" {
		t.Fatalf("expected cleared key, got %q", v)
	}
}

type mapSource map[Provider]string

func (m mapSource) Get(_ context.Context, p Provider) (string, error) { return m[p], nil }
func (m mapSource) Set(_ context.Context, p Provider, v string) error {
	m[p] = v
	return nil
}

func TestGate_LogsAndRefusesInvalidKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	src := mapSource{Gemini: "YOUR_GEMINI_KEY", Stability: "sk-live"}
	g := NewGate(src, log)

	if _, ok := g.Key(context.Background(), Gemini); ok {
		t.Fatalf("expected placeholder gemini key to be refused")
	}
	if !strings.Contains(buf.String(), "provider=gemini") || !strings.Contains(buf.String(), "key=placeholder") {
		t.Fatalf("expected informational log line, got %q", buf.String())
	}
	if k, ok := g.Key(context.Background(), Stability); !ok || k != "sk-live" {
		t.Fatalf("expected stability key, got %q %v", k, ok)
	}

	src[Gemini] = "AIzaSyA1234567890abcdef"
	if _, ok := g.Key(context.Background(), Gemini); !ok {
		t.Fatalf("expected key change to apply on the next call")
	}
}

func TestReport_DoesNotExposeValues(t *testing.T) {
	src := mapSource{Stability: "sk-secret-value"}
	rep, err := Report(context.Background(), src)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep) != 4 {
		t.Fatalf("expected 4 providers, got %d", len(rep))
	}
	for _, s := range rep {
		if strings.Contains(s.State+s.Name, "sk-secret") {
			t.Fatalf("report leaked a key value: %+v", s)
		}
		if s.Provider == Stability && s.State != "valid" {
			t.Fatalf("expected stability to be valid, got %s", s.State)
		}
		if s.Provider == Gemini && s.State != "absent" {
			t.Fatalf("expected gemini to be absent, got %s", s.State)
		}
	}
}

func TestParseProvider(t *testing.T) {
	for in, want := range map[string]Provider{"gemini": Gemini, " Runway ": Runway, "STABILITY_API_KEY": Stability} {
		got, err := ParseProvider(in)
		if err != nil || got != want {
			t.Fatalf("ParseProvider(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseProvider("openai"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
