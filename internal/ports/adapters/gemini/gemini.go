package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forPelevin/reelchemist/internal/domain/prompts"
	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
	"github.com/forPelevin/reelchemist/internal/types"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
)

type Adapter struct {
	keys   ports.KeyGate
	client *provider.Client
	model  string
	log    *slog.Logger
}

func New(gate ports.KeyGate, client *provider.Client, model string, log *slog.Logger) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{keys: gate, client: client, model: model, log: log.With("component", "gemini")}
}

// ParseScreenplay never fails: without a usable key, or when the model
// answer can't be used, it returns the sample screenplay.
func (a *Adapter) ParseScreenplay(ctx context.Context, text string) ports.Result[types.ParsedScreenplay] {
	key, ok := a.keys.Key(ctx, keys.Gemini)
	if !ok {
		return ports.Fallback(samples.Screenplay(), errs.ErrProviderUnavailable)
	}

	content, err := a.generate(ctx, key, prompts.ParseScreenplay(text), nil)
	if err != nil {
		a.log.Warn("parse failed, using sample screenplay", "err", err)
		return ports.Fallback(samples.Screenplay(), err)
	}
	parsed, err := decodeScreenplay(content)
	if err != nil {
		err = a.client.DecodeError("screenplay: %v", err)
		a.log.Warn("unusable screenplay breakdown, using sample screenplay", "err", err)
		return ports.Fallback(samples.Screenplay(), err)
	}
	return ports.Live(parsed)
}

// DescribeShot expands a video prompt into camera direction. An answer that
// is not JSON is kept as the description.
func (a *Adapter) DescribeShot(ctx context.Context, req ports.ShotRequest) ports.Result[ports.Shot] {
	fallback := stockShot(req.Scene)
	key, ok := a.keys.Key(ctx, keys.Gemini)
	if !ok {
		return ports.Fallback(fallback, errs.ErrProviderUnavailable)
	}

	content, err := a.generate(ctx, key, prompts.Shot(req.Prompt, req.Scene.Duration()), &generationConfig{
		Temperature:     0.8,
		MaxOutputTokens: 1000,
	})
	if err != nil {
		a.log.Warn("shot description failed", "scene", req.Scene.Name, "err", err)
		return ports.Fallback(fallback, err)
	}

	var raw struct {
		VideoDescription   string  `json:"videoDescription"`
		CameraInstructions string  `json:"cameraInstructions"`
		Lighting           string  `json:"lighting"`
		Duration           float64 `json:"duration"`
	}
	clean, err := provider.ExtractJSONObject(content)
	if err == nil {
		err = json.Unmarshal([]byte(clean), &raw)
	}
	if err != nil || strings.TrimSpace(raw.VideoDescription) == "" {
		return ports.Live(ports.Shot{
			Description: strings.TrimSpace(content),
			Camera:      "Cinematic camera movements",
			Lighting:    "Professional lighting setup",
			DurationSec: req.Scene.Duration(),
		})
	}
	shot := ports.Shot{
		Description: strings.TrimSpace(raw.VideoDescription),
		Camera:      orDefault(raw.CameraInstructions, fallback.Camera),
		Lighting:    orDefault(raw.Lighting, fallback.Lighting),
		DurationSec: raw.Duration,
	}
	if shot.DurationSec <= 0 {
		shot.DurationSec = req.Scene.Duration()
	}
	return ports.Live(shot)
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type message struct {
	Parts []part `json:"parts"`
}

func (a *Adapter) generate(ctx context.Context, key, prompt string, cfg *generationConfig) (string, error) {
	payload := struct {
		Contents         []message         `json:"contents"`
		GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	}{
		Contents:         []message{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	h := http.Header{}
	h.Set("X-goog-api-key", key)

	var out struct {
		Candidates []struct {
			Content message `json:"content"`
		} `json:"candidates"`
	}
	err := a.client.DoJSON(ctx, provider.Request{
		Method: http.MethodPost,
		Path:   "/v1beta/models/" + a.model + ":generateContent",
		Header: h,
		Body:   payload,
		Secret: key,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", a.client.DecodeError("no candidates in response")
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", a.client.DecodeError("empty content")
	}
	return b.String(), nil
}

type rawScene struct {
	types.Scene
	Location string `json:"location"`
	Heading  string `json:"heading"`
}

// decodeScreenplay validates the model's breakdown: every character needs a
// name and a description, every scene a name. Duplicate character names
// collapse to the first.
func decodeScreenplay(content string) (types.ParsedScreenplay, error) {
	clean, err := provider.ExtractJSONObject(content)
	if err != nil {
		return types.ParsedScreenplay{}, err
	}
	var raw struct {
		Title      string                `json:"title"`
		Genre      string                `json:"genre"`
		Characters []types.Character     `json:"characters"`
		Scenes     []rawScene            `json:"scenes"`
		Dialogue   []types.DialogueLine  `json:"dialogue"`
		Timeline   []types.TimelineEntry `json:"timeline"`
		Metadata   struct {
			Title string `json:"title"`
			Genre string `json:"genre"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return types.ParsedScreenplay{}, fmt.Errorf("decode breakdown: %w", err)
	}

	out := types.ParsedScreenplay{
		Title:    firstNonEmpty(raw.Title, raw.Metadata.Title),
		Genre:    firstNonEmpty(raw.Genre, raw.Metadata.Genre),
		Dialogue: nonEmptyLines(raw.Dialogue),
		Timeline: raw.Timeline,
	}
	if out.Title == "" {
		return types.ParsedScreenplay{}, errors.New("missing title")
	}

	seen := map[string]bool{}
	for i, c := range raw.Characters {
		c.Name = strings.TrimSpace(c.Name)
		c.Description = strings.TrimSpace(c.Description)
		if c.Name == "" || c.Description == "" {
			return types.ParsedScreenplay{}, fmt.Errorf("character %d: name and description are required", i)
		}
		key := strings.ToUpper(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if len(c.Emotions) == 0 {
			c.Emotions = nil
		}
		out.Characters = append(out.Characters, c)
	}
	for i, rs := range raw.Scenes {
		sc := rs.Scene
		sc.Name = strings.TrimSpace(firstNonEmpty(sc.Name, rs.Heading, rs.Location))
		if sc.Name == "" {
			return types.ParsedScreenplay{}, fmt.Errorf("scene %d: name is required", i)
		}
		if len(sc.Characters) == 0 {
			sc.Characters = nil
		}
		sc.Dialogue = nonEmptyLines(sc.Dialogue)
		out.Scenes = append(out.Scenes, sc)
	}
	if len(out.Timeline) == 0 {
		out.Timeline = nil
	}
	return out, nil
}

func nonEmptyLines(in []types.DialogueLine) []types.DialogueLine {
	var out []types.DialogueLine
	for _, ln := range in {
		if strings.TrimSpace(ln.Text) == "" {
			continue
		}
		ln.Character = strings.TrimSpace(ln.Character)
		out = append(out, ln)
	}
	return out
}

func stockShot(sc types.Scene) ports.Shot {
	desc, camera, lighting := samples.Shot(sc)
	return ports.Shot{Description: desc, Camera: camera, Lighting: lighting, DurationSec: sc.Duration()}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

// CheckKey lists the available models. The key travels in a header, never in
// the query string.
func (a *Adapter) CheckKey(ctx context.Context, key string) error {
	h := http.Header{}
	h.Set("X-goog-api-key", key)
	_, err := a.client.Do(ctx, provider.Request{Method: http.MethodGet, Path: "/v1beta/models", Header: h, Secret: key})
	return err
}
