package stability

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
)

const (
	DefaultBaseURL = "https://api.stability.ai"
	DefaultEngine  = "stable-diffusion-xl-1024-v1-0"

	maxSeed = 1_000_000
)

type Adapter struct {
	keys   ports.KeyGate
	client *provider.Client
	engine string
	rng    ports.RNG
	log    *slog.Logger
}

func New(gate ports.KeyGate, client *provider.Client, engine string, rng ports.RNG, log *slog.Logger) *Adapter {
	if engine == "" {
		engine = DefaultEngine
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{keys: gate, client: client, engine: engine, rng: rng, log: log.With("component", "stability")}
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type request struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Steps       int          `json:"steps"`
	Samples     int          `json:"samples"`
}

// GenerateImage returns an inline PNG from the provider, or a placeholder
// image URL seeded from the injected RNG.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string) ports.Result[string] {
	key, ok := a.keys.Key(ctx, keys.Stability)
	if !ok {
		return ports.Fallback(a.placeholder(), errs.ErrProviderUnavailable)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+key)
	h.Set("Accept", "application/json")

	var out struct {
		Artifacts []struct {
			Base64       string `json:"base64"`
			FinishReason string `json:"finishReason"`
		} `json:"artifacts"`
	}
	err := a.client.DoJSON(ctx, provider.Request{
		Method: http.MethodPost,
		Path:   "/v1/generation/" + a.engine + "/text-to-image",
		Header: h,
		Body: request{
			TextPrompts: []textPrompt{{Text: prompt, Weight: 1}},
			CfgScale:    7,
			Height:      1024,
			Width:       1024,
			Steps:       30,
			Samples:     1,
		},
		Secret: key,
	}, &out)
	if err == nil && (len(out.Artifacts) == 0 || out.Artifacts[0].Base64 == "") {
		err = a.client.DecodeError("no image artifact in response")
	}
	if err == nil {
		if _, decErr := base64.StdEncoding.DecodeString(out.Artifacts[0].Base64); decErr != nil {
			err = a.client.DecodeError("artifact is not base64: %v", decErr)
		}
	}
	if err != nil {
		a.log.Warn("image generation failed, using placeholder", "err", err)
		return ports.Fallback(a.placeholder(), err)
	}
	return ports.Live("data:image/png;base64," + out.Artifacts[0].Base64)
}

func (a *Adapter) placeholder() string {
	return samples.PlaceholderImage(a.rng.Intn(maxSeed))
}

func (a *Adapter) CheckKey(ctx context.Context, key string) error {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+key)
	_, err := a.client.Do(ctx, provider.Request{Method: http.MethodGet, Path: "/v1/engines/list", Header: h, Secret: key})
	return err
}
