package runway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
)

const (
	DefaultBaseURL = "https://api.runwayml.com"
	DefaultModel   = "gen3a_turbo"

	clipSeconds = 10
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
	return &Adapter{keys: gate, client: client, model: model, log: log.With("component", "runway")}
}

type request struct {
	TextPrompt  string `json:"text_prompt"`
	ImagePrompt string `json:"image_prompt,omitempty"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    int    `json:"duration"`
}

// GenerateVideo submits one generation. Jobs are not polled: a response that
// only carries a job id resolves to the scene's sample clip, which is also
// the answer for a missing key or a failed call.
func (a *Adapter) GenerateVideo(ctx context.Context, req ports.VideoRequest) ports.Result[ports.Video] {
	sample := ports.Video{URL: samples.VideoURL(req.Scene), Model: "sample"}

	key, ok := a.keys.Key(ctx, keys.Runway)
	if !ok {
		return ports.Fallback(sample, errs.ErrProviderUnavailable)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+key)

	image := req.ImageURL
	if strings.HasPrefix(image, "data:") {
		image = ""
	}
	var out struct {
		ID     string   `json:"id"`
		Status string   `json:"status"`
		Output []string `json:"output"`
		URL    string   `json:"url"`
	}
	err := a.client.DoJSON(ctx, provider.Request{
		Method: http.MethodPost,
		Path:   "/v1/images/generations",
		Header: h,
		Body: request{
			TextPrompt:  req.Prompt,
			ImagePrompt: image,
			Model:       a.model,
			AspectRatio: "16:9",
			Duration:    clipSeconds,
		},
		Secret: key,
	}, &out)
	if err != nil {
		a.log.Warn("video generation failed, using sample clip", "scene", req.Scene, "err", err)
		return ports.Fallback(sample, err)
	}

	v := ports.Video{JobID: out.ID, Model: a.model, URL: out.URL}
	if v.URL == "" && len(out.Output) > 0 {
		v.URL = out.Output[0]
	}
	if v.URL == "" {
		if out.ID == "" {
			err := a.client.DecodeError("response carries neither an output nor a job id")
			return ports.Fallback(sample, err)
		}
		a.log.Info("video job accepted, using sample clip until it renders", "scene", req.Scene, "job", out.ID)
		v.URL = sample.URL
	}
	return ports.Live(v)
}
