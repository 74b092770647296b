package elevenlabs

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
	"github.com/forPelevin/reelchemist/internal/types"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModel   = "eleven_multilingual_v2"
	DefaultVoice   = "pNInz6obpgDQGcFmaJgB"
)

// DefaultVoices maps upper-cased character names to voice ids.
var DefaultVoices = map[string]string{
	"MAYA":  "EXAVITQu4vr4xnSDxMaL",
	"KODEX": "VR6AewLTigWG4xSOukaG",
}

type Adapter struct {
	keys   ports.KeyGate
	client *provider.Client
	model  string
	voices map[string]string
	log    *slog.Logger
}

func New(gate ports.KeyGate, client *provider.Client, model string, voices map[string]string, log *slog.Logger) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	merged := make(map[string]string, len(DefaultVoices)+len(voices))
	for k, v := range DefaultVoices {
		merged[k] = v
	}
	for k, v := range voices {
		merged[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{keys: gate, client: client, model: model, voices: merged, log: log.With("component", "elevenlabs")}
}

// VoiceFor returns the voice configured for a character, or the default one.
func (a *Adapter) VoiceFor(character string) string {
	if v, ok := a.voices[strings.ToUpper(strings.TrimSpace(character))]; ok && v != "" {
		return v
	}
	if v, ok := a.voices["DEFAULT"]; ok && v != "" {
		return v
	}
	return DefaultVoice
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type request struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize inlines the provider's mpeg audio. On any failure the value is
// the silent WAV so the caller can try the next synthesizer.
func (a *Adapter) Synthesize(ctx context.Context, req ports.SpeechRequest) ports.Result[ports.Speech] {
	voice := a.VoiceFor(req.Character)
	silent := ports.Speech{URL: samples.SilentWAV, VoiceID: voice, Engine: "silent"}

	key, ok := a.keys.Key(ctx, keys.ElevenLabs)
	if !ok {
		return ports.Fallback(silent, errs.ErrProviderUnavailable)
	}

	h := http.Header{}
	h.Set("xi-api-key", key)
	h.Set("Accept", "audio/mpeg")
	resp, err := a.client.Do(ctx, provider.Request{
		Method: http.MethodPost,
		Path:   "/v1/text-to-speech/" + voice,
		Header: h,
		Body: request{
			Text:    req.Text,
			ModelID: a.model,
			VoiceSettings: voiceSettings{
				Stability:       0.5,
				SimilarityBoost: 0.8,
				UseSpeakerBoost: true,
			},
		},
		Secret: key,
	})
	if err == nil && len(resp.Body) == 0 {
		err = a.client.DecodeError("empty audio body")
	}
	if err != nil {
		a.log.Warn("speech synthesis failed", "character", req.Character, "err", err)
		return ports.Fallback(silent, err)
	}

	mime := "audio/mpeg"
	if ct := strings.TrimSpace(strings.Split(resp.ContentType, ";")[0]); strings.HasPrefix(ct, "audio/") {
		mime = ct
	}
	return ports.Live(ports.Speech{URL: provider.DataURI(mime, resp.Body), VoiceID: voice, Engine: "elevenlabs"})
}

// FallbackVoices is listed when no usable key is configured.
var FallbackVoices = []types.Voice{
	{VoiceID: DefaultVoice, Name: "Adam", Category: "premade"},
	{VoiceID: "29vD33N1CtxCmqQRPOHJ", Name: "Arnold", Category: "premade"},
}

// Voices lists the account's voices. Without a key it is the fixed fallback
// list; a failed call yields an empty list.
func (a *Adapter) Voices(ctx context.Context) ports.Result[[]types.Voice] {
	key, ok := a.keys.Key(ctx, keys.ElevenLabs)
	if !ok {
		return ports.Fallback(append([]types.Voice(nil), FallbackVoices...), errs.ErrProviderUnavailable)
	}
	h := http.Header{}
	h.Set("xi-api-key", key)
	var out struct {
		Voices []types.Voice `json:"voices"`
	}
	err := a.client.DoJSON(ctx, provider.Request{Method: http.MethodGet, Path: "/v1/voices", Header: h, Secret: key}, &out)
	if err != nil {
		a.log.Warn("voice listing failed", "err", err)
		return ports.Fallback([]types.Voice{}, err)
	}
	if out.Voices == nil {
		out.Voices = []types.Voice{}
	}
	return ports.Live(out.Voices)
}

func (a *Adapter) CheckKey(ctx context.Context, key string) error {
	h := http.Header{}
	h.Set("xi-api-key", key)
	_, err := a.client.Do(ctx, provider.Request{Method: http.MethodGet, Path: "/v1/models", Header: h, Secret: key})
	return err
}
