package elevenlabs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
)

type fakeGate map[keys.Provider]string

func (g fakeGate) Key(_ context.Context, p keys.Provider) (string, bool) {
	k, ok := g[p]
	return k, ok
}

func TestVoiceFor(t *testing.T) {
	a := New(fakeGate{}, nil, "", map[string]string{"nova": "voice-nova"}, nil)
	tests := map[string]string{
		"MAYA":     "EXAVITQu4vr4xnSDxMaL",
		" kodex ":  "VR6AewLTigWG4xSOukaG",
		"Nova":     "voice-nova",
		"STRANGER": DefaultVoice,
	}
	for in, want := range tests {
		if got := a.VoiceFor(in); got != want {
			t.Fatalf("VoiceFor(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSynthesize_Live(t *testing.T) {
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, key = r.URL.Path, r.Header.Get("xi-api-key")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	a := New(fakeGate{keys.ElevenLabs: "el-key"}, provider.New("elevenlabs", srv.URL, provider.WithRateLimit(0, 0)), "", nil, nil)
	res := a.Synthesize(context.Background(), ports.SpeechRequest{Text: "Hello.", Character: "MAYA"})
	if res.Status != ports.StatusLive || res.Value.URL != "data:audio/mpeg;base64,SUQz" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if path != "/v1/text-to-speech/EXAVITQu4vr4xnSDxMaL" || key != "el-key" {
		t.Fatalf("unexpected request: path=%s key=%s", path, key)
	}
}

func TestSynthesize_FailuresReturnSilence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key el-key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := New(fakeGate{keys.ElevenLabs: "el-key"}, provider.New("elevenlabs", srv.URL, provider.WithRateLimit(0, 0)), "", nil, nil)
	res := a.Synthesize(context.Background(), ports.SpeechRequest{Text: "Hello.", Character: "KODEX"})
	if res.Status != ports.StatusFallback || !errs.IsProviderKind(res.Err, errs.KindAuth) {
		t.Fatalf("expected auth fallback, got %+v", res)
	}
	if res.Value.URL != samples.SilentWAV || strings.Contains(res.Err.Error(), "el-key") {
		t.Fatalf("unexpected fallback: %+v", res)
	}

	noKey := New(fakeGate{}, nil, "", nil, nil).Synthesize(context.Background(), ports.SpeechRequest{Text: "x"})
	if noKey.Status != ports.StatusFallback || noKey.Value.URL != samples.SilentWAV {
		t.Fatalf("expected silent fallback without key, got %+v", noKey)
	}
}

func TestVoices(t *testing.T) {
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, key = r.URL.Path, r.Header.Get("xi-api-key")
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Rachel","category":"premade"},{"voice_id":"v2","name":"Clone"}]}`))
	}))
	defer srv.Close()

	a := New(fakeGate{keys.ElevenLabs: "el-key"}, provider.New("elevenlabs", srv.URL, provider.WithRateLimit(0, 0)), "", nil, nil)
	res := a.Voices(context.Background())
	if res.Status != ports.StatusLive || len(res.Value) != 2 || res.Value[0].Name != "Rachel" || res.Value[1].VoiceID != "v2" {
		t.Fatalf("unexpected voices: %+v", res)
	}
	if path != "/v1/voices" || key != "el-key" {
		t.Fatalf("unexpected request: path=%s key=%s", path, key)
	}

	noKey := New(fakeGate{}, nil, "", nil, nil).Voices(context.Background())
	if noKey.Status != ports.StatusFallback || !errors.Is(noKey.Err, errs.ErrProviderUnavailable) {
		t.Fatalf("expected fallback without key, got %+v", noKey)
	}
	if len(noKey.Value) != 2 || noKey.Value[0].Name != "Adam" || noKey.Value[1].Name != "Arnold" {
		t.Fatalf("unexpected fallback voices: %+v", noKey.Value)
	}
}

func TestVoices_FailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(fakeGate{keys.ElevenLabs: "el-key"}, provider.New("elevenlabs", srv.URL, provider.WithRateLimit(0, 0)), "", nil, nil)
	res := a.Voices(context.Background())
	if res.Status != ports.StatusFallback || len(res.Value) != 0 || res.Value == nil {
		t.Fatalf("expected empty fallback, got %+v", res)
	}
	if !errs.IsProviderKind(res.Err, errs.KindServer) {
		t.Fatalf("expected server error, got %v", res.Err)
	}
}

func TestCheckKey(t *testing.T) {
	var method, path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, key = r.Method, r.URL.Path, r.Header.Get("xi-api-key")
		if key != "el-good" {
			http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	a := New(fakeGate{}, provider.New("elevenlabs", srv.URL, provider.WithRateLimit(0, 0)), "", nil, nil)
	if err := a.CheckKey(context.Background(), "el-good"); err != nil {
		t.Fatalf("CheckKey: %v", err)
	}
	if method != http.MethodGet || path != "/v1/models" {
		t.Fatalf("unexpected request: %s %s", method, path)
	}
	if err := a.CheckKey(context.Background(), "el-bad"); !errs.IsProviderKind(err, errs.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}
