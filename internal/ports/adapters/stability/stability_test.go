package stability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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

type seqRNG struct{ next int }

func (r *seqRNG) Intn(n int) int {
	r.next++
	return r.next % n
}

func TestGenerateImage_NoKeyPlaceholderFromRNG(t *testing.T) {
	a := New(fakeGate{}, provider.New("stability", "http://127.0.0.1:1"), "", &seqRNG{}, nil)
	first := a.GenerateImage(context.Background(), "a prompt")
	second := a.GenerateImage(context.Background(), "a prompt")
	if first.Status != ports.StatusFallback || !errors.Is(first.Err, errs.ErrProviderUnavailable) {
		t.Fatalf("expected fallback, got %+v", first)
	}
	if first.Value != "https://picsum.photos/1024/1024?random=1" || second.Value != "https://picsum.photos/1024/1024?random=2" {
		t.Fatalf("unexpected placeholders: %s, %s", first.Value, second.Value)
	}
}

func TestGenerateImage_Live(t *testing.T) {
	var got request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"artifacts":[{"base64":"iVBORw0KGgo=","finishReason":"SUCCESS"}]}`))
	}))
	defer srv.Close()

	a := New(fakeGate{keys.Stability: "sk-test"}, provider.New("stability", srv.URL, provider.WithRateLimit(0, 0)), "", &seqRNG{}, nil)
	res := a.GenerateImage(context.Background(), "MAYA in a hoodie")
	if res.Status != ports.StatusLive || res.Value != "data:image/png;base64,iVBORw0KGgo=" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if auth != "Bearer sk-test" || got.Steps != 30 || got.Width != 1024 || got.TextPrompts[0].Text != "MAYA in a hoodie" {
		t.Fatalf("unexpected request: auth=%q body=%+v", auth, got)
	}
}

func TestGenerateImage_ServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(fakeGate{keys.Stability: "sk-test"}, provider.New("stability", srv.URL, provider.WithRateLimit(0, 0)), "", &seqRNG{}, nil)
	res := a.GenerateImage(context.Background(), "x")
	if res.Status != ports.StatusFallback || !errs.IsProviderKind(res.Err, errs.KindServer) {
		t.Fatalf("expected server fallback, got %+v", res)
	}
	if res.Value == "" {
		t.Fatalf("fallback must still carry an image reference")
	}
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   errs.ProviderKind
	}{
		{name: "accepted", status: http.StatusOK},
		{name: "rejected", status: http.StatusUnauthorized, kind: errs.KindAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var method, path, auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				method, path, auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			a := New(fakeGate{}, provider.New("stability", srv.URL, provider.WithRateLimit(0, 0)), "", &seqRNG{}, nil)
			err := a.CheckKey(context.Background(), "sk-test")
			if tt.kind == "" && err != nil {
				t.Fatalf("CheckKey: %v", err)
			}
			if tt.kind != "" && !errs.IsProviderKind(err, tt.kind) {
				t.Fatalf("expected %s error, got %v", tt.kind, err)
			}
			if method != http.MethodGet || path != "/v1/engines/list" || auth != "Bearer sk-test" {
				t.Fatalf("unexpected request: %s %s %q", method, path, auth)
			}
		})
	}
}
