package runway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
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

func adapterFor(t *testing.T, gate fakeGate, status int, body string) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(gate, provider.New("runway", srv.URL, provider.WithRateLimit(0, 0)), "", nil)
}

func TestGenerateVideo_NoKeyIsDeterministic(t *testing.T) {
	a := adapterFor(t, fakeGate{}, http.StatusOK, `{}`)
	req := ports.VideoRequest{Scene: "DIGITAL REALM", Prompt: "p"}
	first, second := a.GenerateVideo(context.Background(), req), a.GenerateVideo(context.Background(), req)
	if first.Status != ports.StatusFallback || !errors.Is(first.Err, errs.ErrProviderUnavailable) {
		t.Fatalf("expected fallback, got %+v", first)
	}
	if first.Value.URL != second.Value.URL || first.Value.URL != samples.VideoURL("DIGITAL REALM") {
		t.Fatalf("expected same sample clip, got %s and %s", first.Value.URL, second.Value.URL)
	}
}

func TestGenerateVideo_Responses(t *testing.T) {
	sample := samples.VideoURL("FLAT")
	tests := []struct {
		name    string
		status  int
		body    string
		want    ports.Status
		wantURL string
		wantJob string
	}{
		{"output url", http.StatusOK, `{"id":"job-1","output":["https://cdn.example/clip.mp4"]}`, ports.StatusLive, "https://cdn.example/clip.mp4", "job-1"},
		{"job only", http.StatusOK, `{"id":"job-2","status":"PENDING"}`, ports.StatusLive, sample, "job-2"},
		{"empty", http.StatusOK, `{}`, ports.StatusFallback, sample, ""},
		{"server error", http.StatusServiceUnavailable, `busy`, ports.StatusFallback, sample, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := adapterFor(t, fakeGate{keys.Runway: "rw-key"}, tt.status, tt.body)
			res := a.GenerateVideo(context.Background(), ports.VideoRequest{Scene: "FLAT", Prompt: "p"})
			if res.Status != tt.want || res.Value.URL != tt.wantURL || res.Value.JobID != tt.wantJob {
				t.Fatalf("got %+v", res)
			}
		})
	}
}
