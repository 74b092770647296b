package espeak

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/ports"
)

func fakeBin(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	p := filepath.Join(t.TempDir(), "espeak-ng")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return p
}

func TestSynthesize_InlinesWAV(t *testing.T) {
	bin := fakeBin(t, `while [ $# -gt 0 ]; do
  if [ "$1" = "-w" ]; then shift; printf RIFF > "$1"; fi
  shift
done
`)
	res := New(bin, "en").Synthesize(context.Background(), ports.SpeechRequest{Text: "-- Hello.", Character: "MAYA"})
	if res.Status != ports.StatusLive || res.Value.URL != "data:audio/wav;base64,UklGRg==" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSynthesize_Failures(t *testing.T) {
	failing := fakeBin(t, "echo 'no voice' >&2\nexit 1\n")
	tests := []struct {
		name string
		bin  string
		text string
	}{
		{"binary exits non-zero", failing, "Hello."},
		{"binary missing", filepath.Join(t.TempDir(), "nope"), "Hello."},
		{"empty text", failing, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.bin, "").Synthesize(context.Background(), ports.SpeechRequest{Text: tt.text})
			if res.Status != ports.StatusFallback || res.Err == nil || res.Value.URL != samples.SilentWAV {
				t.Fatalf("expected silent fallback, got %+v", res)
			}
		})
	}
}
