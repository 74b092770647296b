package espeak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
)

const DefaultBin = "espeak-ng"

// Adapter synthesizes speech on the local machine with espeak-ng and inlines
// the resulting WAV.
type Adapter struct {
	bin   string
	voice string
}

func New(binPath, voice string) *Adapter {
	if binPath == "" {
		binPath = DefaultBin
	}
	return &Adapter{bin: binPath, voice: voice}
}

func (a *Adapter) Synthesize(ctx context.Context, req ports.SpeechRequest) ports.Result[ports.Speech] {
	silent := ports.Speech{URL: samples.SilentWAV, Engine: "silent"}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return ports.Fallback(silent, errors.New("espeak: empty text"))
	}

	dir, err := os.MkdirTemp("", "reelchemist-espeak-*")
	if err != nil {
		return ports.Fallback(silent, fmt.Errorf("espeak: temp dir: %w", err))
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "line.wav")
	args := []string{"-w", wav}
	if a.voice != "" {
		args = append([]string{"-v", a.voice}, args...)
	}
	// "--" keeps a line that starts with a dash from being read as a flag
	args = append(args, "--", text)

	cmd := exec.CommandContext(ctx, a.bin, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return ports.Fallback(silent, fmt.Errorf("espeak-ng failed: %w\n%s", err, provider.Truncate(string(b), 400)))
	}
	b, err := os.ReadFile(wav)
	if err != nil {
		return ports.Fallback(silent, fmt.Errorf("espeak: read output: %w", err))
	}
	if len(b) == 0 {
		return ports.Fallback(silent, errors.New("espeak: empty output"))
	}
	return ports.Live(ports.Speech{URL: provider.DataURI("audio/wav", b), VoiceID: a.voice, Engine: "espeak-ng"})
}
