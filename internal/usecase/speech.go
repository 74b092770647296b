package usecase

import (
	"context"
	"errors"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/ports"
)

// speak tries the provider, then the local synthesizer. A line only counts
// as failed when a real synthesis attempt was made and nothing worked; a
// missing key degrades to silent audio like every other capability.
func (e *Executor) speak(ctx context.Context, req ports.SpeechRequest) ports.Result[ports.Speech] {
	primary := e.d.Speech.Synthesize(ctx, req)
	if primary.Status == ports.StatusLive {
		return primary
	}
	causes := []error{primary.Err}
	if e.d.LocalSpeech != nil {
		local := e.d.LocalSpeech.Synthesize(ctx, req)
		if local.Status == ports.StatusLive {
			return ports.Fallback(local.Value, primary.Err)
		}
		causes = append(causes, local.Err)
	}

	silent := primary.Value
	if silent.URL == "" {
		silent = ports.Speech{URL: samples.SilentWAV, Engine: "silent"}
	}
	err := errors.Join(causes...)
	if errors.Is(primary.Err, errs.ErrProviderUnavailable) {
		return ports.Fallback(silent, err)
	}
	return ports.Failed(silent, err)
}
