package ports

import (
	"context"
	"time"

	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/types"
)

// Status tags how a generation client arrived at its value.
type Status string

const (
	// StatusLive means the provider answered and the value is real.
	StatusLive Status = "live"
	// StatusFallback means the provider was skipped or failed and the value is
	// a usable substitute.
	StatusFallback Status = "fallback"
	// StatusFailed means every path failed; the value is still usable but
	// carries no content.
	StatusFailed Status = "failed"
)

// Result is what every generation client returns. Value is always usable;
// Err explains a fallback or failure.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

func Live[T any](v T) Result[T] { return Result[T]{Value: v, Status: StatusLive} }

func Fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFallback, Err: err}
}

func Failed[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFailed, Err: err}
}

func (r Result[T]) Source() types.Source {
	if r.Status == StatusLive {
		return types.SourceLive
	}
	return types.SourceFallback
}

type TextParser interface {
	ParseScreenplay(ctx context.Context, text string) Result[types.ParsedScreenplay]
}

type ShotRequest struct {
	Scene     types.Scene
	Character *types.Character
	Prompt    string
}

type Shot struct {
	Description string
	Camera      string
	Lighting    string
	DurationSec float64
}

type ShotDescriber interface {
	DescribeShot(ctx context.Context, req ShotRequest) Result[Shot]
}

// ImageGenerator returns a renderable image reference for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) Result[string]
}

type SpeechRequest struct {
	Text      string
	Character string
}

type Speech struct {
	URL     string
	VoiceID string
	Engine  string
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) Result[Speech]
}

type VideoRequest struct {
	Scene       string
	Prompt      string
	DurationSec float64
	// ImageURL optionally seeds the clip with a reference frame.
	ImageURL string
}

type Video struct {
	URL          string
	JobID        string
	ThumbnailURL string
	Model        string
}

type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req VideoRequest) Result[Video]
}

type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type RNG interface {
	Intn(n int) int
}

type Notifier interface {
	Notify(ctx context.Context, ev types.ProgressEvent)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, ev types.ProgressEvent)

func (f NotifierFunc) Notify(ctx context.Context, ev types.ProgressEvent) { f(ctx, ev) }

// KeyChecker makes one cheap authenticated call to tell whether a key is
// accepted by its provider.
type KeyChecker interface {
	CheckKey(ctx context.Context, key string) error
}

type VoiceLister interface {
	Voices(ctx context.Context) Result[[]types.Voice]
}

// KeyGate hands out a provider key only when it is usable.
type KeyGate interface {
	Key(ctx context.Context, p keys.Provider) (string, bool)
}
