package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/storage"
	"github.com/forPelevin/reelchemist/internal/store"
	"github.com/forPelevin/reelchemist/internal/types"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

type fakeParser struct {
	res   ports.Result[types.ParsedScreenplay]
	block chan struct{}
}

func (f *fakeParser) ParseScreenplay(ctx context.Context, _ string) ports.Result[types.ParsedScreenplay] {
	if f.block != nil {
		<-f.block
	}
	return f.res
}

type fakeShots struct{}

func (fakeShots) DescribeShot(_ context.Context, req ports.ShotRequest) ports.Result[ports.Shot] {
	desc, cam, light := samples.Shot(req.Scene)
	return ports.Fallback(ports.Shot{Description: desc, Camera: cam, Lighting: light}, errs.ErrProviderUnavailable)
}

type fakeImages struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeImages) GenerateImage(context.Context, string) ports.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return ports.Fallback(samples.PlaceholderImage(f.calls), errs.ErrProviderUnavailable)
}

// fakeSpeech answers from a per-text table; unknown texts get a live result.
type fakeSpeech struct {
	byText map[string]ports.Result[ports.Speech]
	calls  int
}

func (f *fakeSpeech) Synthesize(_ context.Context, req ports.SpeechRequest) ports.Result[ports.Speech] {
	f.calls++
	if r, ok := f.byText[req.Text]; ok {
		return r
	}
	return ports.Live(ports.Speech{URL: "data:audio/mpeg;base64,SUQz", VoiceID: "v-" + req.Character, Engine: "test"})
}

type fakeVideo struct{}

func (fakeVideo) GenerateVideo(_ context.Context, req ports.VideoRequest) ports.Result[ports.Video] {
	return ports.Fallback(ports.Video{URL: samples.VideoURL(req.Scene)}, errs.ErrProviderUnavailable)
}

type recorder struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

func (r *recorder) Notify(_ context.Context, ev types.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type harness struct {
	exec   *Executor
	store  *store.Store
	clock  *fakeClock
	parser *fakeParser
	images *fakeImages
	speech *fakeSpeech
	local  *fakeSpeech
	events *recorder
}

func newHarness(t *testing.T, limits Limits) *harness {
	t.Helper()
	h := &harness{
		store:  store.New(storage.NewFileSystem(t.TempDir())),
		clock:  &fakeClock{now: epoch},
		parser: &fakeParser{res: ports.Fallback(samples.Screenplay(), errs.ErrProviderUnavailable)},
		images: &fakeImages{},
		speech: &fakeSpeech{},
		events: &recorder{},
	}
	n := 0
	var idMu sync.Mutex
	h.exec = New(Deps{
		Store:    h.store,
		Parser:   h.parser,
		Shots:    fakeShots{},
		Images:   h.images,
		Speech:   h.speech,
		Video:    fakeVideo{},
		Clock:    h.clock,
		Notifier: h.events,
		NewID: func() string {
			idMu.Lock()
			defer idMu.Unlock()
			n++
			return fmt.Sprintf("out-%03d", n)
		},
		Limits: limits,
	})
	return h
}

func (h *harness) run(t *testing.T, p types.Phase, in Inputs) types.Outputs {
	t.Helper()
	outs, err := h.exec.Run(context.Background(), p, in)
	if err != nil {
		t.Fatalf("run %s: %v", p, err)
	}
	return outs
}

func (h *harness) runThrough(t *testing.T, last types.Phase) {
	t.Helper()
	for p := types.FirstPhase; p <= last; p++ {
		h.run(t, p, Inputs{Screenplay: samples.ScreenplayText})
	}
}

// seed puts a parsed screenplay into the store as phase 1 would, without
// recording phase 1 outputs.
func (h *harness) seed(parsed types.ParsedScreenplay, current types.Phase) {
	h.store.Update(store.Patch{
		Screenplay: &types.Screenplay{
			RawText:    "seeded",
			Parsed:     &parsed,
			Characters: parsed.Characters,
			Scenes:     parsed.Scenes,
		},
		CurrentPhase: current,
	})
}
