package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/store"
	"github.com/forPelevin/reelchemist/internal/types"
)

// Limits bounds the per-phase fan-out and paces simulated progress.
type Limits struct {
	MaxDialogueLines int
	MaxVideoScenes   int
	StepDelay        time.Duration
}

type Deps struct {
	Store  *store.Store
	Parser ports.TextParser
	Shots  ports.ShotDescriber
	Images ports.ImageGenerator
	Speech ports.SpeechSynthesizer
	// LocalSpeech is tried when Speech could not reach its provider. Optional.
	LocalSpeech ports.SpeechSynthesizer
	Video       ports.VideoGenerator
	Clock       ports.Clock
	Notifier    ports.Notifier
	NewID       func() string
	Limits      Limits
	Export      types.ExportSettings
	Logger      *slog.Logger
}

// Inputs carries what the user supplies alongside a phase run. Each phase
// reads only the fields it needs.
type Inputs struct {
	Screenplay      string
	UIElements      []string
	BackgroundMusic string
	Export          *types.ExportSettings
}

// Executor runs one phase at a time against the project store.
type Executor struct {
	d       Deps
	log     *slog.Logger
	running atomic.Bool
}

func New(d Deps) *Executor {
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Notifier == nil {
		d.Notifier = ports.NotifierFunc(func(context.Context, types.ProgressEvent) {})
	}
	if d.Export == (types.ExportSettings{}) {
		d.Export = types.DefaultExportSettings()
	}
	log := d.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{d: d, log: log.With("component", "executor")}
}

func (e *Executor) Store() *store.Store { return e.d.Store }

type phaseFunc func(ctx context.Context, st types.ProjectState, in Inputs) (types.Outputs, store.Patch, error)

func (e *Executor) handler(p types.Phase) phaseFunc {
	switch p {
	case types.PhaseParse:
		return e.parse
	case types.PhaseDesign:
		return e.design
	case types.PhaseDialogue:
		return e.dialogue
	case types.PhaseVideo:
		return e.video
	case types.PhaseEffects:
		return e.effects
	case types.PhaseOverlays:
		return e.overlays
	case types.PhaseAssembly:
		return e.assembly
	case types.PhaseSync:
		return e.sync
	case types.PhaseExport:
		return e.export
	}
	return nil
}

// Run executes phase p. On success its outputs replace the phase's previous
// list in one store update and the current phase advances when p was the
// current one. On failure the store is left as it was.
func (e *Executor) Run(ctx context.Context, p types.Phase, in Inputs) (types.Outputs, error) {
	h := e.handler(p)
	if h == nil {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidPhase, int(p))
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil, errs.ErrBusy
	}
	defer e.running.Store(false)

	st := e.d.Store.Get()
	log := e.log.With("phase", int(p), "name", p.Name())
	log.Info("phase started")
	started := e.d.Clock.Now()

	outs, patch, err := h(ctx, st, in)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Warn("phase failed", "err", err)
		return nil, &errs.PhaseError{Phase: int(p), Name: p.Name(), Err: err}
	}

	patch.PhaseOutputs = map[types.Phase]types.Outputs{p: outs}
	patch.AdvanceFrom = p
	e.d.Store.Update(patch)

	log.Info("phase completed", "outputs", len(outs), "elapsed", e.d.Clock.Now().Sub(started))
	return outs, nil
}

// Running reports whether a phase is in flight.
func (e *Executor) Running() bool { return e.running.Load() }

// Exclusive runs fn while no phase may start. It returns errs.ErrBusy when a
// phase is already in flight.
func (e *Executor) Exclusive(fn func() error) error {
	if !e.running.CompareAndSwap(false, true) {
		return errs.ErrBusy
	}
	defer e.running.Store(false)
	return fn()
}

func (e *Executor) header(kind types.OutputKind, src types.Source) types.Header {
	return types.Header{
		ID:        e.d.NewID(),
		Type:      kind,
		Timestamp: e.d.Clock.Now(),
		Source:    src,
	}
}

// progress reports step i (1-based) of total and waits the configured delay
// before the next one.
func (e *Executor) progress(ctx context.Context, p types.Phase, i, total int, msg string) error {
	e.d.Notifier.Notify(ctx, types.ProgressEvent{
		Phase:   p,
		Step:    i,
		Total:   total,
		Message: msg,
		Time:    e.d.Clock.Now(),
	})
	if i >= total || e.d.Limits.StepDelay <= 0 {
		return nil
	}
	return e.d.Clock.Sleep(ctx, e.d.Limits.StepDelay)
}

func limit[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func missing(what string) error { return fmt.Errorf("%w: %s", errs.ErrInputMissing, what) }

// Slug lowercases s and collapses every run of non-alphanumerics into a dash.
func Slug(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
