package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/reelchemist/internal/config"
	"github.com/forPelevin/reelchemist/internal/keys"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/elevenlabs"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/espeak"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/gemini"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/provider"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/runway"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/stability"
	"github.com/forPelevin/reelchemist/internal/ports/adapters/system"
	"github.com/forPelevin/reelchemist/internal/storage"
	"github.com/forPelevin/reelchemist/internal/store"
	"github.com/forPelevin/reelchemist/internal/types"
	"github.com/forPelevin/reelchemist/internal/usecase"
)

// Studio is one wired project: storage in the data dir, the key source, the
// state store and the executor running phases against it.
type Studio struct {
	Config   *config.Config
	Storage  *storage.FileSystem
	Keys     *keys.StorageSource
	Store    *store.Store
	Executor *usecase.Executor
	checkers map[keys.Provider]ports.KeyChecker
	voices   ports.VoiceLister
	notifier ports.Notifier
	log      *slog.Logger
}

// New wires the adapters from cfg. notifier may be nil.
func New(cfg *config.Config, log *slog.Logger, notifier ports.Notifier) *Studio {
	if log == nil {
		log = slog.Default()
	}
	fs := storage.NewFileSystem(cfg.DataDir)
	src := keys.NewStorageSource(fs)
	gate := keys.NewGate(src, log)
	st := store.New(fs)
	clock := system.Clock{}
	rng := system.NewRNG(uint64(time.Now().UnixNano()))

	p := cfg.Providers
	deps := usecase.Deps{
		Store:    st,
		Clock:    clock,
		Notifier: notifier,
		Limits: usecase.Limits{
			MaxDialogueLines: cfg.Limits.MaxDialogueLines,
			MaxVideoScenes:   cfg.Limits.MaxVideoScenes,
			StepDelay:        cfg.Limits.StepDelay,
		},
		Export: cfg.Export,
		Logger: log,
	}

	text := gemini.New(gate, client("gemini", p.Gemini, log), p.Gemini.Model, log)
	deps.Parser = text
	deps.Shots = text
	images := stability.New(gate, client("stability", p.Stability, log), p.Stability.Model, rng, log)
	deps.Images = images
	speech := elevenlabs.New(gate, client("elevenlabs", p.ElevenLabs.ProviderConfig, log), p.ElevenLabs.Model, p.ElevenLabs.Voices, log)
	deps.Speech = speech
	deps.Video = runway.New(gate, client("runway", p.Runway, log), p.Runway.Model, log)
	if cfg.Espeak.Enabled {
		deps.LocalSpeech = espeak.New(cfg.Espeak.Bin, cfg.Espeak.Voice)
	}

	return &Studio{
		Config:   cfg,
		Storage:  fs,
		Keys:     src,
		Store:    st,
		Executor: usecase.New(deps),
		checkers: map[keys.Provider]ports.KeyChecker{
			keys.Gemini:     text,
			keys.Stability:  images,
			keys.ElevenLabs: speech,
		},
		voices:   speech,
		notifier: notifier,
		log:      log.With("component", "studio"),
	}
}

func client(name string, pc config.ProviderConfig, log *slog.Logger) *provider.Client {
	return provider.New(name, pc.BaseURL,
		provider.WithTimeout(pc.Timeout),
		provider.WithRateLimit(pc.RateLimit.RequestsPerMinute, pc.RateLimit.BurstSize),
		provider.WithLogger(log),
	)
}

// Restore loads the saved project if there is one. A corrupt blob is logged
// and the fresh state kept.
func (s *Studio) Restore(ctx context.Context) bool {
	ok, err := s.Store.Load(ctx)
	if err != nil {
		s.log.Warn("saved project ignored", "err", err)
		return false
	}
	if ok {
		s.log.Info("project restored", "phase", int(s.Store.Get().CurrentPhase))
	}
	return ok
}

// RunPhase executes one phase and persists the project afterwards. A save
// failure is logged only; the phase result stands.
func (s *Studio) RunPhase(ctx context.Context, p types.Phase, in usecase.Inputs) (types.Outputs, error) {
	outs, err := s.Executor.Run(ctx, p, in)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, p)
	return outs, nil
}

// RunRemaining executes every phase from the current one to the last,
// stopping at the first failure.
func (s *Studio) RunRemaining(ctx context.Context, in usecase.Inputs) ([]types.Outputs, error) {
	var all []types.Outputs
	for {
		cur := s.Store.Get()
		p := cur.CurrentPhase
		if _, done := cur.PhaseOutputs[types.LastPhase]; done && p == types.LastPhase {
			return all, nil
		}
		outs, err := s.RunPhase(ctx, p, in)
		if err != nil {
			return all, err
		}
		all = append(all, outs)
		if p == types.LastPhase {
			return all, nil
		}
	}
}

// persist saves after phase p. A failure is reported to the notifier and
// otherwise ignored.
func (s *Studio) persist(ctx context.Context, p types.Phase) {
	err := s.Store.Save(ctx)
	if err == nil {
		return
	}
	s.log.Warn("project not saved", "err", err)
	if s.notifier != nil {
		s.notifier.Notify(ctx, types.ProgressEvent{
			Phase:   p,
			Kind:    types.EventPersistenceFailed,
			Message: err.Error(),
			Time:    time.Now().UTC(),
		})
	}
}

// Load replaces the project with the saved one. It refuses while a phase is
// running so a finishing phase can't overwrite the loaded state.
func (s *Studio) Load(ctx context.Context) (bool, error) {
	var ok bool
	err := s.Executor.Exclusive(func() error {
		var err error
		ok, err = s.Store.Load(ctx)
		return err
	})
	return ok, err
}

// Reset clears the project in memory and on disk. Keys are kept.
func (s *Studio) Reset(ctx context.Context) error {
	return s.Executor.Exclusive(func() error {
		s.Store.Reset()
		return s.Store.Delete(ctx)
	})
}

// TestKey checks a provider key with one live call. An empty value tests the
// stored key. A key that does not classify as valid is never sent.
func (s *Studio) TestKey(ctx context.Context, p keys.Provider, value string) (keys.Check, error) {
	if value == "" {
		v, err := s.Keys.Get(ctx, p)
		if err != nil {
			return keys.Check{}, err
		}
		value = v
	}
	cl := keys.Classify(p, value)
	out := keys.Check{Status: keys.Status{Provider: p, Name: p.EnvName(), Classification: cl, State: cl.String()}}
	if !cl.Valid {
		out.Message = "key is " + cl.String()
		return out, nil
	}
	checker, ok := s.checkers[p]
	if !ok {
		out.Verified = true
		return out, nil
	}
	out.Checked = true
	err := checker.CheckKey(ctx, strings.TrimSpace(value))
	if err != nil && ctx.Err() != nil {
		return keys.Check{}, ctx.Err()
	}
	if err != nil {
		out.Message = err.Error()
		s.log.Info("provider key rejected", "provider", p, "err", err)
		return out, nil
	}
	out.Verified = true
	return out, nil
}

// Voices lists the text-to-speech voices on offer.
func (s *Studio) Voices(ctx context.Context) ports.Result[[]types.Voice] {
	return s.voices.Voices(ctx)
}

// WriteMedia stores inline media under outRoot in a fresh run directory and
// returns the file path. Remote media has nothing to write.
func WriteMedia(outRoot, title string, m usecase.Media, now time.Time) (string, error) {
	if !m.Inline() {
		return "", errors.New("media is remote; fetch it from its URL")
	}
	dir := buildRunOutDir(outRoot, title, now)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(m.Filename))
	if err := os.WriteFile(path, m.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func buildRunOutDir(outRoot, title string, now time.Time) string {
	name := usecase.Slug(title)
	if name == "" {
		name = "project"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", title, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

var (
	_ ports.TextParser        = (*gemini.Adapter)(nil)
	_ ports.ShotDescriber     = (*gemini.Adapter)(nil)
	_ ports.ImageGenerator    = (*stability.Adapter)(nil)
	_ ports.SpeechSynthesizer = (*elevenlabs.Adapter)(nil)
	_ ports.SpeechSynthesizer = (*espeak.Adapter)(nil)
	_ ports.VideoGenerator    = (*runway.Adapter)(nil)
	_ ports.Clock             = system.Clock{}
	_ ports.RNG               = (*system.RNG)(nil)
	_ ports.KeyGate           = (*keys.Gate)(nil)
	_ ports.KeyChecker        = (*gemini.Adapter)(nil)
	_ ports.KeyChecker        = (*stability.Adapter)(nil)
	_ ports.KeyChecker        = (*elevenlabs.Adapter)(nil)
	_ ports.VoiceLister       = (*elevenlabs.Adapter)(nil)
)
