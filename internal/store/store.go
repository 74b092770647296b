package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/storage"
	"github.com/forPelevin/reelchemist/internal/types"
)

// ProjectKey is where the whole project blob is persisted.
const ProjectKey = "reelchemist_project.json"

// Patch names the sub-objects to merge. Nil / zero fields are left alone.
type Patch struct {
	Screenplay   *types.Screenplay
	Assets       AssetsPatch
	Videos       VideosPatch
	PhaseOutputs map[types.Phase]types.Outputs
	CurrentPhase types.Phase
	// AdvanceFrom moves the current phase one step on, but only while the
	// live current phase still equals it.
	AdvanceFrom types.Phase
}

type AssetsPatch struct {
	CharacterSheets *[]types.ImageAsset
	SceneReferences *[]types.ImageAsset
	AudioDialogue   *[]types.AudioAsset
}

type VideosPatch struct {
	GeneratedClips *[]types.VideoAsset
	ProcessedClips *[]types.VideoAsset
	FinalVideoURL  *string
}

type Store struct {
	mu    sync.RWMutex
	state types.ProjectState
	st    storage.Storage
}

func New(st storage.Storage) *Store {
	return &Store{state: types.NewProjectState(), st: st}
}

// Get returns a snapshot. Slices and the outputs map are copied so callers
// can't reach into the live state; Output values are immutable.
func (s *Store) Get() types.ProjectState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.state)
}

func (s *Store) Update(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Screenplay != nil {
		sp := *p.Screenplay
		s.state.Screenplay = sp
	}
	if v := p.Assets.CharacterSheets; v != nil {
		s.state.Assets.CharacterSheets = append([]types.ImageAsset(nil), (*v)...)
	}
	if v := p.Assets.SceneReferences; v != nil {
		s.state.Assets.SceneReferences = append([]types.ImageAsset(nil), (*v)...)
	}
	if v := p.Assets.AudioDialogue; v != nil {
		s.state.Assets.AudioDialogue = append([]types.AudioAsset(nil), (*v)...)
	}
	if v := p.Videos.GeneratedClips; v != nil {
		s.state.Videos.GeneratedClips = append([]types.VideoAsset(nil), (*v)...)
	}
	if v := p.Videos.ProcessedClips; v != nil {
		s.state.Videos.ProcessedClips = append([]types.VideoAsset(nil), (*v)...)
	}
	if v := p.Videos.FinalVideoURL; v != nil {
		s.state.Videos.FinalVideoURL = *v
	}
	if len(p.PhaseOutputs) > 0 {
		if s.state.PhaseOutputs == nil {
			s.state.PhaseOutputs = map[types.Phase]types.Outputs{}
		}
		for ph, outs := range p.PhaseOutputs {
			s.state.PhaseOutputs[ph] = append(types.Outputs(nil), outs...)
		}
	}
	if p.CurrentPhase.Valid() {
		s.state.CurrentPhase = p.CurrentPhase
	}
	if p.AdvanceFrom.Valid() && s.state.CurrentPhase == p.AdvanceFrom {
		s.state.CurrentPhase = p.AdvanceFrom.Next()
	}
}

// Reset drops everything back to the initial state. Persisted data is not
// touched.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = types.NewProjectState()
}

func (s *Store) Save(ctx context.Context) error {
	b, err := json.Marshal(s.Get())
	if err != nil {
		return &errs.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.st.Save(ctx, ProjectKey, b); err != nil {
		return &errs.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Load replaces the in-memory state with the persisted one. A missing blob
// reports false with no error; an unreadable one leaves the state unchanged.
func (s *Store) Load(ctx context.Context) (bool, error) {
	b, err := s.st.Load(ctx, ProjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, &errs.PersistenceError{Op: "load", Err: err}
	}
	var st types.ProjectState
	if err := json.Unmarshal(b, &st); err != nil {
		return false, &errs.PersistenceError{Op: "decode", Err: err}
	}
	if err := check(st); err != nil {
		return false, &errs.PersistenceError{Op: "decode", Err: err}
	}
	if st.PhaseOutputs == nil {
		st.PhaseOutputs = map[types.Phase]types.Outputs{}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return true, nil
}

// Delete removes the persisted blob. Deleting a project that was never saved
// is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.st.Delete(ctx, ProjectKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return &errs.PersistenceError{Op: "delete", Err: err}
	}
	return nil
}

func check(st types.ProjectState) error {
	if !st.CurrentPhase.Valid() {
		return fmt.Errorf("current phase %d out of range", st.CurrentPhase)
	}
	for ph := range st.PhaseOutputs {
		if !ph.Valid() {
			return fmt.Errorf("outputs stored under unknown phase %d", ph)
		}
	}
	return nil
}

func snapshot(st types.ProjectState) types.ProjectState {
	out := st
	out.Screenplay.Characters = append([]types.Character(nil), st.Screenplay.Characters...)
	out.Screenplay.Scenes = append([]types.Scene(nil), st.Screenplay.Scenes...)
	out.Assets.CharacterSheets = append([]types.ImageAsset(nil), st.Assets.CharacterSheets...)
	out.Assets.SceneReferences = append([]types.ImageAsset(nil), st.Assets.SceneReferences...)
	out.Assets.AudioDialogue = append([]types.AudioAsset(nil), st.Assets.AudioDialogue...)
	out.Videos.GeneratedClips = append([]types.VideoAsset(nil), st.Videos.GeneratedClips...)
	out.Videos.ProcessedClips = append([]types.VideoAsset(nil), st.Videos.ProcessedClips...)
	out.PhaseOutputs = maps.Clone(st.PhaseOutputs)
	if out.PhaseOutputs == nil {
		out.PhaseOutputs = map[types.Phase]types.Outputs{}
	}
	for ph, outs := range out.PhaseOutputs {
		out.PhaseOutputs[ph] = append(types.Outputs(nil), outs...)
	}
	return out
}
