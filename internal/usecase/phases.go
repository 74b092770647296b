package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/forPelevin/reelchemist/internal/domain/prompts"
	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/domain/subtitles"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/store"
	"github.com/forPelevin/reelchemist/internal/types"
)

var (
	defaultEffects  = []string{"glitch", "pixelation", "color_distortion"}
	defaultOverlays = []string{"phone_ui", "swipe_animation"}
)

func (e *Executor) parse(ctx context.Context, st types.ProjectState, in Inputs) (types.Outputs, store.Patch, error) {
	text := strings.TrimSpace(in.Screenplay)
	if text == "" {
		text = strings.TrimSpace(st.Screenplay.RawText)
	}
	if text == "" {
		return nil, store.Patch{}, missing("screenplay text is empty")
	}

	res := e.d.Parser.ParseScreenplay(ctx, text)
	if res.Err != nil {
		e.log.Info("screenplay parsed from sample", "status", res.Status, "err", res.Err)
	}
	parsed := res.Value
	parsed.Characters = uniqueCharacters(parsed.Characters)
	if err := e.progress(ctx, types.PhaseParse, 1, 1, fmt.Sprintf("parsed %q", parsed.Title)); err != nil {
		return nil, store.Patch{}, err
	}

	sp := types.Screenplay{
		RawText:    text,
		Parsed:     &parsed,
		Characters: append([]types.Character(nil), parsed.Characters...),
		Scenes:     append([]types.Scene(nil), parsed.Scenes...),
	}
	out := types.ParsedScreenplayOutput{
		Header:     e.header(types.KindParsedScreenplay, res.Source()),
		Screenplay: parsed,
	}
	return types.Outputs{out}, store.Patch{Screenplay: &sp}, nil
}

// uniqueCharacters drops repeated names, first one wins.
func uniqueCharacters(in []types.Character) []types.Character {
	seen := map[string]bool{}
	out := make([]types.Character, 0, len(in))
	for _, c := range in {
		k := fold(c.Name)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

func (e *Executor) design(ctx context.Context, st types.ProjectState, _ Inputs) (types.Outputs, store.Patch, error) {
	chars := st.Screenplay.Characters
	if len(chars) == 0 {
		return nil, store.Patch{}, missing("no characters; run phase 1 first")
	}
	scenes := uniqueSettings(st.Screenplay.Scenes)
	total := len(chars) + len(scenes)

	var outs types.Outputs
	sheets := make([]types.ImageAsset, 0, len(chars))
	for i, c := range chars {
		prompt := prompts.CharacterSheet(c)
		res := e.d.Images.GenerateImage(ctx, prompt)
		h := e.header(types.KindCharacterSheet, res.Source())
		outs = append(outs, types.CharacterSheetOutput{
			Header:      h,
			Character:   c.Name,
			Description: c.Description,
			Prompt:      prompt,
			ImageURL:    res.Value,
		})
		sheets = append(sheets, types.ImageAsset{OutputID: h.ID, Subject: c.Name, Detail: c.Description, URL: res.Value})
		if err := e.progress(ctx, types.PhaseDesign, i+1, total, "character sheet: "+c.Name); err != nil {
			return nil, store.Patch{}, err
		}
	}

	refs := make([]types.ImageAsset, 0, len(scenes))
	for i, sc := range scenes {
		prompt := prompts.SceneReference(sc)
		res := e.d.Images.GenerateImage(ctx, prompt)
		h := e.header(types.KindSceneReference, res.Source())
		outs = append(outs, types.SceneReferenceOutput{
			Header:   h,
			Scene:    sc.Name,
			Setting:  sc.Setting,
			Mood:     sc.Mood,
			Prompt:   prompt,
			ImageURL: res.Value,
		})
		refs = append(refs, types.ImageAsset{OutputID: h.ID, Subject: sc.Name, Setting: sc.Setting, Mood: sc.Mood, URL: res.Value})
		if err := e.progress(ctx, types.PhaseDesign, len(chars)+i+1, total, "scene reference: "+sc.Name); err != nil {
			return nil, store.Patch{}, err
		}
	}

	return outs, store.Patch{Assets: store.AssetsPatch{CharacterSheets: &sheets, SceneReferences: &refs}}, nil
}

// settingKey is how scene references are deduplicated: the trimmed,
// case-folded setting, or the scene name when the setting is empty.
func settingKey(sc types.Scene) string {
	if k := fold(sc.Setting); k != "" {
		return k
	}
	return fold(sc.Name)
}

func uniqueSettings(in []types.Scene) []types.Scene {
	seen := map[string]bool{}
	var out []types.Scene
	for _, sc := range in {
		k := settingKey(sc)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, sc)
	}
	return out
}

func (e *Executor) dialogue(ctx context.Context, st types.ProjectState, _ Inputs) (types.Outputs, store.Patch, error) {
	var lines []types.DialogueLine
	for _, ln := range st.Screenplay.Parsed.AllDialogue() {
		if strings.TrimSpace(ln.Text) != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return nil, store.Patch{}, missing("screenplay has no dialogue")
	}
	lines = limit(lines, e.d.Limits.MaxDialogueLines)

	var outs types.Outputs
	var audio []types.AudioAsset
	for i, ln := range lines {
		res := e.speak(ctx, ports.SpeechRequest{Text: ln.Text, Character: ln.Character})
		if res.Status == ports.StatusFailed {
			e.log.Warn("dialogue line skipped", "character", ln.Character, "err", res.Err)
		} else {
			h := e.header(types.KindDialogueAudio, res.Source())
			outs = append(outs, types.DialogueAudioOutput{
				Header:    h,
				Character: ln.Character,
				Text:      ln.Text,
				Scene:     ln.Scene,
				VoiceID:   res.Value.VoiceID,
				AudioURL:  res.Value.URL,
			})
			audio = append(audio, types.AudioAsset{OutputID: h.ID, Character: ln.Character, Text: ln.Text, Scene: ln.Scene, URL: res.Value.URL})
		}
		if err := e.progress(ctx, types.PhaseDialogue, i+1, len(lines), "dialogue: "+ln.Character); err != nil {
			return nil, store.Patch{}, err
		}
	}
	if len(outs) == 0 {
		return nil, store.Patch{}, errs.ErrDialogueUnavailable
	}
	return outs, store.Patch{Assets: store.AssetsPatch{AudioDialogue: &audio}}, nil
}

func (e *Executor) video(ctx context.Context, st types.ProjectState, _ Inputs) (types.Outputs, store.Patch, error) {
	scenes := st.Screenplay.Scenes
	if len(scenes) == 0 {
		return nil, store.Patch{}, missing("no scenes; run phase 1 first")
	}
	scenes = limit(scenes, e.d.Limits.MaxVideoScenes)

	var outs types.Outputs
	clips := make([]types.VideoAsset, 0, len(scenes))
	for i, sc := range scenes {
		ref := sceneReference(st.Assets.SceneReferences, sc)
		sheet, character := sceneCharacter(st, sc)
		prompt := prompts.Video(sc, ref, sheet)

		shot := e.d.Shots.DescribeShot(ctx, ports.ShotRequest{Scene: sc, Character: character, Prompt: prompt})
		if shot.Err != nil {
			e.log.Info("stock shot description used", "scene", sc.Name, "err", shot.Err)
		}
		req := ports.VideoRequest{Scene: sc.Name, Prompt: prompt, DurationSec: sc.Duration()}
		if ref != nil {
			req.ImageURL = ref.URL
		}
		res := e.d.Video.GenerateVideo(ctx, req)

		h := e.header(types.KindVideoClip, res.Source())
		outs = append(outs, types.VideoClipOutput{
			Header:             h,
			Scene:              sc.Name,
			VideoURL:           res.Value.URL,
			Prompt:             prompt,
			VideoDescription:   shot.Value.Description,
			CameraInstructions: shot.Value.Camera,
			Lighting:           shot.Value.Lighting,
			DurationSec:        sc.Duration(),
			ThumbnailURL:       thumbnail(res.Value, ref),
			GeneratedBy:        generatedBy(res),
			JobID:              res.Value.JobID,
		})
		clips = append(clips, types.VideoAsset{OutputID: h.ID, Scene: sc.Name, URL: res.Value.URL, DurationSec: sc.Duration()})
		if err := e.progress(ctx, types.PhaseVideo, i+1, len(scenes), "video clip: "+sc.Name); err != nil {
			return nil, store.Patch{}, err
		}
	}
	return outs, store.Patch{Videos: store.VideosPatch{GeneratedClips: &clips}}, nil
}

func sceneReference(refs []types.ImageAsset, sc types.Scene) *types.ImageAsset {
	for i := range refs {
		if refs[i].Subject == sc.Name {
			return &refs[i]
		}
	}
	key := settingKey(sc)
	for i := range refs {
		r := types.Scene{Name: refs[i].Subject, Setting: refs[i].Setting}
		if settingKey(r) == key {
			return &refs[i]
		}
	}
	return nil
}

// sceneCharacter finds the first character of the scene that has a sheet.
func sceneCharacter(st types.ProjectState, sc types.Scene) (*types.ImageAsset, *types.Character) {
	for _, name := range sc.Characters {
		for i := range st.Assets.CharacterSheets {
			sheet := &st.Assets.CharacterSheets[i]
			if fold(sheet.Subject) != fold(name) {
				continue
			}
			for j := range st.Screenplay.Characters {
				if fold(st.Screenplay.Characters[j].Name) == fold(name) {
					c := st.Screenplay.Characters[j]
					return sheet, &c
				}
			}
			return sheet, nil
		}
	}
	return nil, nil
}

func thumbnail(v ports.Video, ref *types.ImageAsset) string {
	switch {
	case v.ThumbnailURL != "":
		return v.ThumbnailURL
	case ref != nil && ref.URL != "":
		return ref.URL
	}
	return samples.DefaultThumbnail
}

func generatedBy(r ports.Result[ports.Video]) string {
	if r.Status == ports.StatusLive && r.Value.Model != "" {
		return r.Value.Model
	}
	return "sample"
}

func (e *Executor) effects(ctx context.Context, st types.ProjectState, _ Inputs) (types.Outputs, store.Patch, error) {
	clips := st.Videos.GeneratedClips
	if len(clips) == 0 {
		return nil, store.Patch{}, missing("no generated clips; run phase 4 first")
	}
	var outs types.Outputs
	processed := make([]types.VideoAsset, 0, len(clips))
	for i, c := range clips {
		h := e.header(types.KindProcessedVideo, sourceOf(st, c.OutputID))
		outs = append(outs, types.ProcessedVideoOutput{
			Header:       h,
			Scene:        c.Scene,
			ClipID:       c.OutputID,
			Effects:      append([]string(nil), defaultEffects...),
			ProcessedURL: c.URL,
			DurationSec:  c.DurationSec,
		})
		processed = append(processed, types.VideoAsset{OutputID: h.ID, Scene: c.Scene, URL: c.URL, DurationSec: c.DurationSec})
		if err := e.progress(ctx, types.PhaseEffects, i+1, len(clips), "effects: "+c.Scene); err != nil {
			return nil, store.Patch{}, err
		}
	}
	return outs, store.Patch{Videos: store.VideosPatch{ProcessedClips: &processed}}, nil
}

func (e *Executor) overlays(ctx context.Context, st types.ProjectState, in Inputs) (types.Outputs, store.Patch, error) {
	overlays := cleanList(in.UIElements)
	if len(overlays) == 0 {
		overlays = defaultOverlays
	}
	clips := st.Videos.ProcessedClips
	if len(clips) == 0 {
		clips = st.Videos.GeneratedClips
	}
	var outs types.Outputs
	for i, c := range clips {
		outs = append(outs, types.OverlayVideoOutput{
			Header:       e.header(types.KindOverlayVideo, sourceOf(st, c.OutputID)),
			Scene:        c.Scene,
			ClipID:       c.OutputID,
			Overlays:     append([]string(nil), overlays...),
			OverlayedURL: c.URL,
			DurationSec:  c.DurationSec,
		})
		if err := e.progress(ctx, types.PhaseOverlays, i+1, len(clips), "overlays: "+c.Scene); err != nil {
			return nil, store.Patch{}, err
		}
	}
	return outs, store.Patch{}, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sourceOf carries a clip's provenance into the records derived from it.
func sourceOf(st types.ProjectState, outputID string) types.Source {
	for _, outs := range st.PhaseOutputs {
		for _, o := range outs {
			if o.Meta().ID == outputID {
				return o.Meta().Source
			}
		}
	}
	return types.SourceFallback
}

// timeline lays out overlay clips, else processed, else generated clips
// back to back.
func timeline(st types.ProjectState) ([]types.TimelineClip, float64) {
	var clips []types.TimelineClip
	for _, o := range st.PhaseOutputs[types.PhaseOverlays].OfKind(types.KindOverlayVideo) {
		ov := o.(types.OverlayVideoOutput)
		clips = append(clips, types.TimelineClip{Scene: ov.Scene, URL: ov.OverlayedURL, DurationSec: ov.DurationSec})
	}
	if len(clips) == 0 {
		src := st.Videos.ProcessedClips
		if len(src) == 0 {
			src = st.Videos.GeneratedClips
		}
		for _, c := range src {
			clips = append(clips, types.TimelineClip{Scene: c.Scene, URL: c.URL, DurationSec: c.DurationSec})
		}
	}
	var total float64
	for i := range clips {
		if clips[i].DurationSec <= 0 {
			clips[i].DurationSec = types.DefaultSceneDuration
		}
		clips[i].StartSec = total
		total += clips[i].DurationSec
	}
	return clips, total
}

func (e *Executor) assembly(ctx context.Context, st types.ProjectState, _ Inputs) (types.Outputs, store.Patch, error) {
	clips, total := timeline(st)
	if err := e.progress(ctx, types.PhaseAssembly, 1, 1, fmt.Sprintf("assembled %d clips", len(clips))); err != nil {
		return nil, store.Patch{}, err
	}
	out := types.AssembledVideoOutput{
		Header:           e.header(types.KindAssembledVideo, types.SourceFallback),
		Clips:            clips,
		TotalDurationSec: total,
		URL:              samples.AssembledVideo,
	}
	return types.Outputs{out}, store.Patch{}, nil
}

// latestAssembly returns the last assembled record, or one built from the
// current clips when assembly never ran.
func latestAssembly(st types.ProjectState) (id string, clips []types.TimelineClip, total float64) {
	if outs := st.PhaseOutputs[types.PhaseAssembly].OfKind(types.KindAssembledVideo); len(outs) > 0 {
		a := outs[len(outs)-1].(types.AssembledVideoOutput)
		return a.ID, append([]types.TimelineClip(nil), a.Clips...), a.TotalDurationSec
	}
	clips, total = timeline(st)
	return "", clips, total
}

func (e *Executor) sync(ctx context.Context, st types.ProjectState, in Inputs) (types.Outputs, store.Patch, error) {
	id, clips, total := latestAssembly(st)

	tracks := make([]types.AudioTrack, 0, len(st.Assets.AudioDialogue))
	for _, a := range st.Assets.AudioDialogue {
		tracks = append(tracks, types.AudioTrack{Character: a.Character, Text: a.Text, URL: a.URL})
	}
	var subs string
	if cues := subtitles.PlaceDialogue(st.Screenplay.Parsed.AllDialogue(), clips); len(cues) > 0 {
		subs = subtitles.RenderASS(cues)
	}
	if err := e.progress(ctx, types.PhaseSync, 1, 1, fmt.Sprintf("synced %d audio tracks", len(tracks))); err != nil {
		return nil, store.Patch{}, err
	}
	out := types.SyncedVideoOutput{
		Header:           e.header(types.KindSyncedVideo, types.SourceFallback),
		AssembledID:      id,
		Clips:            clips,
		TotalDurationSec: total,
		AudioTracks:      tracks,
		BackgroundMusic:  strings.TrimSpace(in.BackgroundMusic),
		Subtitles:        subs,
		URL:              samples.SyncedVideo,
	}
	return types.Outputs{out}, store.Patch{}, nil
}

func (e *Executor) export(ctx context.Context, st types.ProjectState, in Inputs) (types.Outputs, store.Patch, error) {
	settings := e.d.Export
	if in.Export != nil {
		settings = settings.Merge(*in.Export)
	}
	if err := settings.Validate(); err != nil {
		return nil, store.Patch{}, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}

	var syncedID string
	var total float64
	if outs := st.PhaseOutputs[types.PhaseSync].OfKind(types.KindSyncedVideo); len(outs) > 0 {
		s := outs[len(outs)-1].(types.SyncedVideoOutput)
		syncedID, total = s.ID, s.TotalDurationSec
	} else {
		_, _, total = latestAssembly(st)
	}

	title := "reelchemist"
	if p := st.Screenplay.Parsed; p != nil && Slug(p.Title) != "" {
		title = p.Title
	}
	filename := Slug(title) + "-final." + settings.Format
	if err := e.progress(ctx, types.PhaseExport, 1, 1, "exported "+filename); err != nil {
		return nil, store.Patch{}, err
	}

	url := samples.FinalVideo
	out := types.FinalVideoOutput{
		Header:           e.header(types.KindFinalVideo, types.SourceFallback),
		SyncedID:         syncedID,
		TotalDurationSec: total,
		Export:           settings,
		URL:              url,
		Filename:         filename,
	}
	return types.Outputs{out}, store.Patch{Videos: store.VideosPatch{FinalVideoURL: &url}}, nil
}
