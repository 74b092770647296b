package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type OutputKind string

const (
	KindParsedScreenplay OutputKind = "parsed_screenplay"
	KindCharacterSheet   OutputKind = "character_sheet"
	KindSceneReference   OutputKind = "scene_reference"
	KindDialogueAudio    OutputKind = "dialogue_audio"
	KindVideoClip        OutputKind = "video_clip"
	KindProcessedVideo   OutputKind = "processed_video"
	KindOverlayVideo     OutputKind = "overlay_video"
	KindAssembledVideo   OutputKind = "assembled_video"
	KindSyncedVideo      OutputKind = "synced_video"
	KindFinalVideo       OutputKind = "final_video"
)

// IsVideo reports whether outputs of this kind carry a playable video.
func (k OutputKind) IsVideo() bool {
	switch k {
	case KindVideoClip, KindProcessedVideo, KindOverlayVideo,
		KindAssembledVideo, KindSyncedVideo, KindFinalVideo:
		return true
	}
	return false
}

// Source records whether an output came from a real provider call.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type Header struct {
	ID        string     `json:"id"`
	Type      OutputKind `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Source    Source     `json:"source"`
}

func (h Header) Meta() Header { return h }

// Output is one immutable artifact produced by a phase. The set of
// implementations is closed: one struct per OutputKind.
type Output interface {
	Meta() Header
	// MediaRef is the renderable content reference (URL or data URI), empty
	// for outputs that carry no media.
	MediaRef() string
	isOutput()
}

type ParsedScreenplayOutput struct {
	Header
	Screenplay ParsedScreenplay `json:"data"`
}

type CharacterSheetOutput struct {
	Header
	Character   string `json:"character"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image"`
}

type SceneReferenceOutput struct {
	Header
	Scene    string `json:"scene"`
	Setting  string `json:"setting"`
	Mood     string `json:"mood"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image"`
}

type DialogueAudioOutput struct {
	Header
	Character string `json:"character"`
	Text      string `json:"text"`
	Scene     string `json:"scene,omitempty"`
	VoiceID   string `json:"voiceId,omitempty"`
	AudioURL  string `json:"audioUrl"`
}

type VideoClipOutput struct {
	Header
	Scene              string  `json:"scene"`
	VideoURL           string  `json:"videoUrl"`
	Prompt             string  `json:"prompt"`
	VideoDescription   string  `json:"videoDescription,omitempty"`
	CameraInstructions string  `json:"cameraInstructions,omitempty"`
	Lighting           string  `json:"lighting,omitempty"`
	DurationSec        float64 `json:"duration"`
	ThumbnailURL       string  `json:"thumbnailUrl,omitempty"`
	GeneratedBy        string  `json:"generatedBy"`
	JobID              string  `json:"jobId,omitempty"`
}

type ProcessedVideoOutput struct {
	Header
	Scene        string   `json:"scene"`
	ClipID       string   `json:"clipId"`
	Effects      []string `json:"effects"`
	ProcessedURL string   `json:"processedUrl"`
	DurationSec  float64  `json:"duration"`
}

type OverlayVideoOutput struct {
	Header
	Scene        string   `json:"scene"`
	ClipID       string   `json:"clipId"`
	Overlays     []string `json:"overlays"`
	OverlayedURL string   `json:"overlayedUrl"`
	DurationSec  float64  `json:"duration"`
}

type TimelineClip struct {
	Scene       string  `json:"scene"`
	URL         string  `json:"url"`
	DurationSec float64 `json:"duration"`
	StartSec    float64 `json:"start"`
}

type AssembledVideoOutput struct {
	Header
	Clips            []TimelineClip `json:"clips"`
	TotalDurationSec float64        `json:"totalDuration"`
	URL              string         `json:"url"`
}

type AudioTrack struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	URL       string `json:"url"`
}

type SyncedVideoOutput struct {
	Header
	AssembledID      string         `json:"assembledId,omitempty"`
	Clips            []TimelineClip `json:"clips"`
	TotalDurationSec float64        `json:"totalDuration"`
	AudioTracks      []AudioTrack   `json:"audioTracks"`
	BackgroundMusic  string         `json:"backgroundMusic,omitempty"`
	Subtitles        string         `json:"subtitles,omitempty"`
	URL              string         `json:"url"`
}

type FinalVideoOutput struct {
	Header
	SyncedID         string         `json:"syncedId,omitempty"`
	TotalDurationSec float64        `json:"totalDuration"`
	Export           ExportSettings `json:"exportSettings"`
	URL              string         `json:"url"`
	Filename         string         `json:"filename"`
}

func (ParsedScreenplayOutput) isOutput() {}
func (CharacterSheetOutput) isOutput()   {}
func (SceneReferenceOutput) isOutput()   {}
func (DialogueAudioOutput) isOutput()    {}
func (VideoClipOutput) isOutput()        {}
func (ProcessedVideoOutput) isOutput()   {}
func (OverlayVideoOutput) isOutput()     {}
func (AssembledVideoOutput) isOutput()   {}
func (SyncedVideoOutput) isOutput()      {}
func (FinalVideoOutput) isOutput()       {}

func (ParsedScreenplayOutput) MediaRef() string { return "" }
func (o CharacterSheetOutput) MediaRef() string { return o.ImageURL }
func (o SceneReferenceOutput) MediaRef() string { return o.ImageURL }
func (o DialogueAudioOutput) MediaRef() string  { return o.AudioURL }
func (o VideoClipOutput) MediaRef() string      { return o.VideoURL }
func (o ProcessedVideoOutput) MediaRef() string { return o.ProcessedURL }
func (o OverlayVideoOutput) MediaRef() string   { return o.OverlayedURL }
func (o AssembledVideoOutput) MediaRef() string { return o.URL }
func (o SyncedVideoOutput) MediaRef() string    { return o.URL }
func (o FinalVideoOutput) MediaRef() string     { return o.URL }

// Outputs is the ordered output list of one phase.
type Outputs []Output

// OfKind returns the outputs whose type is k, preserving order.
func (outs Outputs) OfKind(k OutputKind) Outputs {
	var out Outputs
	for _, o := range outs {
		if o.Meta().Type == k {
			out = append(out, o)
		}
	}
	return out
}

func (outs *Outputs) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	if raws == nil {
		*outs = nil
		return nil
	}
	out := make(Outputs, 0, len(raws))
	for i, raw := range raws {
		o, err := decodeOutput(raw)
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		out = append(out, o)
	}
	*outs = out
	return nil
}

func decodeOutput(raw json.RawMessage) (Output, error) {
	var peek struct {
		Type OutputKind `json:"type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, err
	}
	switch peek.Type {
	case KindParsedScreenplay:
		return decodeAs[ParsedScreenplayOutput](raw)
	case KindCharacterSheet:
		return decodeAs[CharacterSheetOutput](raw)
	case KindSceneReference:
		return decodeAs[SceneReferenceOutput](raw)
	case KindDialogueAudio:
		return decodeAs[DialogueAudioOutput](raw)
	case KindVideoClip:
		return decodeAs[VideoClipOutput](raw)
	case KindProcessedVideo:
		return decodeAs[ProcessedVideoOutput](raw)
	case KindOverlayVideo:
		return decodeAs[OverlayVideoOutput](raw)
	case KindAssembledVideo:
		return decodeAs[AssembledVideoOutput](raw)
	case KindSyncedVideo:
		return decodeAs[SyncedVideoOutput](raw)
	case KindFinalVideo:
		return decodeAs[FinalVideoOutput](raw)
	default:
		return nil, fmt.Errorf("unknown output type %q", peek.Type)
	}
}

func decodeAs[T Output](raw json.RawMessage) (Output, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
