package types

import "time"

type ProjectState struct {
	Screenplay   Screenplay        `json:"screenplay"`
	Assets       Assets            `json:"assets"`
	Videos       Videos            `json:"videos"`
	CurrentPhase Phase             `json:"currentPhase"`
	PhaseOutputs map[Phase]Outputs `json:"phaseOutputs"`
}

// NewProjectState returns the initial state: phase 1, nothing generated.
func NewProjectState() ProjectState {
	return ProjectState{
		CurrentPhase: PhaseParse,
		PhaseOutputs: map[Phase]Outputs{},
	}
}

type Screenplay struct {
	RawText    string            `json:"rawText"`
	Parsed     *ParsedScreenplay `json:"parsed,omitempty"`
	Characters []Character       `json:"characters"`
	Scenes     []Scene           `json:"scenes"`
}

type ParsedScreenplay struct {
	Title      string          `json:"title"`
	Genre      string          `json:"genre,omitempty"`
	Characters []Character     `json:"characters"`
	Scenes     []Scene         `json:"scenes"`
	Dialogue   []DialogueLine  `json:"dialogue"`
	Timeline   []TimelineEntry `json:"timeline,omitempty"`
}

// AllDialogue returns the top-level dialogue followed by any lines that are
// only attached to scenes.
func (p *ParsedScreenplay) AllDialogue() []DialogueLine {
	if p == nil {
		return nil
	}
	if len(p.Dialogue) > 0 {
		return append([]DialogueLine(nil), p.Dialogue...)
	}
	var out []DialogueLine
	for _, sc := range p.Scenes {
		for _, ln := range sc.Dialogue {
			if ln.Scene == "" {
				ln.Scene = sc.Name
			}
			out = append(out, ln)
		}
	}
	return out
}

type Character struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Emotions    []string `json:"emotions,omitempty"`
}

type Scene struct {
	Name        string         `json:"name"`
	Setting     string         `json:"setting"`
	Mood        string         `json:"mood"`
	Description string         `json:"description,omitempty"`
	DurationSec float64        `json:"duration,omitempty"`
	Characters  []string       `json:"characters,omitempty"`
	Dialogue    []DialogueLine `json:"dialogue,omitempty"`
}

// DefaultSceneDuration applies to scenes and clips with no explicit duration.
const DefaultSceneDuration = 10.0

func (s Scene) Duration() float64 {
	if s.DurationSec <= 0 {
		return DefaultSceneDuration
	}
	return s.DurationSec
}

type DialogueLine struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	Scene     string `json:"scene,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
}

type TimelineEntry struct {
	Scene     string  `json:"scene"`
	Order     int     `json:"order"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

type Assets struct {
	CharacterSheets []ImageAsset `json:"characterSheets"`
	SceneReferences []ImageAsset `json:"sceneReferences"`
	AudioDialogue   []AudioAsset `json:"audioDialogue"`
}

type ImageAsset struct {
	OutputID string `json:"outputId"`
	Subject  string `json:"subject"`
	Setting  string `json:"setting,omitempty"`
	Mood     string `json:"mood,omitempty"`
	Detail   string `json:"detail,omitempty"`
	URL      string `json:"url"`
}

type AudioAsset struct {
	OutputID  string `json:"outputId"`
	Character string `json:"character"`
	Text      string `json:"text"`
	Scene     string `json:"scene,omitempty"`
	URL       string `json:"url"`
}

type Videos struct {
	GeneratedClips []VideoAsset `json:"generatedClips"`
	ProcessedClips []VideoAsset `json:"processedClips"`
	FinalVideoURL  string       `json:"finalVideoUrl,omitempty"`
}

type VideoAsset struct {
	OutputID    string  `json:"outputId"`
	Scene       string  `json:"scene"`
	URL         string  `json:"url"`
	DurationSec float64 `json:"duration"`
}

// Voice is one selectable text-to-speech voice.
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// EventPersistenceFailed marks a notification that a finished phase could
// not be saved. The phase result stands.
const EventPersistenceFailed = "persistence_failed"

// ProgressEvent reports a sub-step of a running phase. Kind is empty for
// plain progress.
type ProgressEvent struct {
	Phase   Phase     `json:"phase"`
	Kind    string    `json:"kind,omitempty"`
	Step    int       `json:"step"`
	Total   int       `json:"total"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
