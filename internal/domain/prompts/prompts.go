package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/reelchemist/internal/types"
)

const parseInstructions = `You are a professional screenplay parser for AI film production. Parse this screenplay and return ONLY a valid JSON object with this exact structure:

{
  "title": "screenplay title",
  "genre": "genre",
  "characters": [
    {"name": "CHARACTER_NAME", "description": "detailed visual description for AI image generation", "emotions": ["emotion"]}
  ],
  "scenes": [
    {"name": "scene heading", "setting": "visual description", "mood": "lighting/atmosphere", "duration": 10, "characters": ["character names"], "description": "what happens in scene"}
  ],
  "dialogue": [
    {"character": "NAME", "text": "dialogue", "scene": "scene name", "emotion": "emotional tone"}
  ],
  "timeline": [
    {"scene": "scene name", "order": 1, "startTime": 0, "endTime": 10}
  ]
}

Screenplay:
`

// ParseScreenplay is the instruction sent to the text model for phase 1.
func ParseScreenplay(text string) string {
	return parseInstructions + text + "\n\nReturn ONLY the JSON object, no additional text:"
}

func CharacterSheet(c types.Character) string {
	return fmt.Sprintf("Generate a full-body character sheet for %s. %s. "+
		"The style is photorealistic, with a soft-focus, cinematic aesthetic. "+
		"Ensure consistent appearance across multiple poses.",
		c.Name, strings.TrimSuffix(strings.TrimSpace(c.Description), "."))
}

func SceneReference(s types.Scene) string {
	setting := s.Setting
	if setting == "" {
		setting = s.Name
	}
	desc := s.Description
	if desc == "" {
		desc = s.Name
	}
	return fmt.Sprintf("Generate a photorealistic image of %s. %s. The mood is %s. Cinematic lighting and composition.",
		trimDot(setting), trimDot(desc), trimDot(orDefault(s.Mood, "cinematic")))
}

// Video builds the composite prompt for one scene from the scene itself,
// its reference image record and the first character sheet that appears in
// it. Either reference may be nil.
func Video(s types.Scene, ref *types.ImageAsset, character *types.ImageAsset) string {
	var b strings.Builder
	subject := s.Description
	if subject == "" {
		subject = s.Name
	}
	fmt.Fprintf(&b, "Create a cinematic %s-second video of %s.", seconds(s.Duration()), trimDot(subject))
	if ref != nil {
		fmt.Fprintf(&b, " Setting: %s. Mood: %s.", trimDot(ref.Setting), trimDot(ref.Mood))
	}
	if character != nil && character.Detail != "" {
		fmt.Fprintf(&b, " Character: %s.", trimDot(character.Detail))
	}
	if s.Setting != "" {
		fmt.Fprintf(&b, " Environment: %s.", trimDot(s.Setting))
	}
	b.WriteString(" Style: Cinematic quality with professional lighting, smooth camera movements, and 16:9 aspect ratio. " +
		"Focus on visual storytelling and emotional atmosphere.")
	return b.String()
}

// Shot asks the text model to expand a video prompt into camera direction.
func Shot(videoPrompt string, durationSec float64) string {
	return fmt.Sprintf("Generate a detailed video description for: %s. "+
		"Create a cinematic, professional quality video scene that captures the mood and setting described. "+
		"Focus on visual storytelling, camera movements, lighting, and atmosphere. "+
		`Return only a JSON object with format: {"videoDescription": "detailed description", "cameraInstructions": "camera movements", "lighting": "lighting setup", "duration": %s}`,
		videoPrompt, seconds(durationSec))
}

func seconds(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func trimDot(s string) string { return strings.TrimRight(strings.TrimSpace(s), ".") }

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
