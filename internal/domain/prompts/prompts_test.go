package prompts

import (
	"strings"
	"testing"

	"github.com/forPelevin/reelchemist/internal/types"
)

func TestVideo_ComposesAvailableReferences(t *testing.T) {
	scene := types.Scene{Name: "DIGITAL REALM", Setting: "Glass floors.", Mood: "surreal", DurationSec: 30}
	ref := &types.ImageAsset{Subject: "DIGITAL REALM", Setting: "Surreal futuristic space", Mood: "dark blue"}
	char := &types.ImageAsset{Subject: "KODEX", Detail: "Sentient AI with holographic skin"}

	got := Video(scene, ref, char)
	for _, want := range []string{
		"Create a cinematic 30-second video of DIGITAL REALM.",
		"Setting: Surreal futuristic space. Mood: dark blue.",
		"Character: Sentient AI with holographic skin.",
		"Environment: Glass floors.",
		"16:9 aspect ratio",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}

	bare := Video(types.Scene{Name: "INT. ROOM - DAY"}, nil, nil)
	if !strings.HasPrefix(bare, "Create a cinematic 10-second video of INT. ROOM - DAY.") {
		t.Fatalf("unexpected bare prompt: %s", bare)
	}
	if strings.Contains(bare, "Setting:") || strings.Contains(bare, "Character:") {
		t.Fatalf("bare prompt should not mention missing references: %s", bare)
	}
}

func TestCharacterSheetAndScene(t *testing.T) {
	got := CharacterSheet(types.Character{Name: "MAYA", Description: "Young woman in a grey hoodie."})
	if !strings.HasPrefix(got, "Generate a full-body character sheet for MAYA. Young woman in a grey hoodie. The style") {
		t.Fatalf("unexpected character prompt: %s", got)
	}
	got = SceneReference(types.Scene{Name: "FLAT", Setting: "Cozy flat", Mood: "warm"})
	if got != "Generate a photorealistic image of Cozy flat. FLAT. The mood is warm. Cinematic lighting and composition." {
		t.Fatalf("unexpected scene prompt: %s", got)
	}
}

func TestParseScreenplay_EmbedsText(t *testing.T) {
	got := ParseScreenplay("INT. ROOM - DAY\nMAYA\nHello.")
	if !strings.Contains(got, "Screenplay:\nINT. ROOM - DAY\nMAYA\nHello.") || !strings.HasSuffix(got, "no additional text:") {
		t.Fatalf("unexpected parse prompt:\n%s", got)
	}
}
