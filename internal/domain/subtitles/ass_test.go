package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/reelchemist/internal/types"
)

func TestPlaceDialogue_SpreadsLinesOverSceneClips(t *testing.T) {
	clips := []types.TimelineClip{
		{Scene: "FLAT", DurationSec: 10, StartSec: 0},
		{Scene: "REALM", DurationSec: 20, StartSec: 10},
	}
	lines := []types.DialogueLine{
		{Character: "MAYA", Text: "One.", Scene: "FLAT"},
		{Character: "MAYA", Text: "Two.", Scene: "FLAT"},
		{Character: "KODEX", Text: "Three.", Scene: "REALM"},
		{Character: "MAYA", Text: "Stray.", Scene: "ELSEWHERE"},
		{Character: "MAYA", Text: "   ", Scene: "FLAT"},
	}
	got := PlaceDialogue(lines, clips)
	want := []Cue{
		{Speaker: "MAYA", Text: "One.", Start: 0, End: 5 * time.Second},
		{Speaker: "MAYA", Text: "Two.", Start: 5 * time.Second, End: 10 * time.Second},
		{Speaker: "KODEX", Text: "Three.", Start: 10 * time.Second, End: 30 * time.Second},
		{Speaker: "MAYA", Text: "Stray.", Start: 30 * time.Second, End: 33 * time.Second},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d cues, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cue %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRenderASS_KaraokeHasKTags(t *testing.T) {
	ass := RenderASS([]Cue{{Speaker: "MAYA", Text: "He wasn't {even} cute", Start: 0, End: 2 * time.Second}})
	if !strings.Contains(ass, "Dialogue: 0,0:00:00.00,0:00:02.00,Dialogue,MAYA,0,0,0,,{\\k50}He") {
		t.Fatalf("unexpected event line:\n%s", ass)
	}
	if strings.Contains(ass, "{even}") || !strings.Contains(ass, "(even)") {
		t.Fatalf("override braces must be neutralised:\n%s", ass)
	}
}

func TestRenderASS_WrapsLongLines(t *testing.T) {
	text := strings.Repeat("word ", 20)
	ass := RenderASS([]Cue{{Speaker: "KODEX", Text: text, Start: 0, End: 20 * time.Second}})
	if n := strings.Count(ass, "\nDialogue: "); n < 3 {
		t.Fatalf("expected long cue to wrap into several events, got %d:\n%s", n, ass)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
