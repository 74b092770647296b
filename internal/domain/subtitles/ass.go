package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/reelchemist/internal/types"
)

// Cue is one spoken line placed on the assembled timeline.
type Cue struct {
	Speaker string
	Text    string
	Start   time.Duration
	End     time.Duration
}

// defaultLine is the slot a line gets when its scene is not on the timeline.
const defaultLine = 3 * time.Second

// PlaceDialogue spreads each scene's lines evenly across that scene's clip.
// Lines whose scene has no clip are queued after the last clip.
func PlaceDialogue(lines []types.DialogueLine, clips []types.TimelineClip) []Cue {
	byScene := map[string][]types.DialogueLine{}
	var orphans []types.DialogueLine
	known := map[string]bool{}
	for _, c := range clips {
		known[c.Scene] = true
	}
	for _, ln := range lines {
		if strings.TrimSpace(ln.Text) == "" {
			continue
		}
		if known[ln.Scene] {
			byScene[ln.Scene] = append(byScene[ln.Scene], ln)
			continue
		}
		orphans = append(orphans, ln)
	}

	var out []Cue
	var end time.Duration
	for _, c := range clips {
		start := dur(c.StartSec)
		length := dur(c.DurationSec)
		if e := start + length; e > end {
			end = e
		}
		group := byScene[c.Scene]
		if len(group) == 0 {
			continue
		}
		// a scene repeated on the timeline only speaks in its first clip
		delete(byScene, c.Scene)
		slot := length / time.Duration(len(group))
		for i, ln := range group {
			s := start + time.Duration(i)*slot
			out = append(out, Cue{Speaker: ln.Character, Text: ln.Text, Start: s, End: s + slot})
		}
	}
	for _, ln := range orphans {
		out = append(out, Cue{Speaker: ln.Character, Text: ln.Text, Start: end, End: end + defaultLine})
		end += defaultLine
	}
	return out
}

// RenderASS writes the cues as an ASS script with per-word karaoke timing.
func RenderASS(cues []Cue) string {
	var lines []line
	for _, c := range cues {
		words := spreadWords(c)
		if len(words) == 0 {
			continue
		}
		for _, ln := range packWords(words) {
			ln.Speaker = c.Speaker
			lines = append(lines, ln)
		}
	}
	return renderASSKaraoke(lines)
}

type wword struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type line struct {
	Speaker string
	Start   time.Duration
	End     time.Duration
	Words   []wword
}

// spreadWords gives every word of a cue an equal share of its duration.
func spreadWords(c Cue) []wword {
	fields := strings.Fields(c.Text)
	if len(fields) == 0 || c.End <= c.Start {
		return nil
	}
	step := (c.End - c.Start) / time.Duration(len(fields))
	out := make([]wword, 0, len(fields))
	for i, f := range fields {
		s := c.Start + time.Duration(i)*step
		e := s + step
		if i == len(fields)-1 {
			e = c.End
		}
		out = append(out, wword{Start: s, End: e, Text: sanitizeASS(f)})
	}
	return out
}

func packWords(words []wword) []line {
	var out []line
	cur := line{Start: words[0].Start}
	charBudget := 42
	wordBudget := 9
	curLen := 0
	for i, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if len(cur.Words) > 0 && (len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func renderASSKaraoke(lines []line) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Dialogue,")
		b.WriteString(sanitizeName(ln.Speaker))
		b.WriteString(",0,0,0,,")
		for i, w := range ln.Words {
			durCS := int((w.End - w.Start) / (10 * time.Millisecond))
			if durCS < 1 {
				durCS = 1
			}
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "{\\k%d}%s", durCS, w.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
Title: reelchemist dialogue
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Dialogue, Inter, 64, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,2,2, 80,80,70,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

// sanitizeName keeps the Name field from breaking the comma separated event.
func sanitizeName(s string) string {
	return strings.ReplaceAll(sanitizeASS(s), ",", " ")
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
