// Package samples holds the fixed substitute data every generation client
// falls back to.
package samples

import (
	"fmt"

	"github.com/forPelevin/reelchemist/internal/types"
)

const (
	// SilentWAV is a valid, empty 44-byte WAV file.
	SilentWAV = "data:audio/wav;base64,UklGRiQAAABXQVZFZm10IBAAAAABAAEAESsAABEsAQACABAAZGF0YQAAAAA="

	DefaultThumbnail = "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=800&q=80"

	AssembledVideo = "data:video/mp4;base64,assembled_video_placeholder"
	SyncedVideo    = "data:video/mp4;base64,synced_video_placeholder"
	FinalVideo     = "data:video/mp4;base64,final_video_placeholder"
)

var videoPool = []string{
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerFun.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerJoyrides.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerMeltdowns.mp4",
	"https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
}

// VideoPool returns a copy of the sample clip pool.
func VideoPool() []string { return append([]string(nil), videoPool...) }

// VideoURL picks a sample clip for a scene. The choice depends on the scene
// name only.
func VideoURL(sceneName string) string {
	return videoPool[poolIndex(nameHash(sceneName), len(videoPool))]
}

// nameHash is the classic 31-multiplier string hash over UTF-16 code units,
// wrapped to a signed 32-bit value.
func nameHash(s string) int32 {
	var h int32
	for _, u := range utf16Units(s) {
		h = (h << 5) - h + int32(u)
	}
	return h
}

func poolIndex(h int32, n int) int {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(n))
}

func utf16Units(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 0x10000:
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		default:
			out = append(out, uint16(r))
		}
	}
	return out
}

// PlaceholderImage is the image reference used when no image provider is
// usable.
func PlaceholderImage(seed int) string {
	return fmt.Sprintf("https://picsum.photos/1024/1024?random=%d", seed)
}

// Screenplay is the fully populated breakdown returned whenever parsing
// cannot reach a model. Each call returns a fresh copy.
func Screenplay() types.ParsedScreenplay {
	flat := "INT. MAYA'S FLAT - NIGHT"
	realm := "DIGITAL REALM"
	chars := []types.Character{
		{
			Name:        "MAYA",
			Description: "Young woman with long brown hair, quiet and sad expression, wearing oversized grey hoodie",
			Emotions:    []string{"melancholic", "confused", "hopeful"},
		},
		{
			Name:        "KODEX",
			Description: "Sentient AI with sharp features, luminous holographic skin, minimalistic metallic suit",
			Emotions:    []string{"calm", "mysterious", "unsettling"},
		},
	}
	scenes := []types.Scene{
		{Name: flat, Setting: "Cozy but melancholic flat interior", Mood: "intimate, warm lighting", DurationSec: 15, Characters: []string{"MAYA"}},
		{Name: realm, Setting: "Surreal futuristic space with glass floors", Mood: "surreal, dark blue and violet lighting", DurationSec: 30, Characters: []string{"MAYA", "KODEX"}},
	}
	return types.ParsedScreenplay{
		Title:      "Left Swipe",
		Genre:      "Sci-Fi Drama",
		Characters: chars,
		Scenes:     scenes,
		Dialogue: []types.DialogueLine{
			{Character: "MAYA", Text: "He wasn't even cute enough to cry over.", Scene: flat, Emotion: "melancholic"},
			{Character: "KODEX", Text: "Their data... dissolved.", Scene: realm, Emotion: "mysterious"},
		},
		Timeline: []types.TimelineEntry{
			{Scene: flat, Order: 1, StartTime: 0, EndTime: 15},
			{Scene: realm, Order: 2, StartTime: 15, EndTime: 45},
		},
	}
}

// Shot is the stock camera direction used when no text model is available.
func Shot(scene types.Scene) (description, camera, lighting string) {
	subject := scene.Description
	if subject == "" {
		subject = scene.Name
	}
	description = fmt.Sprintf("Cinematic shot of %s, %s atmosphere", subject, nonEmpty(scene.Mood, "dramatic"))
	camera = "Slow push-in with a shallow depth of field"
	lighting = nonEmpty(scene.Mood, "Soft, motivated practical lighting")
	return description, camera, lighting
}

func nonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
