package usecase

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/types"
)

// Preview returns the output the player should show: the final video once
// exported, otherwise the newest video-bearing output of the latest phase
// that has one.
func (e *Executor) Preview() (types.Output, error) {
	return Preview(e.d.Store.Get())
}

func Preview(st types.ProjectState) (types.Output, error) {
	if st.Videos.FinalVideoURL != "" {
		if outs := st.PhaseOutputs[types.PhaseExport].OfKind(types.KindFinalVideo); len(outs) > 0 {
			return outs[len(outs)-1], nil
		}
	}
	for p := types.LastPhase; p >= types.FirstPhase; p-- {
		outs := st.PhaseOutputs[p]
		for i := len(outs) - 1; i >= 0; i-- {
			if outs[i].Meta().Type.IsVideo() && outs[i].MediaRef() != "" {
				return outs[i], nil
			}
		}
	}
	return nil, errs.ErrNothingToPreview
}

// Media is a resolved output: inline bytes for data URIs, or a remote URL
// the caller fetches itself.
type Media struct {
	Filename string
	MIME     string
	Data     []byte
	URL      string
}

func (m Media) Inline() bool { return m.URL == "" }

// Download turns an output's content reference into Media.
func Download(o types.Output) (Media, error) {
	ref := strings.TrimSpace(o.MediaRef())
	if ref == "" {
		return Media{}, fmt.Errorf("%w: %s has no media", errs.ErrNothingToPreview, o.Meta().Type)
	}
	base := string(o.Meta().Type) + "-" + shortID(o.Meta().ID)
	if f, ok := o.(types.FinalVideoOutput); ok && f.Filename != "" {
		base = strings.TrimSuffix(f.Filename, path.Ext(f.Filename))
	}

	if strings.HasPrefix(ref, "data:") {
		mt, data, err := decodeDataURI(ref)
		if err != nil {
			return Media{}, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
		}
		return Media{Filename: base + extFor(mt), MIME: mt, Data: data}, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return Media{}, fmt.Errorf("%w: bad media reference %q", errs.ErrInvalidInput, ref)
	}
	ext := strings.ToLower(path.Ext(u.Path))
	mt := typeFor(ext)
	if ext == "" {
		ext = ".bin"
	}
	return Media{Filename: base + ext, MIME: mt, URL: ref}, nil
}

// decodeDataURI accepts base64 payloads only; anything that fails to decode
// (the placeholder references among them) is returned as raw text.
func decodeDataURI(ref string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("data uri without payload")
	}
	mt := meta
	isB64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		mt, isB64 = m, true
	}
	if mt == "" {
		mt = "text/plain"
	}
	if !isB64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, err
		}
		return mt, []byte(text), nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return mt, []byte(payload), nil
	}
	return mt, b, nil
}

var knownTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".png":  "image/png",
	".jpg":  "image/jpeg",
}

func typeFor(ext string) string {
	if mt, ok := knownTypes[ext]; ok {
		return mt
	}
	return mime.TypeByExtension(ext)
}

func extFor(mt string) string {
	switch mt {
	case "video/mp4":
		return ".mp4"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FindOutput looks an output up by ID across every phase.
func FindOutput(st types.ProjectState, id string) (types.Output, bool) {
	for _, p := range types.AllPhases() {
		for _, o := range st.PhaseOutputs[p] {
			if o.Meta().ID == id {
				return o, true
			}
		}
	}
	return nil, false
}
