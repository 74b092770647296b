package usecase

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/types"
)

func TestPreview(t *testing.T) {
	h := newHarness(t, Limits{})
	if _, err := h.exec.Preview(); !errors.Is(err, errs.ErrNothingToPreview) {
		t.Fatalf("err = %v, want ErrNothingToPreview", err)
	}

	h.runThrough(t, types.PhaseDesign)
	if _, err := h.exec.Preview(); !errors.Is(err, errs.ErrNothingToPreview) {
		t.Fatalf("images must not be previewed as video, err = %v", err)
	}

	h.runThrough(t, types.PhaseEffects)
	o, err := h.exec.Preview()
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if o.Meta().Type != types.KindProcessedVideo {
		t.Fatalf("preview type = %s, want processed_video", o.Meta().Type)
	}

	h.runThrough(t, types.PhaseExport)
	o, err = h.exec.Preview()
	if err != nil || o.Meta().Type != types.KindFinalVideo {
		t.Fatalf("preview = %v, %v; want final video", o, err)
	}
}

func TestDownload(t *testing.T) {
	cases := []struct {
		name     string
		out      types.Output
		wantName string
		wantURL  bool
		wantMIME string
	}{
		{
			name:     "silent wav",
			out:      types.DialogueAudioOutput{Header: types.Header{ID: "0123456789", Type: types.KindDialogueAudio}, AudioURL: samples.SilentWAV},
			wantName: "dialogue_audio-01234567.wav",
			wantMIME: "audio/wav",
		},
		{
			name:     "remote clip",
			out:      types.VideoClipOutput{Header: types.Header{ID: "abc", Type: types.KindVideoClip}, VideoURL: samples.VideoURL("x")},
			wantName: "video_clip-abc.mp4",
			wantURL:  true,
			wantMIME: "video/mp4",
		},
		{
			name:     "final placeholder",
			out:      types.FinalVideoOutput{Header: types.Header{ID: "f", Type: types.KindFinalVideo}, URL: samples.FinalVideo, Filename: "left-swipe-final.mov"},
			wantName: "left-swipe-final.mp4",
			wantMIME: "video/mp4",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Download(tc.out)
			if err != nil {
				t.Fatalf("download: %v", err)
			}
			if m.Filename != tc.wantName || m.MIME != tc.wantMIME {
				t.Fatalf("got %q (%s), want %q (%s)", m.Filename, m.MIME, tc.wantName, tc.wantMIME)
			}
			if m.Inline() == tc.wantURL {
				t.Fatalf("inline = %v, want %v", m.Inline(), !tc.wantURL)
			}
			if m.Inline() && len(m.Data) == 0 {
				t.Fatalf("no inline data")
			}
		})
	}

	m, err := Download(types.DialogueAudioOutput{Header: types.Header{ID: "x"}, AudioURL: samples.SilentWAV})
	if err != nil || !bytes.HasPrefix(m.Data, []byte("RIFF")) {
		t.Fatalf("silent wav not decoded: %v %q", err, m.Data)
	}

	if _, err := Download(types.ParsedScreenplayOutput{}); !errors.Is(err, errs.ErrNothingToPreview) {
		t.Fatalf("err = %v, want ErrNothingToPreview", err)
	}
	if _, err := Download(types.VideoClipOutput{VideoURL: "not a url"}); err == nil || !strings.Contains(err.Error(), "bad media reference") {
		t.Fatalf("err = %v", err)
	}
}

func TestFindOutput(t *testing.T) {
	h := newHarness(t, Limits{})
	h.runThrough(t, types.PhaseDesign)
	st := h.store.Get()
	want := st.PhaseOutputs[types.PhaseDesign][1]

	got, ok := FindOutput(st, want.Meta().ID)
	if !ok || got.Meta().ID != want.Meta().ID {
		t.Fatalf("FindOutput = %v, %v", got, ok)
	}
	if _, ok := FindOutput(st, "missing"); ok {
		t.Fatal("found an output that does not exist")
	}
}
