package types

import (
	"fmt"
	"strconv"
)

// Phase is one of the nine ordered production steps.
type Phase int

const (
	PhaseParse Phase = iota + 1
	PhaseDesign
	PhaseDialogue
	PhaseVideo
	PhaseEffects
	PhaseOverlays
	PhaseAssembly
	PhaseSync
	PhaseExport
)

const (
	FirstPhase = PhaseParse
	LastPhase  = PhaseExport
)

var phaseNames = map[Phase]string{
	PhaseParse:    "Screenplay Parsing",
	PhaseDesign:   "Character & Scene Design",
	PhaseDialogue: "Dialogue Audio",
	PhaseVideo:    "Video Generation",
	PhaseEffects:  "Visual Effects",
	PhaseOverlays: "UI Overlays",
	PhaseAssembly: "Video Assembly",
	PhaseSync:     "Audio Sync",
	PhaseExport:   "Final Export",
}

func (p Phase) Valid() bool { return p >= FirstPhase && p <= LastPhase }

func (p Phase) Name() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "Unknown"
}

func (p Phase) String() string { return fmt.Sprintf("phase %d (%s)", int(p), p.Name()) }

// Next is the phase after p, capped at the last one.
func (p Phase) Next() Phase {
	if p >= LastPhase {
		return LastPhase
	}
	return p + 1
}

func ParsePhase(s string) (Phase, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("phase %q: not a number", s)
	}
	p := Phase(n)
	if !p.Valid() {
		return 0, fmt.Errorf("phase %d: must be between %d and %d", n, FirstPhase, LastPhase)
	}
	return p, nil
}

func AllPhases() []Phase {
	out := make([]Phase, 0, LastPhase)
	for p := FirstPhase; p <= LastPhase; p++ {
		out = append(out, p)
	}
	return out
}
