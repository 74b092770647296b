package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelchemist/internal/config"
	"github.com/forPelevin/reelchemist/internal/domain/samples"
	"github.com/forPelevin/reelchemist/internal/pipeline"
	"github.com/forPelevin/reelchemist/internal/ports"
	"github.com/forPelevin/reelchemist/internal/types"
	"github.com/forPelevin/reelchemist/internal/usecase"
)

// setup loads the config and builds the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	level := cfg.LogLevel
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
	return cfg, log, nil
}

// openStudio wires a studio that reports progress through the logger and
// picks up the saved project.
func openStudio(cmd *cobra.Command) (*pipeline.Studio, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	s := pipeline.New(cfg, log, progressLog(log))
	s.Restore(cmd.Context())
	return s, nil
}

func progressLog(log *slog.Logger) ports.Notifier {
	log = log.With("component", "progress")
	return ports.NotifierFunc(func(_ context.Context, ev types.ProgressEvent) {
		if ev.Kind != "" {
			log.Warn(ev.Message, "phase", int(ev.Phase), "kind", ev.Kind)
			return
		}
		log.Info(ev.Message, "phase", int(ev.Phase), "step", fmt.Sprintf("%d/%d", ev.Step, ev.Total))
	})
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("screenplay-file", "", `Screenplay text file for phase 1 ("-" reads stdin)`)
	cmd.Flags().Bool("sample", false, "Use the bundled sample screenplay for phase 1")
	cmd.Flags().StringSlice("ui", nil, "UI overlay elements for phase 6")
	cmd.Flags().String("music", "", "Background music reference for phase 8")
	cmd.Flags().String("resolution", "", "Export resolution, e.g. 1920x1080")
	cmd.Flags().Int("fps", 0, "Export frame rate")
	cmd.Flags().String("format", "", "Export format: mp4, mov, webm")
	cmd.Flags().String("quality", "", "Export quality: low, medium, high, ultra")
	cmd.Flags().Bool("json", false, "Print outputs as JSON")
}

func readInputs(cmd *cobra.Command) (usecase.Inputs, error) {
	var in usecase.Inputs
	file, _ := cmd.Flags().GetString("screenplay-file")
	sample, _ := cmd.Flags().GetBool("sample")
	switch {
	case file != "" && sample:
		return in, fmt.Errorf("--screenplay-file and --sample are mutually exclusive")
	case sample:
		in.Screenplay = samples.ScreenplayText
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return in, fmt.Errorf("read screenplay: %w", err)
		}
		in.Screenplay = string(b)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return in, fmt.Errorf("read screenplay: %w", err)
		}
		in.Screenplay = string(b)
	}

	in.UIElements, _ = cmd.Flags().GetStringSlice("ui")
	in.BackgroundMusic, _ = cmd.Flags().GetString("music")

	var ex types.ExportSettings
	ex.Resolution, _ = cmd.Flags().GetString("resolution")
	ex.FPS, _ = cmd.Flags().GetInt("fps")
	ex.Format, _ = cmd.Flags().GetString("format")
	ex.Quality, _ = cmd.Flags().GetString("quality")
	if ex != (types.ExportSettings{}) {
		in.Export = &ex
	}
	return in, nil
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase <n>",
		Short: "Run one production phase (1-9)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParsePhase(args[0])
			if err != nil {
				return err
			}
			in, err := readInputs(cmd)
			if err != nil {
				return err
			}
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			outs, err := s.RunPhase(cmd.Context(), p, in)
			if err != nil {
				return err
			}
			return printPhase(cmd, p, outs, s.Store.Get().CurrentPhase)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every remaining phase from the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInputs(cmd)
			if err != nil {
				return err
			}
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			start := s.Store.Get().CurrentPhase
			all, err := s.RunRemaining(cmd.Context(), in)
			for i, outs := range all {
				if perr := printPhase(cmd, start+types.Phase(i), outs, s.Store.Get().CurrentPhase); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current phase and what each phase produced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			st := s.Store.Get()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			w := cmd.OutOrStdout()
			if p := st.Screenplay.Parsed; p != nil && p.Title != "" {
				fmt.Fprintf(w, "title: %s\n", p.Title)
			}
			fmt.Fprintf(w, "current: %s\n", st.CurrentPhase)
			for _, p := range types.AllPhases() {
				outs, ran := st.PhaseOutputs[p]
				mark := " "
				switch {
				case ran:
					mark = "x"
				case p == st.CurrentPhase:
					mark = ">"
				}
				fmt.Fprintf(w, "[%s] %d %-26s %d output(s)\n", mark, int(p), p.Name(), len(outs))
			}
			if st.Videos.FinalVideoURL != "" {
				fmt.Fprintf(w, "final: %s\n", short(st.Videos.FinalVideoURL))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the project state as JSON")
	return cmd
}

func printPhase(cmd *cobra.Command, p types.Phase, outs types.Outputs, next types.Phase) error {
	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(w, map[string]any{"phase": p, "name": p.Name(), "outputs": outs, "currentPhase": next})
	}
	fmt.Fprintf(w, "%s: %d output(s)\n", p, len(outs))
	for _, o := range outs {
		printOutput(w, o)
	}
	return nil
}

func printOutput(w io.Writer, o types.Output) {
	h := o.Meta()
	line := fmt.Sprintf("  %-18s %s  %-8s", h.Type, h.ID, h.Source)
	switch v := o.(type) {
	case types.ParsedScreenplayOutput:
		line += fmt.Sprintf(" %q: %d character(s), %d scene(s), %d line(s)",
			v.Screenplay.Title, len(v.Screenplay.Characters), len(v.Screenplay.Scenes), len(v.Screenplay.AllDialogue()))
	case types.CharacterSheetOutput:
		line += " " + v.Character
	case types.SceneReferenceOutput:
		line += " " + v.Scene
	case types.DialogueAudioOutput:
		line += fmt.Sprintf(" %s: %q", v.Character, v.Text)
	case types.VideoClipOutput:
		line += fmt.Sprintf(" %s (%s)", v.Scene, v.GeneratedBy)
	case types.ProcessedVideoOutput:
		line += fmt.Sprintf(" %s [%s]", v.Scene, strings.Join(v.Effects, ", "))
	case types.OverlayVideoOutput:
		line += fmt.Sprintf(" %s [%s]", v.Scene, strings.Join(v.Overlays, ", "))
	case types.AssembledVideoOutput:
		line += fmt.Sprintf(" %d clip(s), %.0fs", len(v.Clips), v.TotalDurationSec)
	case types.SyncedVideoOutput:
		line += fmt.Sprintf(" %d track(s), %.0fs", len(v.AudioTracks), v.TotalDurationSec)
	case types.FinalVideoOutput:
		line += fmt.Sprintf(" %s %s@%dfps", v.Filename, v.Export.Resolution, v.Export.FPS)
	}
	fmt.Fprintln(w, line)
	if ref := o.MediaRef(); ref != "" {
		fmt.Fprintf(w, "    %s\n", short(ref))
	}
}

// short keeps data URIs from flooding the terminal.
func short(ref string) string {
	const width = 72
	if strings.HasPrefix(ref, "data:") && len(ref) > width {
		return ref[:width] + "..."
	}
	return ref
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
