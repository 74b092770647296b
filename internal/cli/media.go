package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelchemist/internal/pipeline"
	"github.com/forPelevin/reelchemist/internal/types"
	"github.com/forPelevin/reelchemist/internal/usecase"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the output a player would show now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			o, err := s.Executor.Preview()
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), o)
			}
			printOutput(cmd.OutOrStdout(), o)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the output as JSON")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Write an output's media to disk",
		Long: "Write the media of the output given by --id, or of the current preview, " +
			"into a fresh directory under --out. Remote media is reported by URL.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			outRoot, _ := cmd.Flags().GetString("out")

			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			st := s.Store.Get()

			var o types.Output
			if id != "" {
				found, ok := usecase.FindOutput(st, id)
				if !ok {
					return fmt.Errorf("output %q not found", id)
				}
				o = found
			} else if o, err = usecase.Preview(st); err != nil {
				return err
			}

			m, err := usecase.Download(o)
			if err != nil {
				return err
			}
			if !m.Inline() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is remote: %s\n", m.Filename, m.URL)
				return nil
			}

			var title string
			if p := st.Screenplay.Parsed; p != nil {
				title = p.Title
			}
			path, err := pipeline.WriteMedia(outRoot, title, m, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", path, m.MIME, len(m.Data))
			return nil
		},
	}
	cmd.Flags().String("id", "", "Output id (default: the current preview)")
	cmd.Flags().String("out", "out", "Output directory")
	return cmd
}
