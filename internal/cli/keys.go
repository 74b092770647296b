package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelchemist/internal/errs"
	"github.com/forPelevin/reelchemist/internal/keys"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect or store provider API keys",
	}
	cmd.AddCommand(newKeysListCmd(), newKeysSetCmd(), newKeysTestCmd())
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Classify every provider key without printing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			report, err := keys.Report(cmd.Context(), s.Keys)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tVARIABLE\tSTATE")
			for _, st := range report {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", st.Provider, st.Name, st.State)
			}
			return tw.Flush()
		},
	}
}

func newKeysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> <value|->",
		Short: `Store a provider key ("-" reads it from stdin)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := keys.ParseProvider(args[0])
			if err != nil {
				return err
			}
			value := args[1]
			if value == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
				value = strings.TrimSpace(string(b))
			}
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			if err := s.Keys.Set(cmd.Context(), p, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.EnvName(), keys.Classify(p, value))
			return nil
		},
	}
}

func newKeysTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <provider> [value|-]",
		Short: "Check a key against its provider; without a value the stored key is used",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := keys.ParseProvider(args[0])
			if err != nil {
				return err
			}
			var value string
			if len(args) == 2 {
				value = args[1]
			}
			if value == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
				value = strings.TrimSpace(string(b))
			}
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			res, err := s.TestKey(cmd.Context(), p, value)
			if err != nil {
				return err
			}
			switch {
			case res.Verified && res.Checked:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: accepted by %s\n", res.Name, p)
			case res.Verified:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (no live check for %s)\n", res.Name, res.State, p)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not accepted: %s\n", res.Name, res.Message)
				return fmt.Errorf("%s was not accepted", res.Name)
			}
			return nil
		},
	}
}

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the text-to-speech voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			res := s.Voices(cmd.Context())
			if res.Err != nil && !errors.Is(res.Err, errs.ErrProviderUnavailable) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: voice listing failed: %v\n", res.Err)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VOICE_ID\tNAME\tCATEGORY")
			for _, v := range res.Value {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.VoiceID, v.Name, v.Category)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print the voices as JSON")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the project; keys are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStudio(cmd)
			if err != nil {
				return err
			}
			if err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "project reset")
			return nil
		},
	}
}
