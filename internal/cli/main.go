package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "reelchemist",
		Short:        "Turn a screenplay into a short video, one phase at a time",
		SilenceUsage: true,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/reelchemist/config.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("data-dir", "", "Project and key storage directory")

	root.AddCommand(
		newPhaseCmd(),
		newRunCmd(),
		newStatusCmd(),
		newPreviewCmd(),
		newDownloadCmd(),
		newKeysCmd(),
		newVoicesCmd(),
		newResetCmd(),
		newServeCmd(),
	)
	return root
}
