package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/logging"
	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background sync daemon",
	Long: `Watch the data directory and push changes to the remote store.

The daemon debounces file changes, probes the remote on an interval,
and flushes queued work whenever connectivity returns. Run it in the
background while other lt commands (or anything else that edits the
documents) do their work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		daemon, err := syncer.NewDaemon(a.coord, a.monitor, a.config.DataDir, &syncer.DaemonConfig{
			Logger: logging.New(a.logWriter, "daemon"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Daemon watching %s\n", ui.RenderPass("✓"), a.config.DataDir)
		return daemon.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
