package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync with the remote store",
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Push local documents to the remote store",
	Long: `Push both documents to the remote store immediately.

Unlike the automatic background sync, this fails loudly: if the remote
is unreachable you get an error instead of a silently queued retry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()

		// A one-shot process has no accumulated pending set; everything
		// local counts as pending.
		a.coord.MarkPending(syncer.KindProgress)
		a.coord.MarkPending(syncer.KindExperiments)
		a.coord.SetOnline(a.monitor.Probe(ctx))

		err = a.coord.ForceSync(ctx)
		if errors.Is(err, syncer.ErrOffline) {
			return fmt.Errorf("remote store unreachable; try again later")
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s Synced\n", ui.RenderPass("✓"))
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		a.coord.SetOnline(a.monitor.Probe(cmd.Context()))
		status := a.coord.Status()
		if status.Online {
			fmt.Printf("Remote: %s\n", ui.RenderPass("online"))
		} else {
			fmt.Printf("Remote: %s\n", ui.RenderWarn("offline"))
		}
		if status.HasPending() {
			fmt.Printf("Pending: %v\n", status.Pending)
		} else {
			fmt.Println("Pending: none")
		}

		_, signedIn, err := a.ident.Current(cmd.Context())
		if err != nil {
			return err
		}
		if !signedIn {
			fmt.Println(ui.RenderDim("Not signed in; nothing will be pushed"))
		}
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncNowCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
