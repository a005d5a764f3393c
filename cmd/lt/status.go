package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "plan",
	Short:   "Show plan progress and sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		summary, err := a.tracker.Progress(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ui.RenderTitle("Study plan"))
		fmt.Printf("  %s %.1f%%  (%d/%d tasks)\n",
			ui.ProgressBar(summary.Percent, 20),
			summary.Percent, summary.CompletedTasks, summary.TotalTasks)
		if summary.CurrentPhase != "" {
			fmt.Printf("  Current phase: %s\n", ui.RenderAccent(summary.CurrentPhase))
		}
		fmt.Println()

		for _, phase := range summary.Phases {
			done := 0
			for _, task := range phase.Tasks {
				if task.Completed {
					done++
				}
			}
			marker := ui.RenderDim("○")
			if len(phase.Tasks) > 0 && done == len(phase.Tasks) {
				marker = ui.RenderPass("●")
			} else if done > 0 {
				marker = ui.RenderWarn("◐")
			}
			fmt.Printf("  %s %s %s (%d/%d)\n",
				marker, phase.Name, ui.RenderDim(phase.Days), done, len(phase.Tasks))
		}
		fmt.Println()

		user, signedIn, err := a.ident.Current(ctx)
		if err != nil {
			return err
		}
		if signedIn {
			fmt.Printf("  Signed in as %s\n", user.Email)
		} else {
			fmt.Printf("  %s\n", ui.RenderDim("Not signed in; changes stay on this device"))
		}

		online := a.monitor.Probe(ctx)
		a.coord.SetOnline(online)
		status := a.coord.Status()
		if status.Online {
			fmt.Printf("  Remote: %s\n", ui.RenderPass("online"))
		} else {
			fmt.Printf("  Remote: %s\n", ui.RenderWarn("offline"))
		}
		if status.HasPending() {
			fmt.Printf("  Pending sync: %v\n", status.Pending)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
