package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/gen"
	"github.com/mschirtzinger/learntrack/internal/logging"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var (
	generatePhase    string
	generateCategory string
	generateYes      bool
)

var generateCmd = &cobra.Command{
	Use:     "generate <description...>",
	GroupID: "plan",
	Short:   "Generate tasks from a free-text description",
	Example: `  lt generate "learn to quantize the model and compare against the fp16 baseline" --phase phase4`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		generator, err := gen.New(gen.Config{
			Model:  a.config.Model,
			Logger: logging.New(a.logWriter, "gen"),
		})
		if err != nil {
			return err
		}

		goal := strings.Join(args, " ")
		if generateCategory != "" {
			goal += "\n\nFocus on the \"" + generateCategory + "\" category."
		}
		fmt.Printf("%s Generating tasks...\n", ui.RenderAccent("…"))

		tasks, err := generator.Generate(cmd.Context(), goal)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n", ui.RenderTitle(fmt.Sprintf("Proposed tasks (%d)", len(tasks))))
		for _, task := range tasks {
			fmt.Printf("  %s %s  %s\n", ui.RenderDim(task.ID), task.Title, ui.RenderDim(task.Day))
			if task.Notes != "" {
				fmt.Printf("     %s\n", ui.RenderDim(task.Notes))
			}
		}
		fmt.Println()

		if !generateYes && isTerminal() {
			confirmed, err := confirm(fmt.Sprintf("Add %d tasks to %s?", len(tasks), generatePhase))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Discarded")
				return nil
			}
		}

		if err := a.tracker.AddTasks(cmd.Context(), generatePhase, tasks); err != nil {
			return err
		}
		fmt.Printf("%s Added %d tasks to %s\n", ui.RenderPass("✓"), len(tasks), generatePhase)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generatePhase, "phase", "phase1", "phase to add the tasks to")
	generateCmd.Flags().StringVar(&generateCategory, "category", "", "steer drafts toward one category (setup|yolo|ga|analysis)")
	generateCmd.Flags().BoolVarP(&generateYes, "yes", "y", false, "add without confirmation")
	rootCmd.AddCommand(generateCmd)
}
