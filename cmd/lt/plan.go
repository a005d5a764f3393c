package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/plan"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var planCmd = &cobra.Command{
	Use:     "plan",
	GroupID: "plan",
	Short:   "Manage the study plan itself",
}

var planImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the plan with one from a YAML, TOML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		phases, err := plan.LoadPlanFile(args[0])
		if err != nil {
			return err
		}

		tasks := 0
		for _, phase := range phases {
			tasks += len(phase.Tasks)
		}
		fmt.Printf("Importing %d phases with %d tasks\n", len(phases), tasks)

		if isTerminal() {
			confirmed, err := confirm("Replace the current plan? Completion state is lost.")
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled")
				return nil
			}
		}

		if err := a.tracker.ReplacePlan(cmd.Context(), phases); err != nil {
			return err
		}
		fmt.Printf("%s Plan imported from %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var planResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset to the built-in plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if isTerminal() {
			confirmed, err := confirm("Reset to the built-in plan? Completion state is lost.")
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled")
				return nil
			}
		}

		if err := a.tracker.ReplacePlan(cmd.Context(), plan.Seed()); err != nil {
			return err
		}
		fmt.Printf("%s Plan reset\n", ui.RenderPass("✓"))
		return nil
	},
}

var (
	phaseAddID          string
	phaseAddName        string
	phaseAddDescription string
	phaseAddDays        string
)

var phaseCmd = &cobra.Command{
	Use:     "phase",
	GroupID: "plan",
	Short:   "Work with plan phases",
}

var phaseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a phase to the plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		phase := plan.Phase{
			ID:          phaseAddID,
			Name:        phaseAddName,
			Description: phaseAddDescription,
			Days:        phaseAddDays,
		}
		if phase.ID == "" {
			phase.ID = newLocalID("phase")
		}

		if err := a.tracker.AddPhase(cmd.Context(), phase); err != nil {
			return err
		}
		fmt.Printf("%s Added phase %s\n", ui.RenderPass("✓"), phase.ID)
		return nil
	},
}

func init() {
	phaseAddCmd.Flags().StringVar(&phaseAddID, "id", "", "phase id (generated when empty)")
	phaseAddCmd.Flags().StringVar(&phaseAddName, "name", "", "phase name")
	phaseAddCmd.Flags().StringVar(&phaseAddDescription, "description", "", "phase description")
	phaseAddCmd.Flags().StringVar(&phaseAddDays, "days", "", "day range label, e.g. \"Days 15-21\"")

	phaseCmd.AddCommand(phaseAddCmd)
	planCmd.AddCommand(planImportCmd, planResetCmd)
	rootCmd.AddCommand(planCmd, phaseCmd)
}
