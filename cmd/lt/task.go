package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mschirtzinger/learntrack/internal/plan"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "plan",
	Short:   "Work with plan tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks by phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		phases, err := a.tracker.Phases(cmd.Context())
		if err != nil {
			return err
		}
		for _, phase := range phases {
			fmt.Printf("%s %s\n", ui.RenderTitle(phase.Name), ui.RenderDim(phase.Days))
			for _, task := range phase.Tasks {
				marker := ui.RenderDim("[ ]")
				if task.Completed {
					marker = ui.RenderPass("[x]")
				}
				fmt.Printf("  %s %s  %s %s\n",
					marker, ui.RenderDim(task.ID), task.Title, ui.RenderDim(task.Day))
			}
			fmt.Println()
		}
		return nil
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Toggle a task's completion state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		completed, err := a.tracker.ToggleTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if completed {
			fmt.Printf("%s %s completed\n", ui.RenderPass("✓"), args[0])
		} else {
			fmt.Printf("%s %s reopened\n", ui.RenderAccent("○"), args[0])
		}
		return nil
	},
}

var (
	taskAddID          string
	taskAddTitle       string
	taskAddDescription string
	taskAddCategory    string
	taskAddDay         string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <phase-id>",
	Short: "Add a task to a phase",
	Long: `Add a task to a phase. With a terminal attached an interactive
form collects the fields; otherwise pass them as flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		task := plan.Task{
			ID:          taskAddID,
			Title:       taskAddTitle,
			Description: taskAddDescription,
			Category:    plan.Category(taskAddCategory),
			Day:         taskAddDay,
		}

		if taskAddTitle == "" && isTerminal() {
			if err := runTaskForm(&task); err != nil {
				return err
			}
		}
		if task.ID == "" {
			task.ID = newLocalID("task")
		}
		if task.Day == "" {
			task.Day = "Day 1"
		}

		if err := a.tracker.AddTask(cmd.Context(), args[0], task); err != nil {
			return err
		}
		fmt.Printf("%s Added %s to %s\n", ui.RenderPass("✓"), task.ID, args[0])
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var patch plan.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &taskAddTitle
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &taskAddDescription
		}
		if cmd.Flags().Changed("category") {
			category := plan.Category(taskAddCategory)
			if !category.Valid() {
				return fmt.Errorf("unknown category %q", taskAddCategory)
			}
			patch.Category = &category
		}
		if cmd.Flags().Changed("day") {
			patch.Day = &taskAddDay
		}

		if err := a.tracker.UpdateTask(cmd.Context(), args[0], patch); err != nil {
			return err
		}
		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.DeleteTask(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func runTaskForm(task *plan.Task) error {
	category := string(task.Category)
	if category == "" {
		category = string(plan.CategorySetup)
	}
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&task.Title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&task.Description),
			huh.NewSelect[string]().
				Title("Category").
				Options(
					huh.NewOption("Environment setup", string(plan.CategorySetup)),
					huh.NewOption("YOLO bring-up", string(plan.CategoryYOLO)),
					huh.NewOption("Genetic algorithm", string(plan.CategoryGA)),
					huh.NewOption("Analysis", string(plan.CategoryAnalysis)),
				).
				Value(&category),
			huh.NewInput().
				Title("Day").
				Placeholder("Day 1").
				Value(&task.Day),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	task.Category = plan.Category(category)
	return nil
}

// newForm applies the shared form settings, falling back to the
// accessible mode when no terminal is attached.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...)
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func confirm(title string) (bool, error) {
	var ok bool
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddID, "id", "", "task id (generated when empty)")
	taskAddCmd.Flags().StringVar(&taskAddTitle, "title", "", "task title")
	taskAddCmd.Flags().StringVar(&taskAddDescription, "description", "", "task description")
	taskAddCmd.Flags().StringVar(&taskAddCategory, "category", "setup", "task category (setup|yolo|ga|analysis)")
	taskAddCmd.Flags().StringVar(&taskAddDay, "day", "", "day label, e.g. \"Day 3\"")

	taskEditCmd.Flags().StringVar(&taskAddTitle, "title", "", "new title")
	taskEditCmd.Flags().StringVar(&taskAddDescription, "description", "", "new description")
	taskEditCmd.Flags().StringVar(&taskAddCategory, "category", "", "new category")
	taskEditCmd.Flags().StringVar(&taskAddDay, "day", "", "new day label")

	taskCmd.AddCommand(taskListCmd, taskToggleCmd, taskAddCmd, taskEditCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
