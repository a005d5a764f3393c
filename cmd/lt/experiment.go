package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/plan"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp"},
	GroupID: "plan",
	Short:   "Work with the experiment log",
}

var expListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		exps, err := a.tracker.Experiments(cmd.Context())
		if err != nil {
			return err
		}
		if len(exps) == 0 {
			fmt.Println(ui.RenderDim("No experiments recorded yet"))
			return nil
		}
		for _, exp := range exps {
			fitness := ui.RenderDim("–")
			if exp.Fitness != nil {
				fitness = fmt.Sprintf("%.3f", *exp.Fitness)
			}
			fmt.Printf("%s %s  %s\n", ui.RenderAccent(exp.ID), ui.RenderTitle(exp.Name),
				ui.RenderDim(exp.Date.Format("2006-01-02")))
			fmt.Printf("   %s %s  conf=%.2f iou=%.2f imgsz=%d\n",
				ui.RenderDim("model"), exp.Parameters.ModelSize,
				exp.Parameters.Confidence, exp.Parameters.IoUThreshold, exp.Parameters.ImgSize)
			fmt.Printf("   %.1f FPS  %.1f ms  %.1f °C  fitness %s\n",
				exp.AvgFPS, exp.AvgInferenceTime*1000, exp.AvgCPUTemp, fitness)
			if exp.Notes != "" {
				fmt.Printf("   %s\n", ui.RenderDim(exp.Notes))
			}
		}
		return nil
	},
}

var (
	expName      string
	expDate      string
	expModelType string
	expFPS       float64
	expInference float64
	expCPUTemp   float64
	expFitness   float64
	expModelSize string
	expConf      float64
	expIoU       float64
	expMaxDet    int
	expImgSize   int
	expNotes     string
)

var expAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an experiment run",
	Long: `Record an experiment run. With a terminal attached an interactive
form collects the fields; otherwise pass them as flags.`,
	Example: `  lt experiment add --name "tuned small" --fps 17.2 --inference 0.058 \
      --cpu-temp 63.1 --model-size yolov8s --conf 0.3 --iou 0.5 --date "yesterday 4pm"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		date, err := parseDate(expDate)
		if err != nil {
			return err
		}

		exp := plan.Experiment{
			ID:               newLocalID("exp"),
			Name:             expName,
			Date:             date,
			ModelType:        expModelType,
			AvgFPS:           expFPS,
			AvgInferenceTime: expInference,
			AvgCPUTemp:       expCPUTemp,
			Parameters: plan.ExperimentParams{
				ModelSize:    expModelSize,
				Confidence:   expConf,
				IoUThreshold: expIoU,
				MaxDet:       expMaxDet,
				ImgSize:      expImgSize,
			},
			Notes: expNotes,
		}
		if cmd.Flags().Changed("fitness") {
			exp.Fitness = &expFitness
		}

		if expName == "" && isTerminal() {
			if err := runExperimentForm(&exp); err != nil {
				return err
			}
		}

		if err := a.tracker.AddExperiment(cmd.Context(), exp); err != nil {
			return err
		}
		fmt.Printf("%s Recorded %s\n", ui.RenderPass("✓"), exp.ID)
		return nil
	},
}

// runExperimentForm collects the run's fields interactively. Numbers
// arrive as text and are validated before being parsed back.
func runExperimentForm(exp *plan.Experiment) error {
	date := expDate
	fps := ""
	inference := ""
	cpuTemp := ""
	fitness := ""

	requireFloat := func(s string) error {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("enter a number")
		}
		return nil
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&exp.Name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Date").
				Placeholder("yesterday 4pm (empty = now)").
				Value(&date).
				Validate(func(s string) error {
					_, err := parseDate(s)
					return err
				}),
			huh.NewInput().
				Title("Model type").
				Placeholder("yolov8").
				Value(&exp.ModelType),
			huh.NewSelect[string]().
				Title("Model size").
				Options(
					huh.NewOption("yolov8n", "yolov8n"),
					huh.NewOption("yolov8s", "yolov8s"),
					huh.NewOption("yolov8m", "yolov8m"),
				).
				Value(&exp.Parameters.ModelSize),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Average FPS").
				Value(&fps).
				Validate(requireFloat),
			huh.NewInput().
				Title("Average inference time (s)").
				Value(&inference).
				Validate(requireFloat),
			huh.NewInput().
				Title("Average CPU temperature (°C)").
				Value(&cpuTemp).
				Validate(requireFloat),
			huh.NewInput().
				Title("Fitness").
				Placeholder("empty = not scored").
				Value(&fitness).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return requireFloat(s)
				}),
			huh.NewText().
				Title("Notes").
				Value(&exp.Notes),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	exp.Date, _ = parseDate(date)
	exp.AvgFPS, _ = strconv.ParseFloat(fps, 64)
	exp.AvgInferenceTime, _ = strconv.ParseFloat(inference, 64)
	exp.AvgCPUTemp, _ = strconv.ParseFloat(cpuTemp, 64)
	if fitness != "" {
		f, _ := strconv.ParseFloat(fitness, 64)
		exp.Fitness = &f
	}
	return nil
}

var expEditCmd = &cobra.Command{
	Use:   "edit <experiment-id>",
	Short: "Edit an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var patch plan.ExperimentPatch
		if cmd.Flags().Changed("name") {
			patch.Name = &expName
		}
		if cmd.Flags().Changed("date") {
			date, err := parseDate(expDate)
			if err != nil {
				return err
			}
			patch.Date = &date
		}
		if cmd.Flags().Changed("fps") {
			patch.AvgFPS = &expFPS
		}
		if cmd.Flags().Changed("inference") {
			patch.AvgInferenceTime = &expInference
		}
		if cmd.Flags().Changed("cpu-temp") {
			patch.AvgCPUTemp = &expCPUTemp
		}
		if cmd.Flags().Changed("fitness") {
			patch.Fitness = &expFitness
			patch.FitnessSet = true
		}
		if cmd.Flags().Changed("notes") {
			patch.Notes = &expNotes
		}

		if err := a.tracker.UpdateExperiment(cmd.Context(), args[0], patch); err != nil {
			return err
		}
		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var expDeleteCmd = &cobra.Command{
	Use:   "delete <experiment-id>",
	Short: "Delete an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.DeleteExperiment(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

// parseDate accepts RFC 3339, plain dates and natural language like
// "yesterday 4pm". Empty means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	result, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not understand date %q", s)
	}
	return result.Time.UTC(), nil
}

func init() {
	for _, cmd := range []*cobra.Command{expAddCmd, expEditCmd} {
		cmd.Flags().StringVar(&expName, "name", "", "experiment name")
		cmd.Flags().StringVar(&expDate, "date", "", "run date (RFC 3339, YYYY-MM-DD or natural language)")
		cmd.Flags().StringVar(&expModelType, "model-type", "", "detector family, e.g. yolov8")
		cmd.Flags().Float64Var(&expFPS, "fps", 0, "average frames per second")
		cmd.Flags().Float64Var(&expInference, "inference", 0, "average inference time in seconds")
		cmd.Flags().Float64Var(&expCPUTemp, "cpu-temp", 0, "average CPU temperature in °C")
		cmd.Flags().Float64Var(&expFitness, "fitness", 0, "fitness score")
		cmd.Flags().StringVar(&expNotes, "notes", "", "free-form notes")
	}
	expAddCmd.Flags().StringVar(&expModelSize, "model-size", "yolov8n", "model size variant")
	expAddCmd.Flags().Float64Var(&expConf, "conf", 0.25, "confidence threshold")
	expAddCmd.Flags().Float64Var(&expIoU, "iou", 0.45, "IoU threshold")
	expAddCmd.Flags().IntVar(&expMaxDet, "max-det", 300, "max detections")
	expAddCmd.Flags().IntVar(&expImgSize, "imgsz", 640, "inference image size")

	experimentCmd.AddCommand(expListCmd, expAddCmd, expEditCmd, expDeleteCmd)
	rootCmd.AddCommand(experimentCmd)
}
