// Package tracker is the application service: it loads the current
// plan state, applies the pure mutations, and saves the result back
// through the sync layer. Callers never touch storage directly.
package tracker

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mschirtzinger/learntrack/internal/plan"
)

// Store abstracts the sync coordinator: load and save the two
// documents the tracker works on.
type Store interface {
	LoadProgress(ctx context.Context) ([]plan.Phase, bool, error)
	SaveProgress(ctx context.Context, phases []plan.Phase) error
	LoadExperiments(ctx context.Context) ([]plan.Experiment, bool, error)
	SaveExperiments(ctx context.Context, exps []plan.Experiment) error
}

// ErrNotFound is returned when the targeted task, phase or experiment
// does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Summary is the derived progress view.
type Summary struct {
	CompletedTasks int
	TotalTasks     int
	Percent        float64
	CurrentPhase   string
	Phases         []plan.Phase
}

// Tracker applies plan operations on top of a Store.
type Tracker struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// New creates a Tracker over store.
func New(store Store, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(os.Stderr, "[tracker] ", log.LstdFlags)
	}
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// Phases returns the current plan, seeding the built-in one on first
// use so a fresh install starts with content rather than a blank
// screen.
func (t *Tracker) Phases(ctx context.Context) ([]plan.Phase, error) {
	phases, ok, err := t.store.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if !ok {
		phases = plan.Seed()
		if err := t.store.SaveProgress(ctx, phases); err != nil {
			return nil, fmt.Errorf("failed to save seeded plan: %w", err)
		}
		t.logger.Println("Seeded the built-in plan")
	}
	return phases, nil
}

// Progress computes the summary view. The completion percentage is
// always measured against the built-in plan's task count, so adding
// custom tasks never moves the goalposts.
func (t *Tracker) Progress(ctx context.Context) (Summary, error) {
	phases, err := t.Phases(ctx)
	if err != nil {
		return Summary{}, err
	}
	completed := plan.CompletedTasks(phases)
	total := plan.SeedTaskCount(plan.Seed())
	current, _ := plan.CurrentPhase(phases)
	return Summary{
		CompletedTasks: completed,
		TotalTasks:     total,
		Percent:        plan.OverallProgress(completed, total),
		CurrentPhase:   current,
		Phases:         phases,
	}, nil
}

// ToggleTask flips a task's completion state and returns the new
// state.
func (t *Tracker) ToggleTask(ctx context.Context, taskID string) (completed bool, err error) {
	phases, err := t.Phases(ctx)
	if err != nil {
		return false, err
	}
	task, found := findTask(phases, taskID)
	if !found {
		return false, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	completed = !task.Completed
	phases, _ = plan.SetTaskCompletion(phases, taskID, completed, t.now().UTC())
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return false, fmt.Errorf("failed to save progress: %w", err)
	}
	return completed, nil
}

// UpdateTask applies patch to a task.
func (t *Tracker) UpdateTask(ctx context.Context, taskID string, patch plan.TaskPatch) error {
	phases, err := t.Phases(ctx)
	if err != nil {
		return err
	}
	phases, found := plan.UpdateTask(phases, taskID, patch)
	if !found {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// AddTask appends task to the phase.
func (t *Tracker) AddTask(ctx context.Context, phaseID string, task plan.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	phases, err := t.Phases(ctx)
	if err != nil {
		return err
	}
	phases, found := plan.AddTaskToPhase(phases, phaseID, task)
	if !found {
		return fmt.Errorf("phase %s: %w", phaseID, ErrNotFound)
	}
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// AddTasks appends several tasks to the phase in one save.
func (t *Tracker) AddTasks(ctx context.Context, phaseID string, tasks []plan.Task) error {
	phases, err := t.Phases(ctx)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("invalid task %s: %w", task.ID, err)
		}
		var found bool
		phases, found = plan.AddTaskToPhase(phases, phaseID, task)
		if !found {
			return fmt.Errorf("phase %s: %w", phaseID, ErrNotFound)
		}
	}
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// DeleteTask removes a task.
func (t *Tracker) DeleteTask(ctx context.Context, taskID string) error {
	phases, err := t.Phases(ctx)
	if err != nil {
		return err
	}
	phases, found := plan.DeleteTask(phases, taskID)
	if !found {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// AddPhase appends phase to the plan.
func (t *Tracker) AddPhase(ctx context.Context, phase plan.Phase) error {
	if err := phase.Validate(); err != nil {
		return fmt.Errorf("invalid phase: %w", err)
	}
	phases, err := t.Phases(ctx)
	if err != nil {
		return err
	}
	phases = plan.AddPhase(phases, phase)
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// ReplacePlan swaps the whole plan, e.g. after a file import.
func (t *Tracker) ReplacePlan(ctx context.Context, phases []plan.Phase) error {
	for _, phase := range phases {
		if err := phase.Validate(); err != nil {
			return fmt.Errorf("invalid phase %s: %w", phase.ID, err)
		}
	}
	if err := t.store.SaveProgress(ctx, phases); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Experiments returns the experiment log in the store's order: the
// remote store serves newest first, the local cache keeps whatever
// order it last saved.
func (t *Tracker) Experiments(ctx context.Context) ([]plan.Experiment, error) {
	exps, _, err := t.store.LoadExperiments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiments: %w", err)
	}
	return exps, nil
}

// AddExperiment records a new experiment.
func (t *Tracker) AddExperiment(ctx context.Context, exp plan.Experiment) error {
	if err := exp.Validate(); err != nil {
		return fmt.Errorf("invalid experiment: %w", err)
	}
	exps, err := t.Experiments(ctx)
	if err != nil {
		return err
	}
	exps = plan.AddExperiment(exps, exp)
	if err := t.store.SaveExperiments(ctx, exps); err != nil {
		return fmt.Errorf("failed to save experiments: %w", err)
	}
	return nil
}

// UpdateExperiment applies patch to an experiment.
func (t *Tracker) UpdateExperiment(ctx context.Context, id string, patch plan.ExperimentPatch) error {
	exps, err := t.Experiments(ctx)
	if err != nil {
		return err
	}
	exps, found := plan.UpdateExperiment(exps, id, patch)
	if !found {
		return fmt.Errorf("experiment %s: %w", id, ErrNotFound)
	}
	if err := t.store.SaveExperiments(ctx, exps); err != nil {
		return fmt.Errorf("failed to save experiments: %w", err)
	}
	return nil
}

// DeleteExperiment removes an experiment.
func (t *Tracker) DeleteExperiment(ctx context.Context, id string) error {
	exps, err := t.Experiments(ctx)
	if err != nil {
		return err
	}
	exps, found := plan.DeleteExperiment(exps, id)
	if !found {
		return fmt.Errorf("experiment %s: %w", id, ErrNotFound)
	}
	if err := t.store.SaveExperiments(ctx, exps); err != nil {
		return fmt.Errorf("failed to save experiments: %w", err)
	}
	return nil
}

func findTask(phases []plan.Phase, taskID string) (plan.Task, bool) {
	for _, phase := range phases {
		for _, task := range phase.Tasks {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return plan.Task{}, false
}
