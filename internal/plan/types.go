// Package plan provides the data model for the study plan and the pure
// transformation functions over it.
//
// A plan is an ordered slice of Phases, each owning an ordered slice of
// Tasks. Experiments are a standalone collection of recorded measurement
// runs. All mutation functions in this package are pure: they return a
// new collection and never modify their arguments in place. Phases that
// are untouched by a mutation are shared between the input and output
// slices.
package plan

import (
	"fmt"
	"time"
)

// Category classifies a task within the study plan.
type Category string

const (
	CategorySetup    Category = "setup"
	CategoryYOLO     Category = "yolo"
	CategoryGA       Category = "ga"
	CategoryAnalysis Category = "analysis"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySetup, CategoryYOLO, CategoryGA, CategoryAnalysis:
		return true
	}
	return false
}

// Task is one checkable unit of work within a phase.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	// Day is a free-form label such as "Day 1-2".
	Day string `json:"day"`

	Completed bool `json:"completed"`

	// CompletedAt is set exactly when Completed transitions to true and
	// cleared when it transitions back to false.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Notes       string `json:"notes,omitempty"`
	CodeSnippet string `json:"code_snippet,omitempty"`
}

// Validate checks if the Task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	if t.CompletedAt != nil && !t.Completed {
		return fmt.Errorf("completed_at set on an incomplete task")
	}
	return nil
}

// Phase is an ordered stage of the study plan. Task order matters: the
// "current phase" lookup walks phases in sequence order.
type Phase struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Days        string   `json:"days"`
	Tasks       []Task   `json:"tasks"`
	Milestones  []string `json:"milestones,omitempty"`
}

// Validate checks if the Phase and all of its tasks are valid.
// An empty task sequence is valid.
func (p *Phase) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("task %d (%s): %w", i, p.Tasks[i].ID, err)
		}
	}
	return nil
}

// ExperimentParams records the detector configuration an experiment ran with.
type ExperimentParams struct {
	ModelSize    string  `json:"model_size"`
	Confidence   float64 `json:"confidence"`
	IoUThreshold float64 `json:"iou_threshold"`
	MaxDet       int     `json:"max_det"`
	ImgSize      int     `json:"imgsz"`
}

// Validate checks threshold ranges.
func (p *ExperimentParams) Validate() error {
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0,1] (got %v)", p.Confidence)
	}
	if p.IoUThreshold < 0 || p.IoUThreshold > 1 {
		return fmt.Errorf("iou_threshold must be in [0,1] (got %v)", p.IoUThreshold)
	}
	return nil
}

// Experiment is one recorded measurement run. Experiments are entered by
// a human; nothing in this module derives them.
type Experiment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	ModelType string    `json:"model_type"`

	AvgFPS           float64 `json:"avg_fps"`
	AvgInferenceTime float64 `json:"avg_inference_time"`
	AvgCPUTemp       float64 `json:"avg_cpu_temp"`

	// Fitness is the optional score assigned by the optimizer run.
	Fitness *float64 `json:"fitness,omitempty"`

	Parameters ExperimentParams `json:"parameters"`
	Notes      string           `json:"notes,omitempty"`
}

// Validate checks if the Experiment has valid field values.
func (e *Experiment) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.AvgFPS < 0 {
		return fmt.Errorf("avg_fps must be >= 0 (got %v)", e.AvgFPS)
	}
	if e.AvgInferenceTime < 0 {
		return fmt.Errorf("avg_inference_time must be >= 0 (got %v)", e.AvgInferenceTime)
	}
	if err := e.Parameters.Validate(); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	return nil
}
