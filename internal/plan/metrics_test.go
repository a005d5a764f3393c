package plan

import (
	"testing"
	"time"
)

// completeAll marks every task in the phase as complete.
func completeAll(t *testing.T, phases []Phase, phaseIdx int) []Phase {
	t.Helper()

	out := phases
	for _, task := range phases[phaseIdx].Tasks {
		var found bool
		out, found = SetTaskCompletion(out, task.ID, true, time.Now())
		if !found {
			t.Fatalf("task %s not found", task.ID)
		}
	}
	return out
}

func TestSeedTaskCount(t *testing.T) {
	seed := Seed()
	if got := SeedTaskCount(seed); got != 12 {
		t.Errorf("expected 12 seed tasks, got %d", got)
	}
}

// The denominator is fixed to the seed plan: adding a task must not
// change the total used for the completion percentage.
func TestSeedTaskCount_UnchangedByAddedTasks(t *testing.T) {
	seed := Seed()
	before := SeedTaskCount(seed)

	live, found := AddTaskToPhase(seed, "phase1", Task{
		ID:       "extra-1",
		Title:    "Extra task",
		Category: CategorySetup,
	})
	if !found {
		t.Fatal("phase1 not found")
	}
	if len(live[0].Tasks) != 4 {
		t.Fatalf("expected 4 tasks in phase1 after add, got %d", len(live[0].Tasks))
	}

	if got := SeedTaskCount(Seed()); got != before {
		t.Errorf("seed task count changed after add: %d != %d", got, before)
	}
}

func TestCompletedTasks(t *testing.T) {
	phases := Seed()
	if got := CompletedTasks(phases); got != 0 {
		t.Errorf("expected 0 completed on fresh plan, got %d", got)
	}

	phases = completeAll(t, phases, 0)
	if got := CompletedTasks(phases); got != 3 {
		t.Errorf("expected 3 completed, got %d", got)
	}
}

func TestCurrentPhase(t *testing.T) {
	phases := Seed()

	name, ok := CurrentPhase(phases)
	if !ok {
		t.Fatal("expected ok for non-empty plan")
	}
	if name != phases[0].Name {
		t.Errorf("expected first phase %q, got %q", phases[0].Name, name)
	}

	// Phase 1 fully complete, phase 2 has incomplete tasks.
	phases = completeAll(t, phases, 0)
	name, ok = CurrentPhase(phases)
	if !ok {
		t.Fatal("expected ok")
	}
	if name != phases[1].Name {
		t.Errorf("expected phase 2 %q, got %q", phases[1].Name, name)
	}
}

func TestCurrentPhase_AllComplete(t *testing.T) {
	phases := Seed()
	for i := range phases {
		phases = completeAll(t, phases, i)
	}

	name, ok := CurrentPhase(phases)
	if !ok {
		t.Fatal("expected ok")
	}
	if want := phases[len(phases)-1].Name; name != want {
		t.Errorf("expected last phase %q, got %q", want, name)
	}
}

func TestCurrentPhase_Empty(t *testing.T) {
	if _, ok := CurrentPhase(nil); ok {
		t.Error("expected ok=false for empty plan")
	}
}

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      float64
	}{
		{"zero total", 0, 0, 0},
		{"none done", 0, 12, 0},
		{"quarter done", 3, 12, 25.0},
		{"all done", 12, 12, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallProgress(tt.completed, tt.total); got != tt.want {
				t.Errorf("OverallProgress(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

// Walk the seed plan end to end: 4 phases x 3 tasks, mark all of
// phase 1 complete.
func TestProgressScenario(t *testing.T) {
	phases := Seed()
	phases = completeAll(t, phases, 0)

	completed := CompletedTasks(phases)
	if completed != 3 {
		t.Errorf("expected 3 completed, got %d", completed)
	}

	progress := OverallProgress(completed, SeedTaskCount(Seed()))
	if progress != 25.0 {
		t.Errorf("expected 25.0%%, got %v", progress)
	}

	name, ok := CurrentPhase(phases)
	if !ok {
		t.Fatal("expected ok")
	}
	if name != phases[1].Name {
		t.Errorf("expected current phase %q, got %q", phases[1].Name, name)
	}
}
