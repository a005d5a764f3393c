package plan

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func strPtr(s string) *string { return &s }

func TestSetTaskCompletion(t *testing.T) {
	phases := Seed()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out, found := SetTaskCompletion(phases, "env-1", true, now)
	if !found {
		t.Fatal("expected env-1 to be found")
	}

	task := out[0].Tasks[0]
	if !task.Completed {
		t.Error("expected task to be completed")
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("expected completion timestamp %v, got %v", now, task.CompletedAt)
	}

	// Input must be untouched.
	if phases[0].Tasks[0].Completed {
		t.Error("input collection was mutated")
	}
}

func TestSetTaskCompletion_ToggleTwiceClearsTimestamp(t *testing.T) {
	phases := Seed()
	now := time.Now()

	out, _ := SetTaskCompletion(phases, "yolo-2", true, now)
	out, _ = SetTaskCompletion(out, "yolo-2", false, now.Add(time.Minute))

	task := out[1].Tasks[1]
	if task.Completed {
		t.Error("expected task to be incomplete after second toggle")
	}
	if task.CompletedAt != nil {
		t.Errorf("expected completion timestamp cleared, got %v", task.CompletedAt)
	}

	if diff := cmp.Diff(phases, out); diff != "" {
		t.Errorf("double toggle should restore original state (-want +got):\n%s", diff)
	}
}

func TestSetTaskCompletion_UnknownID(t *testing.T) {
	phases := Seed()

	out, found := SetTaskCompletion(phases, "no-such-task", true, time.Now())
	if found {
		t.Error("expected found=false for unknown id")
	}
	if diff := cmp.Diff(phases, out); diff != "" {
		t.Errorf("unknown id must be an identity copy (-want +got):\n%s", diff)
	}
}

func TestUpdateTask(t *testing.T) {
	phases := Seed()

	out, found := UpdateTask(phases, "ga-2", TaskPatch{
		Title: strPtr("Implement fitness evaluator"),
		Notes: strPtr("use still-image dataset from phase 2"),
	})
	if !found {
		t.Fatal("expected ga-2 to be found")
	}

	task := out[2].Tasks[1]
	if task.Title != "Implement fitness evaluator" {
		t.Errorf("title not patched: %q", task.Title)
	}
	if task.Notes != "use still-image dataset from phase 2" {
		t.Errorf("notes not patched: %q", task.Notes)
	}
	// Unpatched fields survive.
	if task.Description != phases[2].Tasks[1].Description {
		t.Error("description changed unexpectedly")
	}
	// Original untouched.
	if phases[2].Tasks[1].Title == task.Title {
		t.Error("input collection was mutated")
	}
}

func TestAddTaskToPhase(t *testing.T) {
	phases := Seed()
	task := Task{ID: "env-4", Title: "Install heatsink", Category: CategorySetup, Day: "Day 2"}

	out, found := AddTaskToPhase(phases, "phase1", task)
	if !found {
		t.Fatal("expected phase1 to be found")
	}
	if got := len(out[0].Tasks); got != 4 {
		t.Fatalf("expected 4 tasks, got %d", got)
	}
	if out[0].Tasks[3].ID != "env-4" {
		t.Errorf("task appended out of order: %q", out[0].Tasks[3].ID)
	}
	if len(phases[0].Tasks) != 3 {
		t.Error("input collection was mutated")
	}

	if _, found := AddTaskToPhase(phases, "no-such-phase", task); found {
		t.Error("expected found=false for unknown phase")
	}
}

func TestDeleteTask(t *testing.T) {
	phases := Seed()

	out, found := DeleteTask(phases, "yolo-2")
	if !found {
		t.Fatal("expected yolo-2 to be found")
	}
	if got := len(out[1].Tasks); got != 2 {
		t.Fatalf("expected 2 tasks left in phase2, got %d", got)
	}
	for _, task := range out[1].Tasks {
		if task.ID == "yolo-2" {
			t.Error("deleted task still present")
		}
	}
	if len(phases[1].Tasks) != 3 {
		t.Error("input collection was mutated")
	}

	out, found = DeleteTask(phases, "nope")
	if found {
		t.Error("expected found=false for unknown id")
	}
	if diff := cmp.Diff(phases, out); diff != "" {
		t.Errorf("unknown id must be an identity copy (-want +got):\n%s", diff)
	}
}

func TestAddPhase(t *testing.T) {
	phases := Seed()
	out := AddPhase(phases, Phase{ID: "phase5", Name: "Deployment", Days: "Day 15+"})

	if len(out) != len(phases)+1 {
		t.Fatalf("expected %d phases, got %d", len(phases)+1, len(out))
	}
	if out[len(out)-1].ID != "phase5" {
		t.Errorf("new phase not appended last")
	}
	if len(phases) != 4 {
		t.Error("input collection was mutated")
	}
}

// genPhases draws a small random plan with unique task ids.
func genPhases(t *rapid.T) []Phase {
	numPhases := rapid.IntRange(0, 4).Draw(t, "numPhases")
	phases := make([]Phase, 0, numPhases)
	taskSeq := 0
	for i := 0; i < numPhases; i++ {
		p := Phase{
			ID:   fmt.Sprintf("p%d", i),
			Name: fmt.Sprintf("Phase %d", i),
		}
		numTasks := rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("numTasks%d", i))
		for j := 0; j < numTasks; j++ {
			p.Tasks = append(p.Tasks, Task{
				ID:        fmt.Sprintf("t%d", taskSeq),
				Title:     rapid.StringMatching(`[a-z]{1,12}`).Draw(t, fmt.Sprintf("title%d", taskSeq)),
				Category:  CategorySetup,
				Completed: rapid.Bool().Draw(t, fmt.Sprintf("done%d", taskSeq)),
			})
			taskSeq++
		}
		phases = append(phases, p)
	}
	return phases
}

// For any plan and any absent task id, completion toggles are identity
// copies and never panic.
func TestSetTaskCompletion_AbsentIDIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phases := genPhases(t)
		out, found := SetTaskCompletion(phases, "absent-id", rapid.Bool().Draw(t, "completed"), time.Now())
		if found {
			t.Fatal("found an id that is not in the plan")
		}
		if diff := cmp.Diff(phases, out); diff != "" {
			t.Fatalf("not an identity copy (-want +got):\n%s", diff)
		}
	})
}

// Toggling any present task on then off restores the collection exactly.
func TestSetTaskCompletion_DoubleToggleRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phases := genPhases(t)
		var ids []string
		for _, p := range phases {
			for _, task := range p.Tasks {
				if !task.Completed {
					ids = append(ids, task.ID)
				}
			}
		}
		if len(ids) == 0 {
			t.Skip("no incomplete tasks drawn")
		}
		id := rapid.SampledFrom(ids).Draw(t, "id")

		now := time.Now()
		out, found := SetTaskCompletion(phases, id, true, now)
		if !found {
			t.Fatalf("task %s not found", id)
		}
		out, found = SetTaskCompletion(out, id, false, now.Add(time.Second))
		if !found {
			t.Fatalf("task %s not found on second toggle", id)
		}
		if diff := cmp.Diff(phases, out); diff != "" {
			t.Fatalf("double toggle did not round-trip (-want +got):\n%s", diff)
		}
	})
}

// Delete after add restores the original collection.
func TestAddDeleteTaskRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phases := genPhases(t)
		if len(phases) == 0 {
			t.Skip("empty plan drawn")
		}
		phaseID := phases[rapid.IntRange(0, len(phases)-1).Draw(t, "phaseIdx")].ID

		task := Task{ID: "added-task", Title: "added", Category: CategoryAnalysis}
		out, found := AddTaskToPhase(phases, phaseID, task)
		if !found {
			t.Fatalf("phase %s not found", phaseID)
		}
		out, found = DeleteTask(out, "added-task")
		if !found {
			t.Fatal("added task not found for delete")
		}
		if diff := cmp.Diff(phases, out); diff != "" {
			t.Fatalf("add+delete did not round-trip (-want +got):\n%s", diff)
		}
	})
}
