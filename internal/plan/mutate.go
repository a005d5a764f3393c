package plan

import "time"

// TaskPatch is a partial update applied to a task. Nil fields are left
// untouched. Completion is not patched here; use SetTaskCompletion so
// the completion timestamp invariant holds.
type TaskPatch struct {
	Title       *string
	Description *string
	Category    *Category
	Day         *string
	Notes       *string
	CodeSnippet *string
}

// SetTaskCompletion returns a copy of phases with the task's completed
// flag set. The completion timestamp is set when completed transitions
// to true and cleared when it transitions to false. found reports
// whether the task id matched anything; when it is false the returned
// slice is an identity copy of the input.
func SetTaskCompletion(phases []Phase, taskID string, completed bool, now time.Time) (out []Phase, found bool) {
	return mapTask(phases, taskID, func(t Task) Task {
		t.Completed = completed
		if completed {
			at := now
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
		return t
	})
}

// UpdateTask returns a copy of phases with patch merged into the matching
// task. All other tasks and phases are left untouched (and shared).
func UpdateTask(phases []Phase, taskID string, patch TaskPatch) (out []Phase, found bool) {
	return mapTask(phases, taskID, func(t Task) Task {
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Day != nil {
			t.Day = *patch.Day
		}
		if patch.Notes != nil {
			t.Notes = *patch.Notes
		}
		if patch.CodeSnippet != nil {
			t.CodeSnippet = *patch.CodeSnippet
		}
		return t
	})
}

// AddTaskToPhase returns a copy of phases with task appended to the named
// phase's task sequence, preserving order. found is false when phaseID is
// unknown; the caller decides whether that is an error.
func AddTaskToPhase(phases []Phase, phaseID string, task Task) (out []Phase, found bool) {
	out = make([]Phase, len(phases))
	copy(out, phases)
	for i := range out {
		if out[i].ID != phaseID {
			continue
		}
		tasks := make([]Task, len(out[i].Tasks), len(out[i].Tasks)+1)
		copy(tasks, out[i].Tasks)
		out[i].Tasks = append(tasks, task)
		return out, true
	}
	return out, false
}

// DeleteTask returns a copy of phases with the task removed from
// whichever phase contains it. found is false when no task matched.
func DeleteTask(phases []Phase, taskID string) (out []Phase, found bool) {
	out = make([]Phase, len(phases))
	copy(out, phases)
	for i := range out {
		idx := -1
		for j := range out[i].Tasks {
			if out[i].Tasks[j].ID == taskID {
				idx = j
				break
			}
		}
		if idx < 0 {
			continue
		}
		tasks := make([]Task, 0, len(out[i].Tasks)-1)
		tasks = append(tasks, out[i].Tasks[:idx]...)
		tasks = append(tasks, out[i].Tasks[idx+1:]...)
		out[i].Tasks = tasks
		return out, true
	}
	return out, false
}

// AddPhase returns a copy of phases with p appended. Identifier
// uniqueness is the caller's responsibility.
func AddPhase(phases []Phase, p Phase) []Phase {
	out := make([]Phase, len(phases), len(phases)+1)
	copy(out, phases)
	return append(out, p)
}

// mapTask applies fn to the task with the given id wherever it is found.
// Untouched phases share their task slices with the input.
func mapTask(phases []Phase, taskID string, fn func(Task) Task) (out []Phase, found bool) {
	out = make([]Phase, len(phases))
	copy(out, phases)
	for i := range out {
		for j := range out[i].Tasks {
			if out[i].Tasks[j].ID != taskID {
				continue
			}
			tasks := make([]Task, len(out[i].Tasks))
			copy(tasks, out[i].Tasks)
			tasks[j] = fn(tasks[j])
			out[i].Tasks = tasks
			return out, true
		}
	}
	return out, false
}
