package plan

// SeedTaskCount returns the task count of the given seed plan. Progress
// percentages are computed against the seed plan, not the live
// collection: tasks added by the user do not move the denominator. That
// matches the shipped behavior and is documented rather than fixed.
func SeedTaskCount(seed []Phase) int {
	total := 0
	for i := range seed {
		total += len(seed[i].Tasks)
	}
	return total
}

// CompletedTasks returns the number of completed tasks across all phases.
func CompletedTasks(phases []Phase) int {
	count := 0
	for i := range phases {
		for j := range phases[i].Tasks {
			if phases[i].Tasks[j].Completed {
				count++
			}
		}
	}
	return count
}

// CurrentPhase returns the name of the first phase containing at least
// one incomplete task. If every phase is fully complete, it returns the
// last phase's name. ok is false when phases is empty; the caller must
// guard that case.
func CurrentPhase(phases []Phase) (name string, ok bool) {
	if len(phases) == 0 {
		return "", false
	}
	for i := range phases {
		for j := range phases[i].Tasks {
			if !phases[i].Tasks[j].Completed {
				return phases[i].Name, true
			}
		}
	}
	return phases[len(phases)-1].Name, true
}

// OverallProgress returns completed/total as a percentage.
// Defined as 0 when total is 0.
func OverallProgress(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
