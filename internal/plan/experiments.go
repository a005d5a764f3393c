package plan

import "time"

// ExperimentPatch is a partial update applied to an experiment.
// Nil fields are left untouched. FitnessSet distinguishes "clear the
// fitness score" from "leave it alone".
type ExperimentPatch struct {
	Name             *string
	Date             *time.Time
	ModelType        *string
	AvgFPS           *float64
	AvgInferenceTime *float64
	AvgCPUTemp       *float64
	Fitness          *float64
	FitnessSet       bool
	Parameters       *ExperimentParams
	Notes            *string
}

// AddExperiment returns a copy of exps with e appended. The id is
// supplied by the caller and must be unique within the collection.
func AddExperiment(exps []Experiment, e Experiment) []Experiment {
	out := make([]Experiment, len(exps), len(exps)+1)
	copy(out, exps)
	return append(out, e)
}

// UpdateExperiment returns a copy of exps with patch merged into the
// matching experiment. found is false when id matched nothing, in which
// case the returned slice is an identity copy.
func UpdateExperiment(exps []Experiment, id string, patch ExperimentPatch) (out []Experiment, found bool) {
	out = make([]Experiment, len(exps))
	copy(out, exps)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		e := out[i]
		if patch.Name != nil {
			e.Name = *patch.Name
		}
		if patch.Date != nil {
			e.Date = *patch.Date
		}
		if patch.ModelType != nil {
			e.ModelType = *patch.ModelType
		}
		if patch.AvgFPS != nil {
			e.AvgFPS = *patch.AvgFPS
		}
		if patch.AvgInferenceTime != nil {
			e.AvgInferenceTime = *patch.AvgInferenceTime
		}
		if patch.AvgCPUTemp != nil {
			e.AvgCPUTemp = *patch.AvgCPUTemp
		}
		if patch.FitnessSet {
			e.Fitness = patch.Fitness
		}
		if patch.Parameters != nil {
			e.Parameters = *patch.Parameters
		}
		if patch.Notes != nil {
			e.Notes = *patch.Notes
		}
		out[i] = e
		return out, true
	}
	return out, false
}

// DeleteExperiment returns a copy of exps with the matching experiment
// removed. found is false when id matched nothing.
func DeleteExperiment(exps []Experiment, id string) (out []Experiment, found bool) {
	for i := range exps {
		if exps[i].ID != id {
			continue
		}
		out = make([]Experiment, 0, len(exps)-1)
		out = append(out, exps[:i]...)
		out = append(out, exps[i+1:]...)
		return out, true
	}
	out = make([]Experiment, len(exps))
	copy(out, exps)
	return out, false
}
