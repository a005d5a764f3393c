package plan

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testExperiment(id string) Experiment {
	return Experiment{
		ID:               id,
		Name:             "run-1",
		Date:             time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		ModelType:        "yolov8n",
		AvgFPS:           14.7,
		AvgInferenceTime: 0.068,
		AvgCPUTemp:       61.2,
		Parameters: ExperimentParams{
			ModelSize:    "yolov8n",
			Confidence:   0.25,
			IoUThreshold: 0.45,
			MaxDet:       300,
			ImgSize:      640,
		},
	}
}

func TestAddDeleteExperimentRoundTrips(t *testing.T) {
	exps := []Experiment{testExperiment("exp-0")}

	out := AddExperiment(exps, testExperiment("exp-1"))
	if len(out) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(out))
	}
	if len(exps) != 1 {
		t.Error("input collection was mutated")
	}

	out, found := DeleteExperiment(out, "exp-1")
	if !found {
		t.Fatal("expected exp-1 to be found")
	}
	if diff := cmp.Diff(exps, out); diff != "" {
		t.Errorf("add+delete did not restore collection (-want +got):\n%s", diff)
	}
}

func TestUpdateExperiment(t *testing.T) {
	exps := []Experiment{testExperiment("exp-0")}

	fps := 16.1
	fitness := 0.83
	out, found := UpdateExperiment(exps, "exp-0", ExperimentPatch{
		AvgFPS:     &fps,
		Fitness:    &fitness,
		FitnessSet: true,
	})
	if !found {
		t.Fatal("expected exp-0 to be found")
	}
	if out[0].AvgFPS != 16.1 {
		t.Errorf("avg_fps not patched: %v", out[0].AvgFPS)
	}
	if out[0].Fitness == nil || *out[0].Fitness != 0.83 {
		t.Errorf("fitness not patched: %v", out[0].Fitness)
	}
	// Unpatched fields survive.
	if out[0].AvgCPUTemp != 61.2 {
		t.Errorf("avg_cpu_temp changed unexpectedly: %v", out[0].AvgCPUTemp)
	}
	if exps[0].AvgFPS != 14.7 {
		t.Error("input collection was mutated")
	}
}

func TestUpdateExperiment_ClearFitness(t *testing.T) {
	exp := testExperiment("exp-0")
	f := 0.5
	exp.Fitness = &f

	out, found := UpdateExperiment([]Experiment{exp}, "exp-0", ExperimentPatch{FitnessSet: true})
	if !found {
		t.Fatal("expected exp-0 to be found")
	}
	if out[0].Fitness != nil {
		t.Errorf("expected fitness cleared, got %v", *out[0].Fitness)
	}
}

func TestUpdateExperiment_UnknownID(t *testing.T) {
	exps := []Experiment{testExperiment("exp-0")}

	out, found := UpdateExperiment(exps, "nope", ExperimentPatch{Name: strPtr("x")})
	if found {
		t.Error("expected found=false for unknown id")
	}
	if diff := cmp.Diff(exps, out); diff != "" {
		t.Errorf("unknown id must be an identity copy (-want +got):\n%s", diff)
	}
}

func TestExperimentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Experiment)
		wantErr bool
	}{
		{"valid", func(e *Experiment) {}, false},
		{"missing id", func(e *Experiment) { e.ID = "" }, true},
		{"missing name", func(e *Experiment) { e.Name = "" }, true},
		{"negative fps", func(e *Experiment) { e.AvgFPS = -1 }, true},
		{"negative inference time", func(e *Experiment) { e.AvgInferenceTime = -0.1 }, true},
		{"confidence above 1", func(e *Experiment) { e.Parameters.Confidence = 1.5 }, true},
		{"iou below 0", func(e *Experiment) { e.Parameters.IoUThreshold = -0.2 }, true},
		{"negative temp is fine", func(e *Experiment) { e.AvgCPUTemp = -5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExperiment("exp-0")
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
