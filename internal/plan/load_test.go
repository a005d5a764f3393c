package plan

import (
	"os"
	"path/filepath"
	"testing"
)

func writePlanFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write plan file: %v", err)
	}
	return path
}

func TestLoadPlanFile_YAML(t *testing.T) {
	path := writePlanFile(t, "plan.yaml", `
phases:
  - id: p1
    name: Warmup
    days: Day 1
    tasks:
      - id: t1
        title: First task
        category: setup
        day: Day 1
    milestones:
      - warmed up
`)

	phases, err := LoadPlanFile(path)
	if err != nil {
		t.Fatalf("LoadPlanFile failed: %v", err)
	}
	if len(phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(phases))
	}
	if phases[0].Tasks[0].Title != "First task" {
		t.Errorf("unexpected task title %q", phases[0].Tasks[0].Title)
	}
	if phases[0].Tasks[0].Completed {
		t.Error("imported tasks must start incomplete")
	}
}

func TestLoadPlanFile_TOML(t *testing.T) {
	path := writePlanFile(t, "plan.toml", `
[[phases]]
id = "p1"
name = "Warmup"
days = "Day 1"

[[phases.tasks]]
id = "t1"
title = "First task"
category = "yolo"
day = "Day 1"
`)

	phases, err := LoadPlanFile(path)
	if err != nil {
		t.Fatalf("LoadPlanFile failed: %v", err)
	}
	if phases[0].Tasks[0].Category != CategoryYOLO {
		t.Errorf("unexpected category %q", phases[0].Tasks[0].Category)
	}
}

func TestLoadPlanFile_UnknownCategoryDefaults(t *testing.T) {
	path := writePlanFile(t, "plan.json", `{
  "phases": [
    {"id": "p1", "name": "Warmup", "tasks": [
      {"id": "t1", "title": "First task", "category": "bogus"}
    ]}
  ]
}`)

	phases, err := LoadPlanFile(path)
	if err != nil {
		t.Fatalf("LoadPlanFile failed: %v", err)
	}
	if phases[0].Tasks[0].Category != CategorySetup {
		t.Errorf("expected default category setup, got %q", phases[0].Tasks[0].Category)
	}
}

func TestLoadPlanFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "plan.ini", "x"},
		{"empty phases", "plan.yaml", "phases: []"},
		{"invalid yaml", "plan.yaml", ": not yaml"},
		{"phase missing name", "plan.yaml", "phases:\n  - id: p1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePlanFile(t, tt.file, tt.content)
			if _, err := LoadPlanFile(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSeedValidates(t *testing.T) {
	for _, p := range Seed() {
		if err := p.Validate(); err != nil {
			t.Errorf("seed phase %s invalid: %v", p.ID, err)
		}
	}
}
