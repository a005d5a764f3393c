package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// planFile is the on-disk shape of an imported study plan.
type planFile struct {
	Phases []phaseFile `json:"phases" yaml:"phases" toml:"phases"`
}

type phaseFile struct {
	ID          string     `json:"id" yaml:"id" toml:"id"`
	Name        string     `json:"name" yaml:"name" toml:"name"`
	Description string     `json:"description" yaml:"description" toml:"description"`
	Days        string     `json:"days" yaml:"days" toml:"days"`
	Tasks       []taskFile `json:"tasks" yaml:"tasks" toml:"tasks"`
	Milestones  []string   `json:"milestones" yaml:"milestones" toml:"milestones"`
}

type taskFile struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Title       string `json:"title" yaml:"title" toml:"title"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Category    string `json:"category" yaml:"category" toml:"category"`
	Day         string `json:"day" yaml:"day" toml:"day"`
	Notes       string `json:"notes" yaml:"notes" toml:"notes"`
	CodeSnippet string `json:"code_snippet" yaml:"code_snippet" toml:"code_snippet"`
}

// LoadPlanFile reads a study plan from a .yaml, .yml, .toml, or .json
// file and validates it. Imported tasks always start incomplete.
func LoadPlanFile(path string) ([]Phase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var pf planFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported plan file extension %q (want .yaml, .toml, or .json)", filepath.Ext(path))
	}

	if len(pf.Phases) == 0 {
		return nil, fmt.Errorf("plan file %s contains no phases", path)
	}

	phases := make([]Phase, 0, len(pf.Phases))
	for _, p := range pf.Phases {
		phase := Phase{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Days:        p.Days,
			Milestones:  p.Milestones,
		}
		for _, t := range p.Tasks {
			cat := Category(t.Category)
			if !cat.Valid() {
				cat = CategorySetup
			}
			phase.Tasks = append(phase.Tasks, Task{
				ID:          t.ID,
				Title:       t.Title,
				Description: t.Description,
				Category:    cat,
				Day:         t.Day,
				Notes:       t.Notes,
				CodeSnippet: t.CodeSnippet,
			})
		}
		if err := phase.Validate(); err != nil {
			return nil, fmt.Errorf("invalid phase %q in %s: %w", p.ID, path, err)
		}
		phases = append(phases, phase)
	}

	return phases, nil
}
