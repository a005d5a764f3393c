package gen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mschirtzinger/learntrack/internal/plan"
)

// DraftTask is a single task as the model proposes it, before
// validation. Field names match the JSON the prompt asks for.
type DraftTask struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Day            string  `json:"day"`
	EstimatedHours float64 `json:"estimatedHours"`
	Priority       string  `json:"priority"`
	CodeSnippet    string  `json:"codeSnippet"`
	Notes          string  `json:"notes"`
}

// ParseDrafts extracts draft tasks from a model response. Code fences
// around the JSON are tolerated; drafts without a title are dropped.
// An answer with no usable draft is an error.
func ParseDrafts(raw string) ([]DraftTask, error) {
	raw = stripFences(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var drafts []DraftTask
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	usable := drafts[:0]
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		usable = append(usable, draft)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("model response contained no usable tasks")
	}
	return usable, nil
}

// Task converts the draft into a validated task. Unknown categories
// fall back to setup and a missing day label becomes "Day 1"; the
// estimate and priority fold into the notes since tasks carry neither.
func (d DraftTask) Task(id string) plan.Task {
	category := plan.Category(strings.ToLower(strings.TrimSpace(d.Category)))
	if !category.Valid() {
		category = plan.CategorySetup
	}

	day := strings.TrimSpace(d.Day)
	if day == "" {
		day = "Day 1"
	}

	notes := strings.TrimSpace(d.Notes)
	var extras []string
	if d.EstimatedHours > 0 {
		extras = append(extras, fmt.Sprintf("Estimated: %gh", d.EstimatedHours))
	}
	if priority := strings.TrimSpace(d.Priority); priority != "" {
		extras = append(extras, "Priority: "+priority)
	}
	if len(extras) > 0 {
		joined := strings.Join(extras, ", ")
		if notes == "" {
			notes = joined
		} else {
			notes += " (" + joined + ")"
		}
	}

	return plan.Task{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    category,
		Day:         day,
		Notes:       notes,
		CodeSnippet: d.CodeSnippet,
	}
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimPrefix(raw, "json")
	if idx := strings.LastIndex(raw, "```"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
