// Package gen turns free-text descriptions of upcoming work into draft
// tasks via the Anthropic API. The model's output is untrusted: every
// draft is validated and defaulted before it becomes a task, and a
// response that contains no usable draft is an error rather than an
// empty success.
package gen

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mschirtzinger/learntrack/internal/plan"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 2048
)

const systemPrompt = `You break down learning goals into concrete tasks for a
personal study tracker. Respond with a JSON array only, no prose. Each
element has the fields: "title" (short imperative), "description" (one
or two sentences), "category" (one of "setup", "yolo", "ga",
"analysis"), "day" (a label like "Day 3"), "estimatedHours" (number),
"priority" ("low", "medium" or "high"), and optionally "codeSnippet"
and "notes". Produce between one and eight tasks.`

// Config holds Generator options.
type Config struct {
	// APIKey for the Anthropic API. Defaults to ANTHROPIC_API_KEY.
	APIKey string

	// Model overrides the default model.
	Model string

	// MaxTokens caps the response size.
	MaxTokens int64

	// Logger for generation activity.
	Logger *log.Logger
}

// Generator produces draft tasks from free-text goal descriptions.
type Generator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *log.Logger
}

// New creates a Generator. An API key must be available either in
// config or in the environment.
func New(config Config) (*Generator, error) {
	key := config.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("no API key: set ANTHROPIC_API_KEY or configure one")
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[gen] ", log.LstdFlags)
	}
	return &Generator{
		client:    anthropic.NewClient(option.WithAPIKey(key)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Generate asks the model to break the free-text goal into tasks and
// returns them validated and ready to add to a phase.
func (g *Generator) Generate(ctx context.Context, goal string) ([]plan.Task, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("goal description is empty")
	}

	g.logger.Printf("Generating tasks for: %.60s", goal)

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(goal)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call model: %w", err)
	}

	var raw strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			raw.WriteString(block.Text)
		}
	}

	drafts, err := ParseDrafts(raw.String())
	if err != nil {
		return nil, err
	}

	tasks := make([]plan.Task, 0, len(drafts))
	for _, draft := range drafts {
		tasks = append(tasks, draft.Task(newTaskID()))
	}
	g.logger.Printf("Generated %d tasks", len(tasks))
	return tasks, nil
}

func newTaskID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return "gen-" + hex.EncodeToString(buf)
}
