package provider

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// PromptEntry is one templated prompt from the embedded spec.
type PromptEntry struct {
	Prompt    string `yaml:"prompt"`
	MaxTokens int    `yaml:"maxTokens,omitempty"`
}

// PromptSpec holds the prompt templates for classification, per-schema
// structured extraction, and vision analysis.
type PromptSpec struct {
	Classify  PromptEntry `yaml:"classify"`
	Meal      PromptEntry `yaml:"meal"`
	Workout   PromptEntry `yaml:"workout"`
	Hydration PromptEntry `yaml:"hydration"`
	Vision    PromptEntry `yaml:"vision"`
}

// LoadPrompts parses the embedded prompt spec.
func LoadPrompts() (*PromptSpec, error) {
	var spec PromptSpec
	if err := yaml.Unmarshal(promptsYAML, &spec); err != nil {
		return nil, fmt.Errorf("parse prompt spec: %w", err)
	}
	for name, entry := range map[string]PromptEntry{
		"classify":  spec.Classify,
		"meal":      spec.Meal,
		"workout":   spec.Workout,
		"hydration": spec.Hydration,
		"vision":    spec.Vision,
	} {
		if strings.TrimSpace(entry.Prompt) == "" {
			return nil, fmt.Errorf("prompt spec: missing %s prompt", name)
		}
	}
	return &spec, nil
}

// Render substitutes the user text into the template.
func (e PromptEntry) Render(text string) string {
	return strings.ReplaceAll(e.Prompt, "{{TEXT}}", text)
}
