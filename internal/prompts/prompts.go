package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Name identifies a known prompt template.
type Name string

const (
	// PlanReview is the four-step plan critique prompt.
	PlanReview Name = "plan-review"
	// CodeReview is the four-step diff critique prompt.
	CodeReview Name = "code-review"
	// DebateRound is the continuation prompt for rounds two and later.
	DebateRound Name = "debate-round"
	// TestGeneration asks the critics to derive tests from the plan.
	TestGeneration Name = "test-generation"
)

// Source indicates where a template was loaded from.
type Source string

const (
	// SourceUser indicates the template came from ~/.parley/prompts/.
	SourceUser Source = "user"
	// SourceEmbedded indicates the compiled-in default was used.
	SourceEmbedded Source = "embedded"
)

// Template is a loaded prompt template.
type Template struct {
	Name    Name
	Content string
	Source  Source
}

// defaultDir overrides the user template directory for the process.
// Set once from configuration during command startup, before any
// template is rendered.
var defaultDir string

// SetDefaultDir points template loading at dir instead of
// ~/.parley/prompts/. An empty dir restores the home default.
func SetDefaultDir(dir string) {
	defaultDir = dir
}

// Load loads a template by name, checking user overrides first and
// falling back to the embedded default.
func Load(name Name) (*Template, error) {
	return LoadWithDir(name, "")
}

// LoadWithDir loads a template with a custom override directory.
// If dir is empty, it defaults to the configured directory and then
// to ~/.parley/prompts/.
func LoadWithDir(name Name, dir string) (*Template, error) {
	if dir == "" {
		dir = defaultDir
	}
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return loadEmbedded(name)
		}
		dir = filepath.Join(homeDir, ".parley", "prompts")
	}
	if strings.HasPrefix(dir, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(homeDir, dir[1:])
		}
	}

	userPath := filepath.Join(dir, string(name)+".md")
	if content, err := os.ReadFile(userPath); err == nil {
		return &Template{Name: name, Content: string(content), Source: SourceUser}, nil
	}

	return loadEmbedded(name)
}

func loadEmbedded(name Name) (*Template, error) {
	content, err := templatesFS.ReadFile("templates/" + string(name) + ".md")
	if err != nil {
		return nil, fmt.Errorf("prompt template %s not found: %w", name, err)
	}
	return &Template{Name: name, Content: string(content), Source: SourceEmbedded}, nil
}

// Render executes the template with the given data.
func (t *Template) Render(data any) (string, error) {
	tmpl, err := template.New(string(t.Name)).Parse(t.Content)
	if err != nil {
		return "", fmt.Errorf("parse prompt template %s: %w", t.Name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", t.Name, err)
	}
	return sb.String(), nil
}

// RenderPlanReview builds the round-one plan critique prompt.
func RenderPlanReview(content string) (string, error) {
	t, err := Load(PlanReview)
	if err != nil {
		return "", err
	}
	return t.Render(struct{ Content string }{Content: content})
}

// RenderCodeReview builds the round-one code critique prompt.
// The plan is optional; when present it is shown above the diff so the
// critic can judge deviation.
func RenderCodeReview(plan, diff string) (string, error) {
	t, err := Load(CodeReview)
	if err != nil {
		return "", err
	}
	return t.Render(struct{ Plan, Diff string }{Plan: plan, Diff: diff})
}

// RenderTestGeneration builds the test derivation prompt.
func RenderTestGeneration(content string) (string, error) {
	t, err := Load(TestGeneration)
	if err != nil {
		return "", err
	}
	return t.Render(struct{ Content string }{Content: content})
}

// RenderDebateRound builds the continuation prompt for round two and
// later, embedding the full debate history and an optional user focus.
func RenderDebateRound(content, history string, round int, focus string) (string, error) {
	t, err := Load(DebateRound)
	if err != nil {
		return "", err
	}
	return t.Render(struct {
		Content string
		History string
		Round   int
		Focus   string
	}{Content: content, History: history, Round: round, Focus: focus})
}
