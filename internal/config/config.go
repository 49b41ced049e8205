package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CriticType represents a supported reviewer back-end.
type CriticType string

const (
	CriticClaude   CriticType = "claude"
	CriticCodex    CriticType = "codex"
	CriticOpenCode CriticType = "opencode"
)

// CriticConfig selects and configures one reviewer back-end.
type CriticConfig struct {
	// Type is the back-end kind: "claude", "codex" or "opencode"
	Type CriticType `yaml:"type"`

	// Model selects the model for back-ends that support it (claude only).
	// Empty means the top-level claude_model.
	Model string `yaml:"model,omitempty"`

	// Command overrides the CLI binary path for this critic
	Command string `yaml:"command,omitempty"`
}

// HistoryConfig controls the session history database.
type HistoryConfig struct {
	// Enabled controls whether sessions and events are recorded. Default: true.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database location.
	// Relative paths are resolved from the project root.
	Path string `yaml:"path"`
}

// WebConfig controls the dashboard server.
type WebConfig struct {
	// Addr is the listen address for `parley serve`
	Addr string `yaml:"addr"`
}

// NotifyConfig controls where checkpoint notifications go.
type NotifyConfig struct {
	// Type is the notifier kind: "terminal" (default), "slack",
	// "webhook", "multi" or "none"
	Type string `yaml:"type"`

	// SlackWebhook is the Slack incoming-webhook URL (slack/multi)
	SlackWebhook string `yaml:"slack_webhook,omitempty"`

	// WebhookURL is a generic JSON webhook endpoint (webhook/multi)
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// CheckpointConfig controls the human decision points.
type CheckpointConfig struct {
	// Auto accepts the default decision at every checkpoint without
	// prompting. Intended for unattended runs; conflicts still surface
	// in the summary.
	Auto bool `yaml:"auto"`
}

// ContextConfig controls automatic context collection.
type ContextConfig struct {
	// SpecsDir is a directory whose markdown files are always offered
	// as context when it exists
	SpecsDir string `yaml:"specs_dir"`

	// MaxFileBytes truncates each collected file to this size.
	// 0 means unlimited.
	MaxFileBytes int `yaml:"max_file_bytes"`
}

// Config holds all settings for a parley run.
// It is immutable after creation via LoadConfig().
type Config struct {
	// ClaudeModel is the default model for claude critics (sonnet, opus, haiku)
	ClaudeModel string `yaml:"claude_model"`

	// Critics lists the reviewer back-ends consulted by review commands.
	// Empty means the canonical claude + codex pair.
	Critics []CriticConfig `yaml:"critics,omitempty"`

	// Timeout bounds each critic call (Go duration string)
	Timeout string `yaml:"timeout"`

	// MaxIterations is the refinement loop ceiling
	MaxIterations int `yaml:"max_iterations"`

	// StateDir is where loop and debate documents are persisted.
	// Relative paths are resolved from the project root.
	StateDir string `yaml:"state_dir"`

	// PromptDir overrides the prompt template directory
	// (default: ~/.parley/prompts)
	PromptDir string `yaml:"prompt_dir,omitempty"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// History controls session recording
	History HistoryConfig `yaml:"history"`

	// Web configures the dashboard server
	Web WebConfig `yaml:"web"`

	// Notify configures checkpoint notifications
	Notify NotifyConfig `yaml:"notify"`

	// Checkpoint configures the human decision points
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// Context configures automatic context collection
	Context ContextConfig `yaml:"context"`
}

// TimeoutDuration parses the critic timeout as a Duration.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.Timeout)
}

// LoadConfig loads configuration from the project root.
// It applies defaults, then file values, then environment overrides,
// then normalizes and validates.
//
// Parameters:
//   - root: absolute path to the project root directory
//
// Returns the validated Config or an error if validation fails.
func LoadConfig(root string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load config file (optional)
	configPath := filepath.Join(root, ".parley.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	// Note: missing config file is not an error (use defaults)

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// An empty critic list means the canonical pair
	if len(cfg.Critics) == 0 {
		cfg.Critics = DefaultCritics(cfg.ClaudeModel)
	}

	// Claude critics without an explicit model inherit the top-level one
	for i := range cfg.Critics {
		if cfg.Critics[i].Type == CriticClaude && cfg.Critics[i].Model == "" {
			cfg.Critics[i].Model = cfg.ClaudeModel
		}
	}

	// Resolve relative paths from the project root
	if !filepath.IsAbs(cfg.StateDir) {
		cfg.StateDir = filepath.Join(root, cfg.StateDir)
	}
	if cfg.History.Path != "" && !filepath.IsAbs(cfg.History.Path) {
		cfg.History.Path = filepath.Join(root, cfg.History.Path)
	}

	// Validate
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
