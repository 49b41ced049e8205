package config

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

var validClaudeModels = map[string]bool{
	"sonnet": true,
	"opus":   true,
	"haiku":  true,
}

var validCriticTypes = map[CriticType]bool{
	CriticClaude:   true,
	CriticCodex:    true,
	CriticOpenCode: true,
}

var validNotifyTypes = map[string]bool{
	"terminal": true,
	"slack":    true,
	"webhook":  true,
	"multi":    true,
	"none":     true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if !validClaudeModels[cfg.ClaudeModel] {
		errs = append(errs, &ValidationError{
			Field:   "claude_model",
			Value:   cfg.ClaudeModel,
			Message: "must be one of: sonnet, opus, haiku",
		})
	}

	// Timeout must be a valid, positive Go duration string
	if d, err := time.ParseDuration(cfg.Timeout); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "timeout",
			Value:   cfg.Timeout,
			Message: fmt.Sprintf("invalid duration: %v", err),
		})
	} else if d <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "timeout",
			Value:   cfg.Timeout,
			Message: "must be positive",
		})
	}

	if cfg.MaxIterations < 1 {
		errs = append(errs, &ValidationError{
			Field:   "max_iterations",
			Value:   cfg.MaxIterations,
			Message: "must be at least 1",
		})
	}

	if cfg.StateDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "state_dir",
			Value:   cfg.StateDir,
			Message: "must not be empty",
		})
	}

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	for i, critic := range cfg.Critics {
		if !validCriticTypes[critic.Type] {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("critics[%d].type", i),
				Value:   critic.Type,
				Message: "must be one of: claude, codex, opencode",
			})
		}
		if critic.Type == CriticClaude && !validClaudeModels[critic.Model] {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("critics[%d].model", i),
				Value:   critic.Model,
				Message: "must be one of: sonnet, opus, haiku",
			})
		}
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		errs = append(errs, &ValidationError{
			Field:   "history.path",
			Value:   cfg.History.Path,
			Message: "must be set when history is enabled",
		})
	}

	if cfg.Web.Addr == "" {
		errs = append(errs, &ValidationError{
			Field:   "web.addr",
			Value:   cfg.Web.Addr,
			Message: "must not be empty",
		})
	}

	if !validNotifyTypes[cfg.Notify.Type] {
		errs = append(errs, &ValidationError{
			Field:   "notify.type",
			Value:   cfg.Notify.Type,
			Message: "must be one of: terminal, slack, webhook, multi, none",
		})
	}
	if cfg.Notify.Type == "slack" && cfg.Notify.SlackWebhook == "" {
		errs = append(errs, &ValidationError{
			Field:   "notify.slack_webhook",
			Value:   cfg.Notify.SlackWebhook,
			Message: "must be set for the slack notifier",
		})
	}
	if cfg.Notify.Type == "webhook" && cfg.Notify.WebhookURL == "" {
		errs = append(errs, &ValidationError{
			Field:   "notify.webhook_url",
			Value:   cfg.Notify.WebhookURL,
			Message: "must be set for the webhook notifier",
		})
	}

	if cfg.Context.MaxFileBytes < 0 {
		errs = append(errs, &ValidationError{
			Field:   "context.max_file_bytes",
			Value:   cfg.Context.MaxFileBytes,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
