package config

import "os"

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "PARLEY_CLAUDE_MODEL",
		apply: func(c *Config, v string) {
			c.ClaudeModel = v
		},
	},
	{
		envVar: "PARLEY_TIMEOUT",
		apply: func(c *Config, v string) {
			c.Timeout = v
		},
	},
	{
		envVar: "PARLEY_STATE_DIR",
		apply: func(c *Config, v string) {
			c.StateDir = v
		},
	},
	{
		envVar: "PARLEY_PROMPT_DIR",
		apply: func(c *Config, v string) {
			c.PromptDir = v
		},
	},
	{
		envVar: "PARLEY_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
	{
		envVar: "PARLEY_WEB_ADDR",
		apply: func(c *Config, v string) {
			c.Web.Addr = v
		},
	},
	{
		envVar: "PARLEY_SLACK_WEBHOOK",
		apply: func(c *Config, v string) {
			c.Notify.SlackWebhook = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
