package config

const (
	DefaultClaudeModel   = "sonnet"
	DefaultTimeout       = "5m"
	DefaultMaxIterations = 5
	DefaultStateDir      = ".parley"
	DefaultLogLevel      = "info"
	DefaultHistoryPath   = ".parley/history.db"
	DefaultWebAddr       = "127.0.0.1:8400"
	DefaultNotifyType    = "terminal"
	DefaultSpecsDir      = "specs"
	DefaultMaxFileBytes  = 64 * 1024
)

// DefaultCritics returns the canonical two-critic configuration:
// one claude critic with the given model, one codex critic.
func DefaultCritics(claudeModel string) []CriticConfig {
	return []CriticConfig{
		{Type: CriticClaude, Model: claudeModel},
		{Type: CriticCodex},
	}
}

// DefaultConfig returns a Config with all default values applied.
// The critic list is left empty; LoadConfig fills it after the
// claude_model setting is final.
func DefaultConfig() *Config {
	return &Config{
		ClaudeModel:   DefaultClaudeModel,
		Timeout:       DefaultTimeout,
		MaxIterations: DefaultMaxIterations,
		StateDir:      DefaultStateDir,
		LogLevel:      DefaultLogLevel,
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath,
		},
		Web: WebConfig{
			Addr: DefaultWebAddr,
		},
		Notify: NotifyConfig{
			Type: DefaultNotifyType,
		},
		Context: ContextConfig{
			SpecsDir:     DefaultSpecsDir,
			MaxFileBytes: DefaultMaxFileBytes,
		},
	}
}
