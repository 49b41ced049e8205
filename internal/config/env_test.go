package config

import (
	"testing"
)

func TestEnvOverrides_ClaudeModel(t *testing.T) {
	cfg := &Config{ClaudeModel: "sonnet"}
	t.Setenv("PARLEY_CLAUDE_MODEL", "opus")

	applyEnvOverrides(cfg)

	if cfg.ClaudeModel != "opus" {
		t.Errorf("expected ClaudeModel to be 'opus', got '%s'", cfg.ClaudeModel)
	}
}

func TestEnvOverrides_Timeout(t *testing.T) {
	cfg := &Config{Timeout: "5m"}
	t.Setenv("PARLEY_TIMEOUT", "30s")

	applyEnvOverrides(cfg)

	if cfg.Timeout != "30s" {
		t.Errorf("expected Timeout to be '30s', got '%s'", cfg.Timeout)
	}
}

func TestEnvOverrides_StateDir(t *testing.T) {
	cfg := &Config{StateDir: ".parley"}
	t.Setenv("PARLEY_STATE_DIR", "/tmp/parley")

	applyEnvOverrides(cfg)

	if cfg.StateDir != "/tmp/parley" {
		t.Errorf("expected StateDir to be '/tmp/parley', got '%s'", cfg.StateDir)
	}
}

func TestEnvOverrides_WebAddr(t *testing.T) {
	cfg := &Config{Web: WebConfig{Addr: "127.0.0.1:8400"}}
	t.Setenv("PARLEY_WEB_ADDR", "0.0.0.0:9999")

	applyEnvOverrides(cfg)

	if cfg.Web.Addr != "0.0.0.0:9999" {
		t.Errorf("expected Web.Addr to be '0.0.0.0:9999', got '%s'", cfg.Web.Addr)
	}
}

func TestEnvOverrides_EmptyNoChange(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	t.Setenv("PARLEY_LOG_LEVEL", "")

	applyEnvOverrides(cfg)

	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to stay 'info', got '%s'", cfg.LogLevel)
	}
}
