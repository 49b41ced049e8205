package notify

import (
	"testing"
)

func TestFromConfig_DefaultsToTerminal(t *testing.T) {
	n, err := FromConfig(Config{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "terminal" {
		t.Errorf("expected default terminal, got %q", n.Name())
	}
}

func TestFromConfig_None(t *testing.T) {
	n, err := FromConfig(Config{Type: "none"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "none" {
		t.Errorf("expected none, got %q", n.Name())
	}
}

func TestFromConfig_Slack(t *testing.T) {
	n, err := FromConfig(Config{
		Type:         "slack",
		SlackWebhook: "https://hooks.slack.com/services/xxx",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "slack" {
		t.Errorf("expected slack, got %q", n.Name())
	}
}

func TestFromConfig_SlackMissingURL(t *testing.T) {
	_, err := FromConfig(Config{Type: "slack"})
	if err == nil {
		t.Error("expected error for missing slack webhook URL")
	}
}

func TestFromConfig_Webhook(t *testing.T) {
	n, err := FromConfig(Config{
		Type:       "webhook",
		WebhookURL: "https://example.com/webhook",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "webhook" {
		t.Errorf("expected webhook, got %q", n.Name())
	}
}

func TestFromConfig_WebhookMissingURL(t *testing.T) {
	_, err := FromConfig(Config{Type: "webhook"})
	if err == nil {
		t.Error("expected error for missing webhook URL")
	}
}

func TestFromConfig_MultiCombinesConfiguredBackends(t *testing.T) {
	n, err := FromConfig(Config{
		Type:         "multi",
		SlackWebhook: "https://hooks.slack.com/services/xxx",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "multi" {
		t.Errorf("expected multi, got %q", n.Name())
	}
}

func TestFromConfig_MultiWithoutURLsIsTerminal(t *testing.T) {
	n, err := FromConfig(Config{Type: "multi"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n.Name() != "terminal" {
		t.Errorf("expected bare multi to collapse to terminal, got %q", n.Name())
	}
}

func TestFromConfig_UnknownType(t *testing.T) {
	_, err := FromConfig(Config{Type: "carrier-pigeon"})
	if err == nil {
		t.Error("expected error for unknown notifier type")
	}
}
