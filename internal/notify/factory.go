package notify

import "fmt"

// Config holds notification configuration
type Config struct {
	Type         string
	SlackWebhook string
	WebhookURL   string
}

// FromConfig creates a Notifier from configuration. The "multi" type
// combines the terminal with every backend that has a URL configured.
func FromConfig(cfg Config) (Notifier, error) {
	switch cfg.Type {
	case "", "terminal":
		return NewTerminal(), nil
	case "none":
		return NewNoop(), nil
	case "slack":
		if cfg.SlackWebhook == "" {
			return nil, fmt.Errorf("slack notifier requires webhook URL")
		}
		return NewSlack(cfg.SlackWebhook), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook notifier requires URL")
		}
		return NewWebhook(cfg.WebhookURL), nil
	case "multi":
		backends := []Notifier{NewTerminal()}
		if cfg.SlackWebhook != "" {
			backends = append(backends, NewSlack(cfg.SlackWebhook))
		}
		if cfg.WebhookURL != "" {
			backends = append(backends, NewWebhook(cfg.WebhookURL))
		}
		if len(backends) == 1 {
			return backends[0], nil
		}
		return NewMulti(backends...), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}
