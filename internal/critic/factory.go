package critic

import "fmt"

// FromConfig creates a Client from the given configuration.
// If cfg.Type is empty, defaults to Claude.
// Returns an error for unknown critic types.
func FromConfig(cfg Config) (Client, error) {
	switch cfg.Type {
	case TypeClaude, "":
		return NewClaude(cfg)
	case TypeCodex:
		return NewCodex(cfg), nil
	case TypeOpenCode:
		return NewOpenCode(cfg), nil
	default:
		return nil, fmt.Errorf("unknown critic type: %s", cfg.Type)
	}
}
