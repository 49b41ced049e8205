package prompts

import "embed"

// templatesFS embeds the default prompt templates compiled into the
// binary. Users override them by dropping a file with the same name
// into ~/.parley/prompts/.
//
//go:embed templates/*.md
var templatesFS embed.FS
