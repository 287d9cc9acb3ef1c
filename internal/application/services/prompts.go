package services

import (
	"fmt"
	"regexp"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/application/ports"
	"github.com/Datron/jilebi/internal/domain/manifest"
)

// Prompt placeholders look like {topic}.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// PromptRenderer resolves prompt templates and substitutes the caller's
// arguments into their messages.
type PromptRenderer struct {
	registry ports.PluginRegistry
}

// NewPromptRenderer creates a prompt renderer over a loaded registry.
func NewPromptRenderer(registry ports.PluginRegistry) *PromptRenderer {
	return &PromptRenderer{registry: registry}
}

// Render looks up a prompt and returns its messages with every
// {placeholder} replaced by the matching argument. Missing required
// arguments are an InvalidInput error; unknown placeholders are left
// verbatim.
func (p *PromptRenderer) Render(plugin, prompt string, args map[string]string) ([]manifest.PromptMessage, error) {
	m, ok := p.registry.Manifest(plugin)
	if !ok {
		return nil, &apperrors.PluginNotFoundError{Plugin: plugin}
	}
	def := m.Prompt(prompt)
	if def == nil {
		return nil, &apperrors.ToolNotFoundError{Plugin: plugin, Tool: prompt, Kind: "prompt"}
	}

	for _, arg := range def.Arguments {
		if _, ok := args[arg.Name]; arg.Required && !ok {
			return nil, &apperrors.InvalidInputError{
				Field:   arg.Name,
				Message: fmt.Sprintf("required prompt argument %q is missing", arg.Name),
			}
		}
	}

	declared := make(map[string]bool, len(def.Arguments))
	for _, arg := range def.Arguments {
		declared[arg.Name] = true
	}

	out := make([]manifest.PromptMessage, len(def.Messages))
	for i, msg := range def.Messages {
		content := placeholderPattern.ReplaceAllStringFunc(msg.Content, func(m string) string {
			name := placeholderPattern.FindStringSubmatch(m)[1]
			if v, ok := args[name]; ok && declared[name] {
				return v
			}
			return m
		})
		out[i] = manifest.PromptMessage{Role: msg.Role, Content: content}
	}
	return out, nil
}
