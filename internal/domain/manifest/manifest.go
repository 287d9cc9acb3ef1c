// Package manifest holds the parsed, validated in-memory representation of
// a plugin's manifest.toml. A Manifest is built once at plugin load time
// and immutable afterwards; changing it requires a reinstall.
package manifest

import (
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/domain/values"
)

// Manifest identifies one plugin and everything it declares.
type Manifest struct {
	Name     values.PluginName
	Version  string
	Homepage string
	Creator  string
	Contact  string

	Env     map[string]EnvVar
	Secrets map[string]Secret

	Tools     map[string]*ToolDef
	Resources map[string]*ResourceDef
	Prompts   map[string]*PromptDef
}

// EnvVar declares an environment variable the plugin may see.
type EnvVar struct {
	Schema  map[string]any
	Default string
}

// Secret declares a secret the plugin may see. Secrets never carry
// defaults; an undeclared or missing secret is simply absent.
type Secret struct {
	Schema map[string]any
}

// Annotations carry MCP tool hints. They are advisory metadata only and
// never relax a permission check.
type Annotations struct {
	Title           string
	ReadOnlyHint    bool
	DestructiveHint bool
	IdempotentHint  bool
	OpenWorldHint   bool
}

// ToolDef declares one callable tool.
type ToolDef struct {
	ID          string
	Name        string
	Description string
	Function    string
	Annotations Annotations
	Permissions permissions.Set

	// InputSchema is the compiled input_schema; nil when the tool
	// declares none (any input accepted).
	InputSchema    *jsonschema.Schema
	RawInputSchema map[string]any
}

// ResourceDef declares one URI-addressed resource.
type ResourceDef struct {
	ID          string
	Name        string
	Description string
	URI         string
	MimeType    string
	Function    string
	Annotations Annotations
	Permissions permissions.Set
}

// PromptArgument declares one argument a prompt template accepts.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptMessage is one message of a prompt template. Content may contain
// {argument} placeholders substituted at render time.
type PromptMessage struct {
	Role    string
	Content string
}

// PromptDef declares one prompt template.
type PromptDef struct {
	ID          string
	Name        string
	Description string
	Arguments   []PromptArgument
	Messages    []PromptMessage
}

// Tool returns the tool with the given ID, or nil.
func (m *Manifest) Tool(id string) *ToolDef {
	return m.Tools[id]
}

// Resource returns the resource with the given ID, or nil.
func (m *Manifest) Resource(id string) *ResourceDef {
	return m.Resources[id]
}

// Prompt returns the prompt with the given ID, or nil.
func (m *Manifest) Prompt(id string) *PromptDef {
	return m.Prompts[id]
}

// EnvKeys returns the names of all declared environment variables.
func (m *Manifest) EnvKeys() []string {
	keys := make([]string, 0, len(m.Env))
	for k := range m.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
