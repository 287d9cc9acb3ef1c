package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/domain/values"
)

type rawManifest struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Homepage string `toml:"homepage"`
	Creator  string `toml:"creator"`
	Contact  string `toml:"contact"`

	Env     map[string]rawEnvVar `toml:"env"`
	Secrets map[string]rawSecret `toml:"secrets"`

	Tools     map[string]rawTool     `toml:"tools"`
	Resources map[string]rawResource `toml:"resources"`
	Prompts   map[string]rawPrompt   `toml:"prompts"`
}

type rawEnvVar struct {
	Schema  map[string]any `toml:"schema"`
	Default string         `toml:"default"`
}

type rawSecret struct {
	Schema map[string]any `toml:"schema"`
}

type rawAnnotations struct {
	Title           string `toml:"title"`
	ReadOnlyHint    bool   `toml:"read_only_hint"`
	DestructiveHint bool   `toml:"destructive_hint"`
	IdempotentHint  bool   `toml:"idempotent_hint"`
	OpenWorldHint   bool   `toml:"open_world_hint"`
}

type rawTool struct {
	Name        string          `toml:"name"`
	Description string          `toml:"description"`
	Function    string          `toml:"function"`
	InputSchema map[string]any  `toml:"input_schema"`
	Annotations rawAnnotations  `toml:"annotations"`
	Permissions permissions.Set `toml:"permissions"`
}

type rawResource struct {
	Name        string          `toml:"name"`
	Description string          `toml:"description"`
	URI         string          `toml:"uri"`
	MimeType    string          `toml:"mime_type"`
	Function    string          `toml:"function"`
	Annotations rawAnnotations  `toml:"annotations"`
	Permissions permissions.Set `toml:"permissions"`
}

type rawPromptArgument struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Required    bool   `toml:"required"`
}

type rawPromptMessage struct {
	Role    string `toml:"role"`
	Content string `toml:"content"`
}

type rawPrompt struct {
	Name        string              `toml:"name"`
	Description string              `toml:"description"`
	Arguments   []rawPromptArgument `toml:"arguments"`
	Messages    []rawPromptMessage  `toml:"messages"`
}

// Load parses and validates a manifest.toml. The returned Manifest is
// fully validated: required fields present, version is semver, every
// permission pattern is syntactically valid and every input_schema
// compiles. Load has no side effects.
func Load(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	name, err := values.NewPluginName(raw.Name)
	if err != nil {
		return nil, err
	}

	if raw.Version == "" {
		return nil, fmt.Errorf("plugin %s: version is required", name)
	}
	if _, err := semver.NewVersion(raw.Version); err != nil {
		return nil, fmt.Errorf("plugin %s: version %q is not valid semver: %w", name, raw.Version, err)
	}

	if len(raw.Tools) == 0 {
		return nil, fmt.Errorf("plugin %s: at least one tool is required", name)
	}

	if err := checkDuplicateIDs(raw); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", name, err)
	}

	m := &Manifest{
		Name:      name,
		Version:   raw.Version,
		Homepage:  raw.Homepage,
		Creator:   raw.Creator,
		Contact:   raw.Contact,
		Env:       make(map[string]EnvVar, len(raw.Env)),
		Secrets:   make(map[string]Secret, len(raw.Secrets)),
		Tools:     make(map[string]*ToolDef, len(raw.Tools)),
		Resources: make(map[string]*ResourceDef, len(raw.Resources)),
		Prompts:   make(map[string]*PromptDef, len(raw.Prompts)),
	}

	for k, v := range raw.Env {
		m.Env[k] = EnvVar{Schema: v.Schema, Default: v.Default}
	}
	for k, v := range raw.Secrets {
		m.Secrets[k] = Secret{Schema: v.Schema}
	}

	for id, t := range raw.Tools {
		tool, err := buildTool(name.String(), id, t)
		if err != nil {
			return nil, err
		}
		m.Tools[id] = tool
	}

	for id, r := range raw.Resources {
		res, err := buildResource(name.String(), id, r)
		if err != nil {
			return nil, err
		}
		m.Resources[id] = res
	}

	for id, p := range raw.Prompts {
		prompt, err := buildPrompt(name.String(), id, p)
		if err != nil {
			return nil, err
		}
		m.Prompts[id] = prompt
	}

	return m, nil
}

// CheckFunctions verifies that every function name referenced by a tool or
// resource resolves to a registered plugin function. Unresolved references
// are a load-time error; the plugin must not load at all.
func (m *Manifest) CheckFunctions(toolFuncs, resourceFuncs map[string]bool) error {
	for id, t := range m.Tools {
		if !toolFuncs[t.Function] {
			return fmt.Errorf("plugin %s: tool %q references unknown function %q", m.Name, id, t.Function)
		}
	}
	for id, r := range m.Resources {
		if !resourceFuncs[r.Function] {
			return fmt.Errorf("plugin %s: resource %q references unknown function %q", m.Name, id, r.Function)
		}
	}
	return nil
}

func buildTool(plugin, id string, t rawTool) (*ToolDef, error) {
	if _, err := values.NewToolID(id); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", plugin, err)
	}
	if t.Function == "" {
		return nil, fmt.Errorf("plugin %s: tool %q: function is required", plugin, id)
	}
	if err := t.Permissions.Validate(); err != nil {
		return nil, fmt.Errorf("plugin %s: tool %q: %w", plugin, id, err)
	}

	tool := &ToolDef{
		ID:             id,
		Name:           t.Name,
		Description:    t.Description,
		Function:       t.Function,
		Annotations:    annotations(t.Annotations),
		Permissions:    t.Permissions,
		RawInputSchema: t.InputSchema,
	}
	if tool.Name == "" {
		tool.Name = id
	}

	if len(t.InputSchema) > 0 {
		sch, err := compileInputSchema(plugin, id, t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: tool %q: input_schema: %w", plugin, id, err)
		}
		tool.InputSchema = sch
	}
	return tool, nil
}

func buildResource(plugin, id string, r rawResource) (*ResourceDef, error) {
	if _, err := values.NewToolID(id); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", plugin, err)
	}
	if r.Function == "" {
		return nil, fmt.Errorf("plugin %s: resource %q: function is required", plugin, id)
	}
	if r.URI == "" {
		return nil, fmt.Errorf("plugin %s: resource %q: uri is required", plugin, id)
	}
	if err := r.Permissions.Validate(); err != nil {
		return nil, fmt.Errorf("plugin %s: resource %q: %w", plugin, id, err)
	}
	res := &ResourceDef{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		URI:         r.URI,
		MimeType:    r.MimeType,
		Function:    r.Function,
		Annotations: annotations(r.Annotations),
		Permissions: r.Permissions,
	}
	if res.Name == "" {
		res.Name = id
	}
	return res, nil
}

func buildPrompt(plugin, id string, p rawPrompt) (*PromptDef, error) {
	if _, err := values.NewToolID(id); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", plugin, err)
	}
	if len(p.Messages) == 0 {
		return nil, fmt.Errorf("plugin %s: prompt %q: at least one message is required", plugin, id)
	}
	prompt := &PromptDef{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
	}
	if prompt.Name == "" {
		prompt.Name = id
	}
	for _, a := range p.Arguments {
		if a.Name == "" {
			return nil, fmt.Errorf("plugin %s: prompt %q: argument name is required", plugin, id)
		}
		prompt.Arguments = append(prompt.Arguments, PromptArgument(a))
	}
	for i, msg := range p.Messages {
		if msg.Role == "" {
			return nil, fmt.Errorf("plugin %s: prompt %q: message %d: role is required", plugin, id, i)
		}
		prompt.Messages = append(prompt.Messages, PromptMessage(msg))
	}
	return prompt, nil
}

func annotations(a rawAnnotations) Annotations {
	return Annotations(a)
}

// checkDuplicateIDs rejects an ID declared under more than one of tools,
// resources and prompts. Duplicates within one table are already TOML
// syntax errors.
func checkDuplicateIDs(raw rawManifest) error {
	seen := make(map[string]string)
	check := func(kind string, ids map[string]struct{}) error {
		for id := range ids {
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("duplicate id %q declared as both %s and %s", id, prev, kind)
			}
			seen[id] = kind
		}
		return nil
	}

	toolIDs := make(map[string]struct{}, len(raw.Tools))
	for id := range raw.Tools {
		toolIDs[id] = struct{}{}
	}
	resourceIDs := make(map[string]struct{}, len(raw.Resources))
	for id := range raw.Resources {
		resourceIDs[id] = struct{}{}
	}
	promptIDs := make(map[string]struct{}, len(raw.Prompts))
	for id := range raw.Prompts {
		promptIDs[id] = struct{}{}
	}

	if err := check("tool", toolIDs); err != nil {
		return err
	}
	if err := check("resource", resourceIDs); err != nil {
		return err
	}
	return check("prompt", promptIDs)
}

// compileInputSchema compiles a tool's input_schema (declared as a TOML
// table) into a JSON Schema validator.
func compileInputSchema(plugin, tool string, raw map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := "manifest:///" + plugin + "/" + tool + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}
