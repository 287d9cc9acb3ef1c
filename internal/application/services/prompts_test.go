package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/infrastructure/registry"
	"github.com/Datron/jilebi/sdk"
)

func newPromptRenderer(t *testing.T) *PromptRenderer {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(sdk.Plugin{
		ManifestTOML: []byte(`
name = "briefer"
version = "1.0.0"

[tools.noop]
function = "Noop"

[prompts.brief]
description = "Brief the user on a topic."

[[prompts.brief.arguments]]
name = "topic"
required = true

[[prompts.brief.arguments]]
name = "tone"

[[prompts.brief.messages]]
role = "system"
content = "Answer in a {tone} tone."

[[prompts.brief.messages]]
role = "user"
content = "Brief me on {topic}. Keep {unknown} untouched."
`),
		Tools: map[string]sdk.ToolFunc{"Noop": nil},
	}))
	return NewPromptRenderer(reg)
}

func Test_PromptRenderer_Render(t *testing.T) {
	r := newPromptRenderer(t)

	msgs, err := r.Render("briefer", "brief", map[string]string{
		"topic": "release cadence",
		"tone":  "neutral",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "Answer in a neutral tone.", msgs[0].Content)
	assert.Equal(t, "Brief me on release cadence. Keep {unknown} untouched.", msgs[1].Content)
}

func Test_PromptRenderer_Render_OptionalArgumentAbsent(t *testing.T) {
	r := newPromptRenderer(t)

	msgs, err := r.Render("briefer", "brief", map[string]string{"topic": "x"})
	require.NoError(t, err)
	// The unfilled optional placeholder stays verbatim.
	assert.Equal(t, "Answer in a {tone} tone.", msgs[0].Content)
}

func Test_PromptRenderer_Render_MissingRequiredArgument(t *testing.T) {
	r := newPromptRenderer(t)

	_, err := r.Render("briefer", "brief", nil)

	var invalid *apperrors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "topic", invalid.Field)
}

func Test_PromptRenderer_Render_UndeclaredArgumentIgnored(t *testing.T) {
	r := newPromptRenderer(t)

	msgs, err := r.Render("briefer", "brief", map[string]string{
		"topic":   "x",
		"unknown": "injected",
	})
	require.NoError(t, err)
	// Arguments not declared by the prompt never substitute.
	assert.Contains(t, msgs[1].Content, "{unknown}")
}

func Test_PromptRenderer_Render_NotFound(t *testing.T) {
	r := newPromptRenderer(t)

	_, err := r.Render("nope", "brief", nil)
	var pluginErr *apperrors.PluginNotFoundError
	assert.ErrorAs(t, err, &pluginErr)

	_, err = r.Render("briefer", "nope", nil)
	var toolErr *apperrors.ToolNotFoundError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "prompt", toolErr.Kind)
}
