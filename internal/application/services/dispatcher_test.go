package services

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/infrastructure/hostapi"
	"github.com/Datron/jilebi/internal/infrastructure/registry"
	"github.com/Datron/jilebi/internal/infrastructure/state"
	"github.com/Datron/jilebi/sdk"
)

const fetcherManifest = `
name = "fetcher"
version = "1.0.0"

[tools.get]
function = "Get"

[tools.get.input_schema]
type = "object"
required = ["url"]
additionalProperties = false

[tools.get.input_schema.properties.url]
type = "string"

[tools.get.permissions]
hosts = ["https://api.github.com"]

[tools.boom]
function = "Boom"

[tools.greet]
function = "Greet"

[resources.greeting]
uri = "memory://fetcher/greeting"
function = "Greeting"
`

// countingTransport proves denied fetches never reach the network.
type countingTransport struct {
	calls int64
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.calls, 1)
	return nil, fmt.Errorf("network disabled in tests")
}

type fixture struct {
	dispatcher *Dispatcher
	transport  *countingTransport
	toolCalls  *int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	transport := &countingTransport{}
	host := hostapi.New(state.NewMemoryStore(), hostapi.Options{
		HTTPClient: &http.Client{Transport: transport},
	})

	var toolCalls int64
	plugin := sdk.Plugin{
		ManifestTOML: []byte(fetcherManifest),
		Tools: map[string]sdk.ToolFunc{
			"Get": func(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
				atomic.AddInt64(&toolCalls, 1)
				u, _ := req.String("url")
				if _, err := env.Fetch(ctx, sdk.FetchRequest{URL: u}); err != nil {
					return nil, err
				}
				return sdk.Text("fetched"), nil
			},
			"Boom": func(context.Context, sdk.Request, *sdk.Env) (*sdk.ToolResult, error) {
				panic("exploded")
			},
			"Greet": func(_ context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
				return sdk.Textf("hello from %s", env.Plugin()), nil
			},
		},
		Resources: map[string]sdk.ResourceFunc{
			"Greeting": func(context.Context, sdk.Request, *sdk.Env) (*sdk.ResourceResult, error) {
				return &sdk.ResourceResult{Contents: []sdk.ResourceContent{{
					URI:  "memory://fetcher/greeting",
					Text: "hi",
				}}}, nil
			},
		},
	}

	reg := registry.New()
	require.NoError(t, reg.Register(plugin))

	return &fixture{
		dispatcher: NewDispatcher(reg, host),
		transport:  transport,
		toolCalls:  &toolCalls,
	}
}

func Test_Dispatcher_Invoke_PluginNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Invoke(context.Background(), "nope", "get", nil, nil)

	var notFound *apperrors.PluginNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Plugin)
}

func Test_Dispatcher_Invoke_ToolNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Invoke(context.Background(), "fetcher", "missing", nil, nil)

	var notFound *apperrors.ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "fetcher", notFound.Plugin)
	assert.Equal(t, "missing", notFound.Tool)
}

func Test_Dispatcher_Invoke_InvalidInput(t *testing.T) {
	f := newFixture(t)

	// Required field absent: the schema rejects the call before the
	// plugin function runs.
	_, err := f.dispatcher.Invoke(context.Background(), "fetcher", "get", sdk.Request{}, nil)

	var invalid *apperrors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "url", invalid.Field)
	assert.Equal(t, int64(0), atomic.LoadInt64(f.toolCalls))
}

func Test_Dispatcher_Invoke_InvalidInput_WrongType(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Invoke(context.Background(), "fetcher", "get",
		sdk.Request{"url": 42}, nil)

	var invalid *apperrors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "url", invalid.Field)
	assert.Equal(t, int64(0), atomic.LoadInt64(f.toolCalls))
}

func Test_Dispatcher_Invoke_PermissionDeniedPassesThrough(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Invoke(context.Background(), "fetcher", "get",
		sdk.Request{"url": "https://evil.example.com/secrets"}, nil)

	var denied *apperrors.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, apperrors.CategoryHost, denied.Category)
	assert.Equal(t, "https://evil.example.com/secrets", denied.Target)

	// The plugin ran and was stopped at the surface, not on the wire.
	assert.Equal(t, int64(1), atomic.LoadInt64(f.toolCalls))
	assert.Equal(t, int64(0), atomic.LoadInt64(&f.transport.calls))

	var exec *apperrors.ToolExecutionError
	assert.NotErrorAs(t, err, &exec)
}

func Test_Dispatcher_Invoke_PanicBecomesExecutionError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dispatcher.Invoke(ctx, "fetcher", "boom", nil, nil)

	var exec *apperrors.ToolExecutionError
	require.ErrorAs(t, err, &exec)
	assert.Equal(t, "fetcher", exec.Plugin)
	assert.Equal(t, "boom", exec.Tool)
	assert.Contains(t, exec.Message, "exploded")

	// The dispatcher survives the panic and serves the next call.
	result, err := f.dispatcher.Invoke(ctx, "fetcher", "greet", nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "hello from fetcher", result.Content[0].Text)
}

func Test_Dispatcher_Dispatch_RendersErrors(t *testing.T) {
	f := newFixture(t)

	result := f.dispatcher.Dispatch(context.Background(), "fetcher", "boom", nil, nil)

	require.NotNil(t, result)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "exploded")
}

func Test_Dispatcher_Dispatch_Success(t *testing.T) {
	f := newFixture(t)

	result := f.dispatcher.Dispatch(context.Background(), "fetcher", "greet", nil, nil)

	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello from fetcher", result.Content[0].Text)
}

func Test_Dispatcher_ReadResource(t *testing.T) {
	f := newFixture(t)

	result, err := f.dispatcher.ReadResource(context.Background(), "fetcher", "greeting", nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "memory://fetcher/greeting", result.Contents[0].URI)
	assert.Equal(t, "hi", result.Contents[0].Text)

	_, err = f.dispatcher.ReadResource(context.Background(), "fetcher", "missing", nil, nil)
	var notFound *apperrors.ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "resource", notFound.Kind)
}

func Test_Dispatcher_InvokeAll(t *testing.T) {
	f := newFixture(t)

	calls := []Call{
		{Plugin: "fetcher", Tool: "greet"},
		{Plugin: "fetcher", Tool: "boom"},
		{Plugin: "nope", Tool: "greet"},
	}
	results := f.dispatcher.InvokeAll(context.Background(), calls, nil, 2)

	require.Len(t, results, 3)
	assert.False(t, results[0].IsError)
	assert.Equal(t, "hello from fetcher", results[0].Content[0].Text)
	assert.True(t, results[1].IsError)
	assert.True(t, results[2].IsError)
}

func Test_Dispatcher_Invoke_FiltersEnvironment(t *testing.T) {
	host := hostapi.New(state.NewMemoryStore(), hostapi.Options{})

	plugin := sdk.Plugin{
		ManifestTOML: []byte(`
name = "envy"
version = "1.0.0"

[env.DECLARED_VAR]
[env.DEFAULTED_VAR]
default = "fallback"

[secrets.DECLARED_TOKEN]

[tools.inspect]
function = "Inspect"
`),
		Tools: map[string]sdk.ToolFunc{
			"Inspect": func(_ context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
				declared, _ := env.Var("DECLARED_VAR")
				defaulted, _ := env.Var("DEFAULTED_VAR")
				token, _ := env.Secret("DECLARED_TOKEN")
				_, leakedVar := env.Var("UNDECLARED_VAR")
				_, leakedSecret := env.Secret("UNDECLARED_SECRET")
				return sdk.Textf("%s|%s|%s|%v|%v",
					declared, defaulted, token, leakedVar, leakedSecret), nil
			},
		},
	}

	reg := registry.New()
	require.NoError(t, reg.Register(plugin))
	dispatcher := NewDispatcher(reg, host)

	rawEnv := map[string]string{
		"DECLARED_VAR":      "visible",
		"DECLARED_TOKEN":    "s3cret",
		"UNDECLARED_VAR":    "hidden",
		"UNDECLARED_SECRET": "hidden",
	}
	result, err := dispatcher.Invoke(context.Background(), "envy", "inspect", nil, rawEnv)
	require.NoError(t, err)
	assert.Equal(t, "visible|fallback|s3cret|false|false", result.Content[0].Text)
}

func Test_HostEnviron(t *testing.T) {
	t.Setenv("JILEBI_DISPATCH_TEST", "value")

	env := HostEnviron()
	assert.Equal(t, "value", env["JILEBI_DISPATCH_TEST"])
}
