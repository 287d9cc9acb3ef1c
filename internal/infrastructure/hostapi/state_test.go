package hostapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/infrastructure/state"
)

func Test_Surface_State_ScopedToPlugin(t *testing.T) {
	ctx := context.Background()
	host := New(state.NewMemoryStore(), Options{})

	wiki := host.Bind("wikipedia", permissions.Set{})
	arxiv := host.Bind("arxiv", permissions.Set{})

	require.NoError(t, wiki.SetState(ctx, "counter", json.RawMessage(`3`)))

	v, found, err := wiki.GetState(ctx, "counter")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `3`, string(v))

	// A second read without an intervening set returns the same value.
	again, found, err := wiki.GetState(ctx, "counter")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, string(v), string(again))

	// The same key in another plugin's surface is a different namespace.
	_, found, err = arxiv.GetState(ctx, "counter")
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_Surface_GetConfig(t *testing.T) {
	ctx := context.Background()
	host := New(state.NewMemoryStore(), Options{
		ConfigValues: map[string]string{"editor.theme": "dark"},
	})

	t.Run("declared key", func(t *testing.T) {
		surface := host.Bind("demo", permissions.Set{ConfigKeys: []string{"editor.theme"}})
		v, ok, err := surface.GetConfig(ctx, "editor.theme")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "dark", v)
	})

	t.Run("declared key with no value", func(t *testing.T) {
		surface := host.Bind("demo", permissions.Set{ConfigKeys: []string{"editor.font"}})
		_, ok, err := surface.GetConfig(ctx, "editor.font")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("undeclared key denied", func(t *testing.T) {
		surface := host.Bind("demo", permissions.Set{})
		_, _, err := surface.GetConfig(ctx, "editor.theme")

		var denied *apperrors.PermissionDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, apperrors.CategoryConfig, denied.Category)
		assert.Equal(t, "editor.theme", denied.Target)
	})
}

func Test_Surface_UpdateState(t *testing.T) {
	ctx := context.Background()
	surface := New(state.NewMemoryStore(), Options{}).Bind("demo", permissions.Set{})

	for i := 0; i < 3; i++ {
		err := surface.UpdateState(ctx, "n", func(current json.RawMessage, found bool) (json.RawMessage, error) {
			n := 0
			if found {
				if err := json.Unmarshal(current, &n); err != nil {
					return nil, err
				}
			}
			return json.Marshal(n + 1)
		})
		require.NoError(t, err)
	}

	v, found, err := surface.GetState(ctx, "n")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `3`, string(v))
}
