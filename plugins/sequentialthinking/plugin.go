// Package sequentialthinking keeps an ordered scratchpad of thoughts in
// the plugin's private state.
package sequentialthinking

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Datron/jilebi/sdk"
)

//go:embed manifest.toml
var manifestTOML []byte

const stateKey = "thoughts"

// New returns the sequential-thinking plugin.
func New() sdk.Plugin {
	return sdk.Plugin{
		ManifestTOML: manifestTOML,
		Tools: map[string]sdk.ToolFunc{
			"Think":         Think,
			"GetThoughts":   GetThoughts,
			"ClearThoughts": ClearThoughts,
		},
	}
}

// Thought is one recorded step.
type Thought struct {
	Number        int    `json:"number"`
	TotalExpected int    `json:"total_expected"`
	Text          string `json:"text"`
	NeedsMore     bool   `json:"needs_more"`
}

// Think appends one thought. The append is an atomic state update, so
// concurrent chains interleave without losing entries.
func Think(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	text, _ := req.String("thought")
	number, _ := req.Int("thought_number")
	total, _ := req.Int("total_thoughts")
	needsMore, _ := req.Bool("next_thought_needed")

	var count int
	err := env.UpdateState(ctx, stateKey, func(raw json.RawMessage, found bool) (any, error) {
		var thoughts []Thought
		if found {
			if err := json.Unmarshal(raw, &thoughts); err != nil {
				return nil, fmt.Errorf("corrupt thoughts state: %w", err)
			}
		}
		thoughts = append(thoughts, Thought{
			Number:        number,
			TotalExpected: total,
			Text:          text,
			NeedsMore:     needsMore,
		})
		count = len(thoughts)
		return thoughts, nil
	})
	if err != nil {
		return nil, err
	}
	return sdk.Textf("Recorded thought %d/%d (%d stored).", number, total, count), nil
}

// GetThoughts renders the recorded chain.
func GetThoughts(ctx context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	var thoughts []Thought
	if _, err := env.GetState(ctx, stateKey, &thoughts); err != nil {
		return nil, err
	}
	if len(thoughts) == 0 {
		return sdk.Text("No thoughts recorded."), nil
	}
	var b strings.Builder
	for _, t := range thoughts {
		fmt.Fprintf(&b, "%d/%d: %s\n", t.Number, t.TotalExpected, t.Text)
	}
	return sdk.Text(b.String()), nil
}

// ClearThoughts resets the chain.
func ClearThoughts(ctx context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	if err := env.SetState(ctx, stateKey, []Thought{}); err != nil {
		return nil, err
	}
	return sdk.Text("Thoughts cleared."), nil
}
