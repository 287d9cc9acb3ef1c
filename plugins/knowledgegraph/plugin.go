// Package knowledgegraph stores a small entity/relation graph in the
// plugin's private state. Every mutation goes through the host's atomic
// state update so concurrent tool calls cannot lose writes.
package knowledgegraph

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

const stateKey = "knowledgeGraph"

// New returns the knowledge-graph plugin.
func New() sdk.Plugin {
	return sdk.Plugin{
		ManifestTOML: manifestTOML,
		Tools: map[string]sdk.ToolFunc{
			"CreateEntities":  CreateEntities,
			"CreateRelations": CreateRelations,
			"AddObservations": AddObservations,
			"ReadGraph":       ReadGraph,
			"DeleteEntities":  DeleteEntities,
		},
		Resources: map[string]sdk.ResourceFunc{
			"GraphResource": GraphResource,
		},
	}
}

// Entity is one node of the graph.
type Entity struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Observations []string `json:"observations,omitempty"`
}

// Relation is one directed edge of the graph.
type Relation struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is the persisted state value.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

func decodeGraph(raw json.RawMessage, found bool) (Graph, error) {
	var g Graph
	if !found {
		return g, nil
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("corrupt knowledge graph state: %w", err)
	}
	return g, nil
}

// mutate applies fn to the stored graph under the state namespace lock.
func mutate(ctx context.Context, env *sdk.Env, fn func(g *Graph) error) error {
	return env.UpdateState(ctx, stateKey, func(raw json.RawMessage, found bool) (any, error) {
		g, err := decodeGraph(raw, found)
		if err != nil {
			return nil, err
		}
		if err := fn(&g); err != nil {
			return nil, err
		}
		return g, nil
	})
}

// CreateEntities adds new entities, skipping names that already exist.
func CreateEntities(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	items, _ := req.ObjectSlice("entities")
	added := 0
	err := mutate(ctx, env, func(g *Graph) error {
		existing := make(map[string]bool, len(g.Entities))
		for _, e := range g.Entities {
			existing[e.Name] = true
		}
		for _, item := range items {
			name, _ := item["name"].(string)
			if existing[name] {
				continue
			}
			entity := Entity{Name: name}
			entity.Type, _ = item["type"].(string)
			if obs, ok := item["observations"].([]any); ok {
				for _, o := range obs {
					if s, ok := o.(string); ok {
						entity.Observations = append(entity.Observations, s)
					}
				}
			}
			g.Entities = append(g.Entities, entity)
			existing[name] = true
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sdk.Textf("Added %d entities.", added), nil
}

// CreateRelations adds relations between existing entities.
func CreateRelations(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	items, _ := req.ObjectSlice("relations")
	added := 0
	err := mutate(ctx, env, func(g *Graph) error {
		known := make(map[string]bool, len(g.Entities))
		for _, e := range g.Entities {
			known[e.Name] = true
		}
		for _, item := range items {
			rel := Relation{}
			rel.From, _ = item["from"].(string)
			rel.To, _ = item["to"].(string)
			rel.Type, _ = item["type"].(string)
			if !known[rel.From] || !known[rel.To] {
				return fmt.Errorf("relation %s -> %s references an unknown entity", rel.From, rel.To)
			}
			g.Relations = append(g.Relations, rel)
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sdk.Textf("Added %d relations.", added), nil
}

// AddObservations appends observations to one entity.
func AddObservations(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	name, _ := req.String("entity")
	observations, _ := req.StringSlice("observations")
	err := mutate(ctx, env, func(g *Graph) error {
		for i := range g.Entities {
			if g.Entities[i].Name == name {
				g.Entities[i].Observations = append(g.Entities[i].Observations, observations...)
				return nil
			}
		}
		return fmt.Errorf("entity %q does not exist", name)
	})
	if err != nil {
		return nil, err
	}
	return sdk.Textf("Added %d observations to %s.", len(observations), name), nil
}

// ReadGraph returns the graph rendered as text.
func ReadGraph(ctx context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	var g Graph
	if _, err := env.GetState(ctx, stateKey, &g); err != nil {
		return nil, err
	}
	if len(g.Entities) == 0 {
		return sdk.Text("The knowledge graph is empty."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Entities (%d):\n", len(g.Entities))
	for _, e := range g.Entities {
		fmt.Fprintf(&b, "- %s (%s)", e.Name, e.Type)
		if len(e.Observations) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(e.Observations, "; "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nRelations (%d):\n", len(g.Relations))
	for _, r := range g.Relations {
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", r.From, r.Type, r.To)
	}
	return sdk.Text(b.String()), nil
}

// DeleteEntities removes entities and any relation touching them.
func DeleteEntities(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	names, _ := req.StringSlice("names")
	doomed := make(map[string]bool, len(names))
	for _, n := range names {
		doomed[n] = true
	}
	removed := 0
	err := mutate(ctx, env, func(g *Graph) error {
		entities := g.Entities[:0]
		for _, e := range g.Entities {
			if doomed[e.Name] {
				removed++
				continue
			}
			entities = append(entities, e)
		}
		g.Entities = entities

		relations := g.Relations[:0]
		for _, r := range g.Relations {
			if doomed[r.From] || doomed[r.To] {
				continue
			}
			relations = append(relations, r)
		}
		g.Relations = relations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sdk.Textf("Removed %d entities.", removed), nil
}

// GraphResource exposes the raw graph JSON as a resource.
func GraphResource(ctx context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ResourceResult, error) {
	var g Graph
	if _, err := env.GetState(ctx, stateKey, &g); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	return &sdk.ResourceResult{
		Contents: []sdk.ResourceContent{{
			URI:      "memory://knowledge-graph",
			MimeType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
