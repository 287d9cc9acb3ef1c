// Package wikipedia is a thin adapter over the MediaWiki search API and
// the Wikimedia REST summary endpoint.
package wikipedia

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/Datron/jilebi/sdk"
)

//go:embed manifest.toml
var manifestTOML []byte

// New returns the wikipedia plugin.
func New() sdk.Plugin {
	return sdk.Plugin{
		ManifestTOML: manifestTOML,
		Tools: map[string]sdk.ToolFunc{
			"Search":  Search,
			"Summary": Summary,
		},
	}
}

func lang(env *sdk.Env) string {
	if v, ok := env.Var("WIKIPEDIA_LANG"); ok && v != "" {
		return v
	}
	return "en"
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

// Search runs a full-text article search.
func Search(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	query, _ := req.String("query")
	limit := req.IntOr("limit", 10)

	endpoint := fmt.Sprintf("https://%s.wikipedia.org/w/api.php?action=query&list=search&srsearch=%s&srlimit=%d&format=json",
		lang(env), url.QueryEscape(query), limit)

	resp, err := env.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("wikipedia search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := resp.JSON(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(parsed.Query.Search) == 0 {
		return sdk.Textf("No articles found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d articles for %q:\n", len(parsed.Query.Search), query)
	for _, hit := range parsed.Query.Search {
		snippet := env.HTML2Markdown(hit.Snippet)
		fmt.Fprintf(&b, "\n## %s\n%s\n", hit.Title, snippet)
	}
	return sdk.Text(b.String()), nil
}

type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches an article's lead section.
func Summary(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	title, _ := req.String("title")

	endpoint := fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/%s",
		lang(env), url.PathEscape(title))

	resp, err := env.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return sdk.Textf("No article titled %q.", title), nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("wikipedia summary returned status %d", resp.StatusCode)
	}

	var parsed summaryResponse
	if err := resp.JSON(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode summary response: %w", err)
	}

	text := fmt.Sprintf("# %s\n\n%s", parsed.Title, parsed.Extract)
	if page := parsed.Content.Desktop.Page; page != "" {
		text += "\n\n" + page
	}
	return sdk.Text(text), nil
}
