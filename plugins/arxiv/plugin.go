// Package arxiv is a thin adapter over the arXiv export API. Downloaded
// papers are converted to markdown and saved under the directory granted
// by the manifest.
package arxiv

import (
	"context"
	_ "embed"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Datron/jilebi/sdk"
)

//go:embed manifest.toml
var manifestTOML []byte

// New returns the arxiv plugin. The returned plugin owns one conversion
// tracker; its records last for the process lifetime only.
func New() sdk.Plugin {
	p := &plugin{tracker: newTracker()}
	return sdk.Plugin{
		ManifestTOML: manifestTOML,
		Tools: map[string]sdk.ToolFunc{
			"Search":           Search,
			"DownloadPaper":    p.DownloadPaper,
			"ConversionStatus": p.ConversionStatus,
			"ListPapers":       ListPapers,
		},
	}
}

type plugin struct {
	tracker *tracker
}

func paperDir(env *sdk.Env) string {
	if v, ok := env.Var("ARXIV_PAPER_DIR"); ok && v != "" {
		return v
	}
	return "/data/papers"
}

// Atom feed subset returned by the export API.
type feed struct {
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
}

type author struct {
	Name string `xml:"name"`
}

// Search queries the export API and formats the Atom feed entries.
func Search(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	query, _ := req.String("query")
	maxResults := req.IntOr("max_results", 10)

	endpoint := fmt.Sprintf("https://export.arxiv.org/api/query?search_query=all:%s&max_results=%d",
		url.QueryEscape(query), maxResults)
	resp, err := env.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("arxiv export API returned status %d", resp.StatusCode)
	}

	var parsed feed
	if err := xml.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	if len(parsed.Entries) == 0 {
		return sdk.Textf("No papers found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d papers for %q:\n", len(parsed.Entries), query)
	for _, e := range parsed.Entries {
		names := make([]string, len(e.Authors))
		for i, a := range e.Authors {
			names[i] = a.Name
		}
		fmt.Fprintf(&b, "\n## %s\nID: %s\nAuthors: %s\nPublished: %s\n\n%s\n",
			strings.TrimSpace(e.Title), paperIDFromURL(e.ID),
			strings.Join(names, ", "), e.Published,
			strings.TrimSpace(e.Summary))
	}
	return sdk.Text(b.String()), nil
}

// DownloadPaper fetches a paper's abstract page, converts it to markdown
// and writes it into the granted paper directory.
func (p *plugin) DownloadPaper(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	paperID, _ := req.String("paper_id")

	p.tracker.set(paperID, statusDownloading, "")
	resp, err := env.Get(ctx, "https://arxiv.org/abs/"+url.PathEscape(paperID), nil)
	if err != nil {
		p.tracker.set(paperID, statusError, err.Error())
		return nil, err
	}
	if resp.StatusCode != 200 {
		err := fmt.Errorf("arxiv returned status %d for paper %s", resp.StatusCode, paperID)
		p.tracker.set(paperID, statusError, err.Error())
		return nil, err
	}

	p.tracker.set(paperID, statusConverting, "")
	markdown := env.HTML2Markdown(resp.Text())

	target := filepath.Join(paperDir(env), sanitizeID(paperID)+".md")
	if err := env.WriteTextFile(ctx, target, markdown); err != nil {
		p.tracker.set(paperID, statusError, err.Error())
		return nil, err
	}

	p.tracker.set(paperID, statusSuccess, "")
	return sdk.Textf("Saved paper %s to %s (%d characters).", paperID, target, len(markdown)), nil
}

// ConversionStatus reports the tracker record for one paper.
func (p *plugin) ConversionStatus(_ context.Context, req sdk.Request, _ *sdk.Env) (*sdk.ToolResult, error) {
	paperID, _ := req.String("paper_id")
	rec, ok := p.tracker.get(paperID)
	if !ok {
		return sdk.Textf("No conversion record for %s in this process.", paperID), nil
	}
	if rec.Status == statusError {
		return sdk.Textf("Paper %s: %s (%s)", paperID, rec.Status, rec.Detail), nil
	}
	return sdk.Textf("Paper %s: %s", paperID, rec.Status), nil
}

// ListPapers lists the markdown files saved so far.
func ListPapers(ctx context.Context, _ sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	entries, err := env.ReadDir(ctx, paperDir(env))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir && strings.HasSuffix(e.Name, ".md") {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return sdk.Text("No papers saved yet."), nil
	}
	return sdk.Textf("Saved papers:\n- %s", strings.Join(names, "\n- ")), nil
}

// paperIDFromURL extracts "2403.01234v1" from an Atom entry ID like
// "http://arxiv.org/abs/2403.01234v1".
func paperIDFromURL(raw string) string {
	if i := strings.LastIndex(raw, "/abs/"); i >= 0 {
		return raw[i+len("/abs/"):]
	}
	return raw
}

// sanitizeID makes a paper ID safe to use as a file name.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, id)
}
