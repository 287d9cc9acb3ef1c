// Package github is a thin adapter over the GitHub REST API. Requests go
// out unauthenticated unless the host provides the GITHUB_TOKEN secret.
package github

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

// New returns the github plugin.
func New() sdk.Plugin {
	return sdk.Plugin{
		ManifestTOML: manifestTOML,
		Tools: map[string]sdk.ToolFunc{
			"SearchRepositories": SearchRepositories,
			"GetRepository":      GetRepository,
			"ListIssues":         ListIssues,
		},
	}
}

func headers(env *sdk.Env) map[string]string {
	h := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token, ok := env.Secret("GITHUB_TOKEN"); ok && token != "" {
		h["Authorization"] = "Bearer " + token
	}
	return h
}

type repository struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Language    string `json:"language"`
	OpenIssues  int    `json:"open_issues_count"`
}

func formatRepo(b *strings.Builder, r repository) {
	fmt.Fprintf(b, "## %s\n", r.FullName)
	if r.Description != "" {
		fmt.Fprintf(b, "%s\n", r.Description)
	}
	fmt.Fprintf(b, "Stars: %d | Forks: %d | Open issues: %d", r.Stars, r.Forks, r.OpenIssues)
	if r.Language != "" {
		fmt.Fprintf(b, " | Language: %s", r.Language)
	}
	fmt.Fprintf(b, "\n%s\n", r.HTMLURL)
}

// SearchRepositories searches repositories ordered by stars.
func SearchRepositories(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	query, _ := req.String("query")
	limit := req.IntOr("limit", 10)

	endpoint := fmt.Sprintf("https://api.github.com/search/repositories?q=%s&per_page=%d&sort=stars",
		url.QueryEscape(query), limit)
	resp, err := env.Get(ctx, endpoint, headers(env))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github search returned status %d", resp.StatusCode)
	}

	var parsed struct {
		TotalCount int          `json:"total_count"`
		Items      []repository `json:"items"`
	}
	if err := resp.JSON(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return sdk.Textf("No repositories found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d repositories (showing %d):\n\n", parsed.TotalCount, len(parsed.Items))
	for _, r := range parsed.Items {
		formatRepo(&b, r)
		b.WriteString("\n")
	}
	return sdk.Text(b.String()), nil
}

// GetRepository fetches one repository's metadata.
func GetRepository(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	owner, _ := req.String("owner")
	repo, _ := req.String("repo")

	endpoint := fmt.Sprintf("https://api.github.com/repos/%s/%s",
		url.PathEscape(owner), url.PathEscape(repo))
	resp, err := env.Get(ctx, endpoint, headers(env))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return sdk.Textf("Repository %s/%s not found.", owner, repo), nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	var r repository
	if err := resp.JSON(&r); err != nil {
		return nil, fmt.Errorf("failed to decode repository: %w", err)
	}
	var b strings.Builder
	formatRepo(&b, r)
	return sdk.Text(b.String()), nil
}

// ListIssues lists a repository's issues.
func ListIssues(ctx context.Context, req sdk.Request, env *sdk.Env) (*sdk.ToolResult, error) {
	owner, _ := req.String("owner")
	repo, _ := req.String("repo")
	state := req.StringOr("state", "open")

	endpoint := fmt.Sprintf("https://api.github.com/repos/%s/%s/issues?state=%s&per_page=20",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(state))
	resp, err := env.Get(ctx, endpoint, headers(env))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	var issues []struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		State   string `json:"state"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	if err := resp.JSON(&issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues: %w", err)
	}
	if len(issues) == 0 {
		return sdk.Textf("No %s issues in %s/%s.", state, owner, repo), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Issues in %s/%s (%s):\n", owner, repo, state)
	for _, issue := range issues {
		fmt.Fprintf(&b, "\n#%d [%s] %s (by %s)\n%s\n",
			issue.Number, issue.State, issue.Title, issue.User.Login, issue.HTMLURL)
	}
	return sdk.Text(b.String()), nil
}
