package sdk

import (
	"context"
	"encoding/json"
	"net/http"
)

// FetchRequest describes one outbound HTTP call issued by a plugin.
type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// FetchResponse is the host's answer to a FetchRequest. Body is capped by
// the host; BodyTruncated is set when the cap was hit.
type FetchResponse struct {
	StatusCode    int
	Headers       http.Header
	Body          []byte
	BodyTruncated bool
}

// Text returns the response body as a string.
func (r *FetchResponse) Text() string {
	return string(r.Body)
}

// JSON unmarshals the response body into v.
func (r *FetchResponse) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// DirEntry describes one entry of a guarded directory listing.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Host is the capability-checked surface plugin code performs I/O through.
// Every method except HTML2Markdown consults the invoking tool's
// permission set before touching the real primitive and fails closed with
// a permission-denied error. State methods are scoped to the owning
// plugin's namespace and need no manifest grant.
type Host interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)

	ReadTextFile(ctx context.Context, path string) (string, error)
	WriteTextFile(ctx context.Context, path, content string) error
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)

	// GetConfig reads a host configuration value. The key must be
	// declared in the tool's config_keys grant.
	GetConfig(ctx context.Context, key string) (string, bool, error)

	GetState(ctx context.Context, key string) (json.RawMessage, bool, error)
	SetState(ctx context.Context, key string, value json.RawMessage) error
	// UpdateState runs fn under the plugin namespace lock so concurrent
	// read-modify-write cycles cannot lose updates.
	UpdateState(ctx context.Context, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error

	// HTML2Markdown is a pure text transform with no capability
	// implications.
	HTML2Markdown(html string) string
}
