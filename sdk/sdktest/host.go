// Package sdktest provides a scripted in-memory sdk.Host for plugin
// tests: fetches answer from a response table and are recorded, state
// lives in a plain map guarded by a mutex.
package sdktest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Datron/jilebi/sdk"
)

// Response scripts the answer for one URL prefix.
type Response struct {
	StatusCode int
	Body       string
}

// Host is a fake sdk.Host.
type Host struct {
	mu        sync.Mutex
	responses map[string]Response
	requests  []sdk.FetchRequest
	state     map[string]json.RawMessage
	files     map[string]string
	config    map[string]string
}

// NewHost creates an empty fake host.
func NewHost() *Host {
	return &Host{
		responses: make(map[string]Response),
		state:     make(map[string]json.RawMessage),
		files:     make(map[string]string),
		config:    make(map[string]string),
	}
}

// SetConfig scripts a host configuration value.
func (h *Host) SetConfig(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.config[key] = value
}

// GetConfig reads from the scripted config table.
func (h *Host) GetConfig(_ context.Context, key string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.config[key]
	return v, ok, nil
}

// Respond scripts a response for every fetch whose URL starts with
// prefix.
func (h *Host) Respond(prefix string, status int, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses[prefix] = Response{StatusCode: status, Body: body}
}

// Requests returns the fetches issued so far.
func (h *Host) Requests() []sdk.FetchRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sdk.FetchRequest(nil), h.requests...)
}

// Files returns the files written so far.
func (h *Host) Files() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]string, len(h.files))
	for k, v := range h.files {
		out[k] = v
	}
	return out
}

// Fetch records the request and answers from the response table.
func (h *Host) Fetch(_ context.Context, req sdk.FetchRequest) (*sdk.FetchResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, req)
	for prefix, resp := range h.responses {
		if strings.HasPrefix(req.URL, prefix) {
			return &sdk.FetchResponse{
				StatusCode: resp.StatusCode,
				Headers:    http.Header{},
				Body:       []byte(resp.Body),
			}, nil
		}
	}
	return nil, fmt.Errorf("no scripted response for %s", req.URL)
}

// ReadTextFile reads from the in-memory file table.
func (h *Host) ReadTextFile(_ context.Context, path string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

// WriteTextFile writes to the in-memory file table.
func (h *Host) WriteTextFile(_ context.Context, path, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = content
	return nil
}

// ReadDir lists in-memory files directly under path.
func (h *Host) ReadDir(_ context.Context, path string) ([]sdk.DirEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	var entries []sdk.DirEntry
	for file := range h.files {
		if strings.HasPrefix(file, prefix) && !strings.Contains(file[len(prefix):], "/") {
			entries = append(entries, sdk.DirEntry{
				Name: file[len(prefix):],
				Size: int64(len(h.files[file])),
			})
		}
	}
	return entries, nil
}

// GetState reads from the in-memory state map.
func (h *Host) GetState(_ context.Context, key string) (json.RawMessage, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.state[key]
	return v, ok, nil
}

// SetState writes to the in-memory state map.
func (h *Host) SetState(_ context.Context, key string, value json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state[key] = value
	return nil
}

// UpdateState runs fn under the host's lock.
func (h *Host) UpdateState(_ context.Context, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, found := h.state[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	h.state[key] = next
	return nil
}

// HTML2Markdown strips nothing; tests get the input back verbatim.
func (h *Host) HTML2Markdown(html string) string {
	return html
}

var _ sdk.Host = (*Host)(nil)
