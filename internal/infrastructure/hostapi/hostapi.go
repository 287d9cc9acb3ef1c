// Package hostapi implements the capability-checked host surface: the
// only way plugin code performs network I/O, file I/O or state access.
// Every guarded call is matched against the invoking tool's permission
// set before the real primitive runs, and fails closed otherwise.
package hostapi

import (
	"net/http"
	"time"

	"github.com/Datron/jilebi/internal/application/ports"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/version"
	"github.com/Datron/jilebi/sdk"
)

const (
	// DefaultFetchTimeout bounds every guarded fetch so a hung upstream
	// cannot block a worker indefinitely.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxResponseBytes caps fetched response bodies.
	DefaultMaxResponseBytes = 10 * 1024 * 1024
)

// Options configure the host surface.
type Options struct {
	FetchTimeout     time.Duration
	MaxResponseBytes int64
	// HTTPClient overrides the transport, used by tests to count calls.
	HTTPClient *http.Client
	// HTML2Markdown replaces the built-in converter. The converter is a
	// pure text transform and is not permission-gated.
	HTML2Markdown func(string) string
	// ConfigValues holds the host configuration keys plugins may read
	// when their manifest declares them under config_keys.
	ConfigValues map[string]string
}

// Host owns the long-lived pieces of the surface: the HTTP client, the
// state store and the limits. It is safe for concurrent use; per-call
// permission binding happens in Bind.
type Host struct {
	client  *http.Client
	states  ports.StateStore
	timeout time.Duration
	maxBody int64
	html2md func(string) string
	config  map[string]string
	agent   string
}

// New creates a host surface over the given state store.
func New(states ports.StateStore, opts Options) *Host {
	h := &Host{
		client:  opts.HTTPClient,
		states:  states,
		timeout: opts.FetchTimeout,
		maxBody: opts.MaxResponseBytes,
		html2md: opts.HTML2Markdown,
		config:  opts.ConfigValues,
		agent:   version.Get().UserAgent(),
	}
	if h.client == nil {
		h.client = &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	if h.timeout <= 0 {
		h.timeout = DefaultFetchTimeout
	}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxResponseBytes
	}
	if h.html2md == nil {
		h.html2md = htmlToMarkdown
	}
	return h
}

// Bind returns the surface a single invocation sees: the shared host
// plus the invoking plugin's name and the tool's permission set. The
// returned value implements sdk.Host and is discarded after the call.
func (h *Host) Bind(plugin string, perms permissions.Set) *Surface {
	return &Surface{host: h, plugin: plugin, perms: perms}
}

var _ sdk.Host = (*Surface)(nil)

// Surface is the per-invocation view of the host, bound to one plugin
// and one permission set.
type Surface struct {
	host   *Host
	plugin string
	perms  permissions.Set
}
