package hostapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/infrastructure/state"
	"github.com/Datron/jilebi/sdk"
)

// countingTransport counts round trips so denial tests can prove no
// socket was touched.
type countingTransport struct {
	calls int64
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.calls, 1)
	return t.next.RoundTrip(req)
}

func Test_Surface_Fetch_DeniedBeforeSocket(t *testing.T) {
	transport := &countingTransport{next: http.DefaultTransport}
	host := New(state.NewMemoryStore(), Options{
		HTTPClient: &http.Client{Transport: transport},
	})

	surface := host.Bind("github", permissions.Set{
		Hosts: []string{"https://api.github.com"},
	})

	_, err := surface.Fetch(context.Background(), sdk.FetchRequest{
		URL: "https://evil.example.com/exfiltrate",
	})

	var denied *apperrors.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, apperrors.CategoryHost, denied.Category)
	assert.Equal(t, "https://evil.example.com/exfiltrate", denied.Target)
	assert.Equal(t, int64(0), atomic.LoadInt64(&transport.calls))
}

func Test_Surface_Fetch_EmptyGrantDeniesEverything(t *testing.T) {
	transport := &countingTransport{next: http.DefaultTransport}
	host := New(state.NewMemoryStore(), Options{
		HTTPClient: &http.Client{Transport: transport},
	})
	surface := host.Bind("demo", permissions.Set{})

	_, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: "https://example.com/"})

	var denied *apperrors.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, int64(0), atomic.LoadInt64(&transport.calls))
}

func Test_Surface_Fetch_Allowed(t *testing.T) {
	var gotAgent, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Test")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	host := New(state.NewMemoryStore(), Options{})
	surface := host.Bind("demo", permissions.Set{
		Hosts: []string{"http://127.0.0.1"},
	})

	resp, err := surface.Fetch(context.Background(), sdk.FetchRequest{
		URL:     server.URL + "/data",
		Headers: map[string]string{"X-Test": "yes"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.BodyTruncated)
	assert.Equal(t, "yes", gotHeader)
	assert.Contains(t, gotAgent, "Jilebi/")

	var parsed struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.JSON(&parsed))
	assert.True(t, parsed.OK)
}

func Test_Surface_Fetch_RedirectToDisallowedHostDenied(t *testing.T) {
	var hidden int64
	inner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hidden, 1)
		_, _ = w.Write([]byte("secret"))
	}))
	defer inner.Close()

	outer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, inner.URL+"/secret", http.StatusFound)
	}))
	defer outer.Close()

	host := New(state.NewMemoryStore(), Options{})
	// Grant carries the port, so only the redirecting server is allowed.
	surface := host.Bind("demo", permissions.Set{Hosts: []string{outer.URL}})

	_, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: outer.URL + "/start"})

	var denied *apperrors.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, apperrors.CategoryHost, denied.Category)
	assert.Equal(t, inner.URL+"/secret", denied.Target)
	assert.Equal(t, int64(0), atomic.LoadInt64(&hidden))
}

func Test_Surface_Fetch_RedirectWithinGrantFollowed(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved here"))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/moved", http.StatusFound)
	}))
	defer origin.Close()

	host := New(state.NewMemoryStore(), Options{})
	surface := host.Bind("demo", permissions.Set{Hosts: []string{"http://127.0.0.1"}})

	resp, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: origin.URL})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "moved here", resp.Text())
}

func Test_Surface_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	host := New(state.NewMemoryStore(), Options{FetchTimeout: 20 * time.Millisecond})
	surface := host.Bind("demo", permissions.Set{Hosts: []string{"http://127.0.0.1"}})

	_, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: server.URL})

	var timeout *apperrors.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, server.URL, timeout.Target)
}

func Test_Surface_Fetch_TruncatesLargeBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	host := New(state.NewMemoryStore(), Options{MaxResponseBytes: 64})
	surface := host.Bind("demo", permissions.Set{Hosts: []string{"http://127.0.0.1"}})

	resp, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: server.URL})
	require.NoError(t, err)

	assert.True(t, resp.BodyTruncated)
	assert.Len(t, resp.Body, 64)
}

func Test_Surface_Fetch_InvalidURL(t *testing.T) {
	host := New(state.NewMemoryStore(), Options{})
	surface := host.Bind("demo", permissions.Set{Hosts: []string{"https://*"}})

	_, err := surface.Fetch(context.Background(), sdk.FetchRequest{URL: "://bad"})
	require.Error(t, err)

	var denied *apperrors.PermissionDeniedError
	assert.False(t, errors.As(err, &denied))
}
