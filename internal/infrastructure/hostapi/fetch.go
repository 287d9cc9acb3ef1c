package hostapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/sdk"
)

// Fetch performs a guarded HTTP request. The permission check runs
// strictly before any socket is opened; a denied request leaks nothing
// about the caller's intent to the network.
func (s *Surface) Fetch(ctx context.Context, req sdk.FetchRequest) (*sdk.FetchResponse, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", req.URL, err)
	}

	if !permissions.HostAllowed(s.perms, parsed) {
		slog.WarnContext(ctx, "fetch denied",
			"plugin", s.plugin, "url", req.URL)
		return nil, &apperrors.PermissionDeniedError{
			Category: apperrors.CategoryHost,
			Target:   req.URL,
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.host.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(fetchCtx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.host.agent)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := s.redirectCheckedClient(ctx).Do(httpReq)
	if err != nil {
		var denied *apperrors.PermissionDeniedError
		if errors.As(err, &denied) {
			return nil, denied
		}
		if errors.Is(err, context.DeadlineExceeded) {
			slog.WarnContext(ctx, "fetch timed out",
				"plugin", s.plugin, "url", req.URL, "timeout", s.host.timeout)
			return nil, &apperrors.TimeoutError{Target: req.URL, Timeout: s.host.timeout}
		}
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Read one byte past the cap to detect truncation.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, s.host.maxBody+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &apperrors.TimeoutError{Target: req.URL, Timeout: s.host.timeout}
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	truncated := false
	if int64(len(respBody)) > s.host.maxBody {
		respBody = respBody[:s.host.maxBody]
		truncated = true
		slog.WarnContext(ctx, "response body truncated",
			"plugin", s.plugin, "url", req.URL, "max_bytes", s.host.maxBody)
	}

	return &sdk.FetchResponse{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Body:          respBody,
		BodyTruncated: truncated,
	}, nil
}

// redirectCheckedClient returns a shallow copy of the shared client whose
// redirect policy re-runs the host check on every hop. Without it a 302
// from an allowed host would be followed to a host the manifest never
// granted. The check runs before the next request is issued, so a denied
// hop opens no socket.
func (s *Surface) redirectCheckedClient(ctx context.Context) *http.Client {
	client := *s.host.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !permissions.HostAllowed(s.perms, req.URL) {
			slog.WarnContext(ctx, "redirect denied",
				"plugin", s.plugin, "url", req.URL.String())
			return &apperrors.PermissionDeniedError{
				Category: apperrors.CategoryHost,
				Target:   req.URL.String(),
			}
		}
		return nil
	}
	return &client
}
