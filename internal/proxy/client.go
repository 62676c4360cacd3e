package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError carries the HTTP status the deletion proxy answered with.
// 5xx responses are transient (the proxy or its backend is unhealthy);
// 4xx responses are permanent and retrying will not help.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("deletion proxy returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("deletion proxy returned %d", e.StatusCode)
}

// IsRetryable classifies a proxy call failure. Network errors, timeouts and
// server-side status codes are worth retrying with backoff; anything else is
// treated as permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Client talks to the external deletion-proxy service that owns cross-store
// account data outside this system.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a proxy endpoint is configured at all. Deployments
// without the proxy simply skip the remote purge step.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// DeleteUser asks the proxy to purge everything it holds for the username.
// A 404 means the proxy never knew the user, which is success for our
// purposes.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	if !c.Enabled() {
		return nil
	}

	endpoint := c.baseURL + "/api/v1/users/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build proxy request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call deletion proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusNoContent ||
		resp.StatusCode == http.StatusNotFound {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
