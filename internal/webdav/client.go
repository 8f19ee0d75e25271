package webdav

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Depth is the value of the PROPFIND Depth header.
type Depth string

// Supported query depths. The crawler never needs "infinity", and many
// servers refuse it anyway.
const (
	// Depth0 queries the target resource only.
	Depth0 Depth = "0"

	// Depth1 queries the target resource plus its immediate children.
	Depth1 Depth = "1"
)

// propfindBody is the fixed request body sent with every PROPFIND.
// It asks for exactly the four properties the tree model carries.
const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:" xmlns:nc="http://nextcloud.org/ns">
  <d:prop>
    <d:resourcetype/>
    <d:getcontentlength/>
    <d:getlastmodified/>
    <d:getcontenttype/>
  </d:prop>
</d:propfind>`

// redirectStatuses are the response codes treated as redirects.
var redirectStatuses = map[int]bool{
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// Client issues PROPFIND requests against a public share.
//
// Design decision: We take an injected *http.Client rather than creating
// one internally because:
//  1. Connection pooling can be shared with other components
//  2. Tests can supply an httptest server's client
//  3. Proxy and TLS configuration stay the caller's concern
type Client struct {
	// httpClient performs the requests. Its redirect policy is
	// overridden: redirects are handled manually so the hop limit
	// stays independent of the retry budget.
	httpClient *http.Client

	// token is the share token, used as the basic-auth username.
	token string

	// password is the share password, or empty. Basic-auth password.
	password string

	// timeout bounds every individual attempt.
	timeout time.Duration

	// maxRetries is the number of attempts per logical request.
	maxRetries int

	// backoff is the linear backoff unit between attempts.
	backoff time.Duration

	// redirectLimit caps redirect hops per logical request.
	redirectLimit int

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// logger receives one debug event per attempt and per redirect.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets the number of attempts per logical request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoff sets the backoff unit. The sleep before retry n+1 is
// backoff*n, linearly increasing rather than exponential.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithRedirectLimit sets the redirect hop cap per logical request.
func WithRedirectLimit(n int) Option {
	return func(c *Client) {
		c.redirectLimit = n
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithLogger sets the logger used for attempt and redirect events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given share credentials.
// The token is sent as the basic-auth username and the password (empty
// for unprotected shares) as the basic-auth password on every request.
func New(httpClient *http.Client, token, password string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// Shallow copy so the caller's client keeps its own redirect policy.
	hc := *httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	c := &Client{
		httpClient:    &hc,
		token:         token,
		password:      password,
		timeout:       30 * time.Second,
		maxRetries:    3,
		backoff:       800 * time.Millisecond,
		redirectLimit: 5,
		maxBodySize:   10 * 1024 * 1024, // 10MB
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Probe issues a single Depth:0 PROPFIND against the target and reports
// whether the endpoint looks usable. A probe succeeds on 207 or on a
// redirect status (301/302); any other status or a transport failure is
// a probe failure. Probes are single-shot: endpoint resolution tries the
// next candidate instead of retrying.
func (c *Client) Probe(ctx context.Context, target string) bool {
	c.logger.Debug("probing endpoint", "url", target)

	resp, err := c.do(ctx, target, Depth0)
	if err != nil {
		c.logger.Debug("probe failed", "url", target, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // drain for connection reuse

	c.logger.Debug("probe response", "url", target, "status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusMultiStatus, http.StatusMovedPermanently, http.StatusFound:
		return true
	default:
		return false
	}
}

// Propfind issues a PROPFIND at the given depth and returns the raw
// multi-status body.
//
// Failed attempts (transport errors and non-redirect, non-207 statuses)
// are retried up to the configured budget, sleeping backoff*attempt in
// between. Redirects update the target URL without consuming a retry,
// bounded by the redirect hop limit; exceeding the limit counts as a
// failed attempt. After the budget is exhausted the last error is
// returned and the caller treats that as fatal to the whole crawl.
func (c *Client) Propfind(ctx context.Context, target string, depth Depth) ([]byte, error) {
	var lastErr error
	hops := 0
	attempt := 1

	for {
		c.logger.Debug("propfind", "url", target, "depth", string(depth), "attempt", attempt)

		body, redirect, err := c.exchange(ctx, target, depth)
		switch {
		case err == nil && redirect == "":
			return body, nil

		case redirect != "":
			hops++
			if hops <= c.redirectLimit {
				c.logger.Debug("following redirect", "from", target, "to", redirect, "hops", hops)
				target = redirect
				continue
			}
			lastErr = fmt.Errorf("%w after %d hops: %s", ErrTooManyRedirects, hops-1, target)

		default:
			lastErr = err
		}

		if attempt >= c.maxRetries {
			c.logger.Debug("propfind attempts exhausted", "url", target, "attempts", attempt, "error", lastErr)
			return nil, lastErr
		}

		// Linear backoff: backoff*1 after the first failure,
		// backoff*2 after the second, and so on.
		delay := time.Duration(attempt) * c.backoff
		c.logger.Debug("retrying after backoff", "url", target, "attempt", attempt, "delay", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}

// exchange performs one HTTP exchange. It returns the multi-status body
// on 207, the resolved redirect target on a redirect status, and an
// error otherwise.
func (c *Client) exchange(ctx context.Context, target string, depth Depth) (body []byte, redirect string, err error) {
	resp, err := c.do(ctx, target, depth)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMultiStatus {
		data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read response body: %w", err)
		}
		return data, "", nil
	}

	if redirectStatuses[resp.StatusCode] {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // drain for connection reuse
		return nil, c.resolveLocation(target, resp.Header.Get("Location")), nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // drain for connection reuse
	return nil, "", &StatusError{StatusCode: resp.StatusCode, URL: target}
}

// do sends a single PROPFIND request bounded by the per-attempt timeout.
func (c *Client) do(ctx context.Context, target string, depth Depth) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.send(ctx, target, depth)
	if err != nil {
		cancel()
		return nil, err
	}
	// Tie the timeout to the body: the caller reads it after we return.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// send builds and performs the request itself.
func (c *Client) send(ctx context.Context, target string, depth Depth) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", target, strings.NewReader(propfindBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.token, c.password)
	req.Header.Set("Depth", string(depth))
	req.Header.Set("Content-Type", `application/xml; charset="utf-8"`)

	return c.httpClient.Do(req)
}

// resolveLocation resolves a Location header against the request URL.
// A missing Location falls back to the request URL itself; the hop limit
// keeps a misbehaving server from looping us forever.
func (c *Client) resolveLocation(target, location string) string {
	if location == "" {
		return target
	}
	base, err := url.Parse(target)
	if err != nil {
		return location
	}
	loc, err := url.Parse(location)
	if err != nil {
		return target
	}
	return base.ResolveReference(loc).String()
}

// cancelBody releases the per-attempt timeout when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

// Close closes the body and cancels the attempt context.
func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
