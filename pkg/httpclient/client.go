// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package httpclient provides the shared HTTP client every search
// provider uses: proxy discovery, a randomized browser user agent
// chosen once per process, a no-less-safe redirect policy, a cookie
// jar that also understands cookies embedded in HTML <meta> tags,
// per-request timeouts, and API-key redaction for log output.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request unless the caller's context
// carries an earlier deadline.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 16 << 20

// Response is the completed result of one request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the URL the final response came from (after any followed
	// redirects).
	URL *url.URL
	// Redirect is non-nil when the server answered with a redirect
	// that was not followed (e.g. an HTTPS to HTTP downgrade, or too
	// many hops). The caller decides whether to re-issue.
	Redirect *url.URL
}

// Client is the process-wide HTTP client. All providers share one
// instance so cookies and the disguise user agent are consistent.
type Client struct {
	hc      *http.Client
	jar     *HTTPEquivCookieJar
	log     *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client. The proxy is taken from the process
// environment (HTTP_PROXY et al., the platform resolver on servers);
// the literal value "DIRECT" disables proxying.
func New(opts ...Option) *Client {
	inner, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	jar := &HTTPEquivCookieJar{Jar: inner}

	c := &Client{
		jar:     jar,
		log:     slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.hc = &http.Client{
		Jar:   jar,
		Proxy: proxyFunc(),
		// Follow redirects up to the stack default, but never
		// downgrade from HTTPS to plain HTTP.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			if via[len(via)-1].URL.Scheme == "https" && req.URL.Scheme == "http" {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return c
}

// proxyFunc resolves the proxy for each request from the environment,
// treating the literal "DIRECT" as no proxy.
func proxyFunc() func(*http.Request) (*url.URL, error) {
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy"} {
		if strings.EqualFold(os.Getenv(key), "DIRECT") {
			return func(*http.Request) (*url.URL, error) { return nil, nil }
		}
	}
	return http.ProxyFromEnvironment
}

// CookieJar exposes the client's jar, including the HTML head cookie
// extension.
func (c *Client) CookieJar() *HTTPEquivCookieJar { return c.jar }

// Get issues a GET request. priorURL, when non-empty, is sent as the
// Referer header the way a browser chain would.
func (c *Client) Get(ctx context.Context, rawURL, priorURL string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build GET %s: %w", RemoveAPIKey(rawURL), err)
	}
	return c.do(ctx, req, priorURL)
}

// Post issues a POST request with the given body.
func (c *Client) Post(ctx context.Context, rawURL, contentType string, body []byte) (*Response, error) {
	req, err := http.NewRequest(http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: build POST %s: %w", RemoveAPIKey(rawURL), err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.do(ctx, req, "")
}

// GetWithHeaders issues a GET with extra request headers (e.g. the
// "Accept: text/bibliography; style=bibtex" content negotiation of the
// DOI resolvers).
func (c *Client) GetWithHeaders(ctx context.Context, rawURL, priorURL string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build GET %s: %w", RemoveAPIKey(rawURL), err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(ctx, req, priorURL)
}

// PostWithHeaders issues a POST with extra request headers.
func (c *Client) PostWithHeaders(ctx context.Context, rawURL string, body []byte, headers map[string]string) (*Response, error) {
	req, err := http.NewRequest(http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: build POST %s: %w", RemoveAPIKey(rawURL), err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(ctx, req, "")
}

func (c *Client) do(ctx context.Context, req *http.Request, priorURL string) (*Response, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req = req.WithContext(ctx)

	// Disguise headers, sent on every request.
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/*, */*;q=0.7")
	}
	req.Header.Set("Accept-Charset", "utf-8, us-ascii, ISO-8859-1, ISO-8859-15, windows-1252")
	req.Header.Set("Accept-Language", "en-US, en;q=0.9")
	req.Header.Set("User-Agent", UserAgent())
	if priorURL != "" {
		req.Header.Set("Referer", priorURL)
	}

	reqID := uuid.NewString()
	start := time.Now()
	c.log.Debug("request", "id", reqID, "method", req.Method, "url", RemoveAPIKey(req.URL.String()))

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("request failed", "id", reqID, "url", RemoveAPIKey(req.URL.String()), "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body of %s: %w", RemoveAPIKey(req.URL.String()), err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        resp.Request.URL,
	}
	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if u, err := resp.Request.URL.Parse(loc); err == nil {
			out.Redirect = u
		}
	}
	c.log.Debug("response", "id", reqID, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}
