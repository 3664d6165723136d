// Package upstream implements UpstreamClient (spec.md §4.1): a typed
// façade over the upstream error-tracking backend's REST API, resilient
// to DNS/TCP failures and to servers that return HTML when JSON is
// expected.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
)

// DefaultTimeout bounds a single upstream HTTP call.
const DefaultTimeout = 30 * time.Second

// Client is a per-request façade over the upstream REST API. One
// instance is constructed per HTTP request (spec.md §5) and is never
// shared across requests. Retargeting a call at a region-specific host
// goes through WithHost, which returns a copy and leaves Host unchanged.
type Client struct {
	AccessToken string
	Host        string

	httpClient *http.Client
}

// New constructs a Client for the given access token and host. host must
// be a bare hostname (e.g. "sentry.io" or "us.sentry.io"), never a URL.
func New(accessToken, host string) *Client {
	return NewWithClient(accessToken, host, &http.Client{Timeout: DefaultTimeout})
}

// NewWithClient constructs a Client using a caller-supplied http.Client,
// for operators that need a custom transport (a proxy, mTLS, or a
// non-default timeout) and for tests that point httpClient's transport
// at an httptest.NewTLSServer's trusted certificate pool.
func NewWithClient(accessToken, host string, httpClient *http.Client) *Client {
	return &Client{AccessToken: accessToken, Host: host, httpClient: httpClient}
}

// WithHost returns a shallow copy of the client retargeted at a
// different host, used after region discovery resolves a region-specific
// API host for a given organization.
func (c *Client) WithHost(host string) *Client {
	return &Client{AccessToken: c.AccessToken, Host: host, httpClient: c.httpClient}
}

// IsSaaSHost reports whether host is the SaaS host or a subdomain of it
// (spec.md §4.1.2 glossary: "SaaS host").
func IsSaaSHost(host string) bool {
	return host == "sentry.io" || strings.HasSuffix(host, ".sentry.io")
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("https://%s/api/0", c.Host)
}

// doJSON performs a request against path, decoding the response body into
// out (if non-nil) after validating content-type and status per
// spec.md §4.1.3. ctx governs cancellation/timeout for this one call.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	url := c.baseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return apierr.NewConfigurationError("failed to build upstream request", err)
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.NewConfigurationError("failed to read upstream response", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isJSONContentType(contentType) {
		return contentTypeError(contentType, resp.StatusCode, resp.Status, raw)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, resp.Status, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.NewConfigurationError(fmt.Sprintf("failed to parse upstream response: %v", err), err)
	}
	return nil
}

// BinaryContent is a raw, non-JSON upstream response body plus the
// filename/content-type the server advertised for it.
type BinaryContent struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// doBinary performs a GET and returns the raw response body plus its
// Content-Disposition filename and Content-Type, for endpoints that
// return a binary payload (attachments) rather than JSON.
func (c *Client) doBinary(ctx context.Context, method, path string) (*BinaryContent, error) {
	url := c.baseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, apierr.NewConfigurationError("failed to build upstream request", err)
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewConfigurationError("failed to read upstream response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, resp.Status, raw)
	}
	return &BinaryContent{
		Filename:    attachmentFilename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       raw,
	}, nil
}

// attachmentFilename extracts the filename parameter from a
// Content-Disposition header, if present.
func attachmentFilename(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// isJSONContentType reports whether the Content-Type header names a JSON
// media type, ignoring parameters like charset.
func isJSONContentType(contentType string) bool {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// contentTypeError implements spec.md §4.1.3 step 1: non-JSON content
// type produces a specific, descriptive error instead of a silent empty
// parse or a crash.
func contentTypeError(contentType string, status int, statusText string, body []byte) error {
	if looksLikeHTML(body) {
		return apierr.NewConfigurationError(
			fmt.Sprintf("Expected JSON response but received HTML (%d %s). This may indicate you're not authenticated, the URL is incorrect, or there's a server issue.", status, statusText),
			nil,
		)
	}
	ct := contentType
	if ct == "" {
		ct = "unknown content type"
	}
	return apierr.NewConfigurationError(
		fmt.Sprintf("Expected JSON response but received %s (%d %s)", ct, status, statusText),
		nil,
	)
}

func looksLikeHTML(body []byte) bool {
	trimmed := strings.TrimSpace(strings.ToLower(string(body)))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
}

// statusError implements the non-2xx branch of spec.md §4.1.3.
func statusError(status int, statusText string, body []byte) error {
	if looksLikeHTML(body) {
		return apierr.NewApiError(status, "Server error: Received HTML instead of JSON")
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		msg := detail.Detail
		if strings.Contains(msg, "multi project stream feature") || strings.Contains(msg, "view events from multiple projects") {
			msg = "You do not have access to query across multiple projects. Please select a project for your query."
		}
		return apierr.NewApiError(status, msg)
	}

	return apierr.NewApiError(status, fmt.Sprintf("%s\n%s", statusText, string(body)))
}

// mapTransportError implements spec.md §4.1.3's network-layer error
// taxonomy, distinguishing DNS/connection failures from generic
// transport errors.
func mapTransportError(url string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return apierr.NewConfigurationError("Hostname not found. Please check the configured host.", err)
		}
		return apierr.NewConfigurationError("DNS temporarily unavailable. Please try again shortly.", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		msg := opErr.Error()
		switch {
		case strings.Contains(msg, "connection refused"):
			return apierr.NewConfigurationError("Connection refused. The upstream service may be unavailable.", err)
		case strings.Contains(msg, "i/o timeout"):
			return apierr.NewConfigurationError("Connection timed out. Please try again.", err)
		case strings.Contains(msg, "connection reset"):
			return apierr.NewConfigurationError("Connection reset by peer. Please try again.", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.NewConfigurationError("Connection timed out. Please try again.", err)
	}

	return apierr.NewConfigurationError(fmt.Sprintf("Unable to connect to %s - %s", url, err.Error()), err)
}

// regionFanOut runs fn once per region concurrently via errgroup,
// collecting results in region order. Any error aborts the whole
// operation (spec.md §4.1 region fan-out policy).
func regionFanOut[T any](ctx context.Context, regions []Region, fn func(ctx context.Context, region Region) (T, error)) ([]T, error) {
	results := make([]T, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			result, err := fn(gctx, region)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
