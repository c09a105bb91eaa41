// Package fetch implements the concurrent download pipeline: a bounded
// worker pool that retrieves segment bytes over HTTP, retries transient
// failures with exponential backoff, respects an optional rate limit, and
// reassembles results in request order for the assemble package.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
	"github.com/dash-mpd-go/dashmpd/logger"
)

// Client wraps an *http.Client with the manifest/segment Accept header and
// error-taxonomy mapping the teacher's Downloader.download inlines; split
// out here so the worker pool (pipeline.go) and retry wrapper (retry.go)
// can each be tested independently of it.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Log       logger.Logger

	// AuthUser/AuthPass set with_authentication's HTTP basic-auth
	// credentials, applied to every request this Client issues.
	AuthUser string
	AuthPass string
}

// NewClient builds a Client around http.DefaultClient when hc is nil.
func NewClient(hc *http.Client, userAgent string, log logger.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{HTTP: hc, UserAgent: userAgent, Log: log}
}

// FetchManifest retrieves the MPD document at url, sending an Accept
// header favoring application/dash+xml per spec.md §4.G.
func (c *Client) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, "application/dash+xml,application/xml;q=0.9,*/*;q=0.5", "")
}

// Fetch retrieves arbitrary bytes (a segment, an XLink fragment) with no
// particular Accept preference. It satisfies mpd.Fetcher.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, "", "")
}

// FetchRange retrieves a byte range (e.g. a sidx indexRange or a SegmentURL
// mediaRange), sending the range verbatim as the Range header value
// (already in "start-end" form per spec.md's byte-range model).
func (c *Client) FetchRange(ctx context.Context, url, byteRange string) ([]byte, error) {
	return c.get(ctx, url, "", byteRange)
}

func (c *Client) get(ctx context.Context, url, accept, byteRange string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &dmerrors.NetworkError{URL: url, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.AuthUser != "" || c.AuthPass != "" {
		req.SetBasicAuth(c.AuthUser, c.AuthPass)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if byteRange != "" {
		req.Header.Set("Range", fmt.Sprintf("bytes=%s", byteRange))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &dmerrors.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		httpErr := &dmerrors.HTTPError{
			URL:        url,
			Status:     resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		// Every 4xx except 429 (rate limiting) is a permanent failure per
		// spec.md §8's retry budget property — a fatal 404 must not be
		// retried identically to a transient 503.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(httpErr)
		}
		return nil, httpErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &dmerrors.NetworkError{URL: url, Err: err}
	}
	return data, nil
}

// parseRetryAfter parses a Retry-After header value, which RFC 7231 allows
// as either a delay in seconds or an HTTP-date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
