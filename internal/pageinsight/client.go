package pageinsight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"
)

// Fetcher defines how the engine retrieves the document under test.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is a fetched document together with its timing.
type Response struct {
	Body       io.ReadCloser
	StatusCode int
	// URL is the final URL after redirects; relative resources resolve against it.
	URL *url.URL
	// TTFB is the time from issuing the request to the first response byte,
	// redirects included.
	TTFB time.Duration
}

// limitedReadCloser reads from a LimitReader but closes the original body.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// HTTPClient implements Fetcher using a real HTTP client.
type HTTPClient struct {
	client *http.Client
}

const (
	maxRedirects    = 5
	maxDocumentBody = 10 << 20 // 10 MB
	userAgent       = "SpeedXProbe/1.0"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// NewHTTPClient returns a Fetcher backed by an http.Client with the given
// timeout, a transport that blocks connections to private/reserved IP ranges,
// and redirect validation that prevents SSRF via redirect chains.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:       timeout,
			Transport:     safeTransport(10),
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// safeRedirectPolicy validates redirect targets and limits the redirect chain length.
func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch retrieves the page at the given URL, recording time to first byte.
func (c *HTTPClient) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := c.client.Do(req) //nolint:bodyclose // body is returned to caller via limitedReadCloser
	if err != nil {
		return nil, err
	}
	if firstByte.IsZero() {
		firstByte = time.Now()
	}

	return &Response{
		Body: &limitedReadCloser{
			Reader: io.LimitReader(resp.Body, maxDocumentBody),
			Closer: resp.Body,
		},
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL,
		TTFB:       firstByte.Sub(start),
	}, nil
}
