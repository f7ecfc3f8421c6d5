package pageinsight

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
)

// resourceSampler defines how the engine measures subresource cost.
type resourceSampler interface {
	Sample(ctx context.Context, links []string) Sample
}

// Engine measures network-level performance metrics for a page: it fetches the
// document, parses out its subresources, and downloads them.
type Engine struct {
	fetcher Fetcher
	sampler resourceSampler
	now     func() time.Time
}

// NewEngine returns an Engine backed by the given Fetcher and resource sampler.
func NewEngine(fetcher Fetcher, sampler resourceSampler) *Engine {
	return &Engine{
		fetcher: fetcher,
		sampler: sampler,
		now:     time.Now,
	}
}

// Analyze fetches a URL and reports loadTime, ttfb, requestSize and
// requestCount. Metrics that need a rendering browser are left absent.
func (e *Engine) Analyze(ctx context.Context, targetURL string) (*model.WebsiteMetrics, error) {
	parsed, err := normalizeTarget(targetURL)
	if err != nil {
		return nil, err
	}

	start := e.now()

	resp, err := e.fetcher.Fetch(ctx, parsed.String())
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Analysis timed out. The target URL may be slow to respond.",
				Cause:   err,
			}
		}
		return nil, &errs.AppError{
			Kind:    errs.Unreachable,
			Message: "The provided URL could not be reached. Check the address.",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        "The provided URL returned an error status.",
		}
	}

	base := parsed
	if resp.URL != nil {
		base = resp.URL
	}

	body := &countingReader{r: resp.Body}
	parseResult, err := Parse(body, base)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "Failed to parse the HTML content.",
			Cause:   err,
		}
	}

	sample := e.sampler.Sample(ctx, parseResult.Resources)
	elapsed := e.now().Sub(start)

	metrics := &model.WebsiteMetrics{}
	metrics.Set(model.LoadTime, milliseconds(elapsed))
	metrics.Set(model.TTFB, milliseconds(resp.TTFB))
	metrics.Set(model.RequestSize, float64(body.n+sample.Bytes))
	metrics.Set(model.RequestCount, float64(1+sample.Requests))

	return metrics, nil
}

// normalizeTarget accepts the scheme-less form users type ("example.com")
// by defaulting to https.
func normalizeTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs are supported.",
		}
	}
	return parsed, nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// countingReader counts the document bytes consumed by the parser.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
