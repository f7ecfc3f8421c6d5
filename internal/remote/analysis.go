package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/clientip"
	"github.com/speedx-dev/speedx/internal/platform/errs"
)

// AnalysisClient calls POST {endpoint}/analyze. The client IP carried by the
// request context is forwarded in X-Forwarded-For so the endpoint can rate
// limit per user.
type AnalysisClient struct {
	endpoint string
	client   *http.Client
}

// NewAnalysisClient returns a client for the analysis endpoint rooted at endpoint.
func NewAnalysisClient(endpoint string, timeout time.Duration) *AnalysisClient {
	return &AnalysisClient{endpoint: endpoint, client: newHTTPClient(timeout)}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// Analyze requests metrics for targetURL. Only HTTP 200 with a well-formed
// WebsiteMetrics body is a success.
func (c *AnalysisClient) Analyze(ctx context.Context, targetURL string) (*model.WebsiteMetrics, error) {
	req, err := c.newRequest(ctx, targetURL)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.Client, Message: errs.Client.Description(), Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.Network, Message: errs.Network.Description(), Cause: err}
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, statusError(errs.RateLimited, resp.StatusCode)
	case http.StatusInternalServerError:
		return nil, statusError(errs.AnalysisServer, resp.StatusCode)
	default:
		return nil, statusError(errs.AnalysisUnexpected, resp.StatusCode)
	}

	var metrics model.WebsiteMetrics
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&metrics); err != nil {
		return nil, &errs.AppError{
			Kind:           errs.AnalysisUnexpected,
			UpstreamStatus: resp.StatusCode,
			Message:        "The analysis service returned an unreadable body.",
			Cause:          err,
		}
	}
	if err := metrics.Validate(); err != nil {
		return nil, &errs.AppError{
			Kind:           errs.AnalysisUnexpected,
			UpstreamStatus: resp.StatusCode,
			Message:        "The analysis service returned invalid metrics.",
			Cause:          err,
		}
	}

	return &metrics, nil
}

func (c *AnalysisClient) newRequest(ctx context.Context, targetURL string) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.endpoint, "analyze")
	if err != nil {
		return nil, fmt.Errorf("build analysis URL: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{URL: targetURL})
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setCommonHeaders(ctx, req)
	if ip := clientip.FromContext(ctx); ip != "" {
		req.Header.Set(clientip.Header, ip)
	}
	return req, nil
}

func statusError(kind errs.Kind, status int) *errs.AppError {
	return &errs.AppError{
		Kind:           kind,
		UpstreamStatus: status,
		Message:        fmt.Sprintf("%s (status %d)", kind.Description(), status),
	}
}
