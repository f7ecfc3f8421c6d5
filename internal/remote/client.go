// Package remote implements the two outbound calls of an analysis: the
// performance-analysis endpoint and the generative insight endpoint. Every
// failure is returned as an *errs.AppError classified where it happens.
package remote

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/speedx-dev/speedx/internal/platform/requestid"
)

const (
	userAgent       = "SpeedX/1.0"
	maxResponseBody = 1 << 20 // 1 MB
)

// newHTTPClient returns the client shared by both remote calls. A zero timeout
// leaves the client unbounded.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func setCommonHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
}

// drain discards what is left of a body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBody))
	_ = body.Close()
}
