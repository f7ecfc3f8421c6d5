package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
	"github.com/speedx-dev/speedx/internal/platform/middleware"
)

// mockProvider implements MetricsProvider for testing.
type mockProvider struct {
	result *model.WebsiteMetrics
	err    error
	calls  int
}

func (m *mockProvider) Analyze(_ context.Context, _ string) (*model.WebsiteMetrics, error) {
	m.calls++
	return m.result, m.err
}

func newTestMux(provider MetricsProvider, limiter *middleware.RateLimiter) *http.ServeMux {
	logger := slog.Default()
	svc := NewService(provider, logger)
	transport := NewTransport(svc, logger, limiter)
	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	return mux
}

func postAnalyze(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze_Success(t *testing.T) {
	result := &model.WebsiteMetrics{}
	result.Set(model.LoadTime, 358.4321)
	result.Set(model.RequestCount, 12)
	mux := newTestMux(&mockProvider{result: result}, nil)

	rec := postAnalyze(mux, `{"url": "https://example.com"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got model.WebsiteMetrics
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if v, ok := got.Value(model.LoadTime); !ok || v != 358.4321 {
		t.Errorf("loadTime = %v (present %v), want 358.4321", v, ok)
	}
	if _, ok := got.Value(model.LCP); ok {
		t.Error("lcp should be absent")
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty url", body: `{"url": ""}`},
		{name: "missing body", body: ``},
		{name: "malformed json", body: `{invalid json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{}
			rec := postAnalyze(newTestMux(provider, nil), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if provider.calls != 0 {
				t.Errorf("provider called %d times, want 0", provider.calls)
			}
		})
	}
}

func TestHandleAnalyze_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid input",
			err:        &errs.AppError{Kind: errs.InvalidInput, Message: "bad url"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unreachable",
			err:        &errs.AppError{Kind: errs.Unreachable, Message: "cannot reach", UpstreamStatus: 503},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "timeout",
			err:        &errs.AppError{Kind: errs.Timeout, Message: "slow", Cause: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "parsing failed",
			err:        &errs.AppError{Kind: errs.ParsingFailed, Message: "bad html"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "untyped error",
			err:        context.Canceled,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAnalyze(newTestMux(&mockProvider{err: tt.err}, nil), `{"url": "https://example.com"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.StatusCode != tt.wantStatus || body.Message == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestHandleAnalyze_RateLimited(t *testing.T) {
	result := &model.WebsiteMetrics{}
	provider := &mockProvider{result: result}
	mux := newTestMux(provider, middleware.NewRateLimiter(1, 1))

	if rec := postAnalyze(mux, `{"url": "https://example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := postAnalyze(mux, `{"url": "https://example.com"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestHandleAnalyze_WrongMethod(t *testing.T) {
	mux := newTestMux(&mockProvider{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	// ServeMux returns 405 for method mismatch.
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
