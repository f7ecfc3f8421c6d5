package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/clientip"
	"github.com/speedx-dev/speedx/internal/platform/errs"
	"github.com/speedx-dev/speedx/internal/platform/requestid"
)

func requireKind(t *testing.T, err error, want errs.Kind) *errs.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *errs.AppError
	require.True(t, errors.As(err, &appErr), "expected *errs.AppError, got %T", err)
	assert.Equal(t, want, appErr.Kind, "kind %s", appErr.Kind)
	return appErr
}

func TestAnalysisClient_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get(requestid.Header))
		assert.Equal(t, "198.51.100.1", r.Header.Get(clientip.Header))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "example.com", body["url"])

		_, _ = w.Write([]byte(`{"loadTime": 500, "requestSize": 200000, "speedIndex": null, "cls": 0.05}`))
	}))
	defer ts.Close()

	c := NewAnalysisClient(ts.URL, time.Second)
	ctx := requestid.NewContext(context.Background(), "req-1")
	ctx = clientip.NewContext(ctx, "198.51.100.1")

	m, err := c.Analyze(ctx, "example.com")
	require.NoError(t, err)

	v, ok := m.Value(model.LoadTime)
	assert.True(t, ok)
	assert.InDelta(t, 500, v, 1e-9)
	_, ok = m.Value(model.SpeedIndex)
	assert.False(t, ok)
}

func TestAnalysisClient_EndpointWithBasePath(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := NewAnalysisClient(ts.URL+"/api/", time.Second).Analyze(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "/api/analyze", gotPath)
}

func TestAnalysisClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errs.Kind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: errs.RateLimited},
		{name: "server error", status: http.StatusInternalServerError, want: errs.AnalysisServer},
		{name: "bad gateway", status: http.StatusBadGateway, want: errs.AnalysisUnexpected},
		{name: "bad request", status: http.StatusBadRequest, want: errs.AnalysisUnexpected},
		{name: "created is not success", status: http.StatusCreated, want: errs.AnalysisUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{}`))
			}))
			defer ts.Close()

			_, err := NewAnalysisClient(ts.URL, time.Second).Analyze(context.Background(), "example.com")
			appErr := requireKind(t, err, tt.want)
			assert.Equal(t, tt.status, appErr.UpstreamStatus)
		})
	}
}

func TestAnalysisClient_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "wrong type", body: `{"loadTime": "fast"}`},
		{name: "negative value", body: `{"cls": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewAnalysisClient(ts.URL, time.Second).Analyze(context.Background(), "example.com")
			requireKind(t, err, errs.AnalysisUnexpected)
		})
	}
}

func TestAnalysisClient_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := ts.URL
	ts.Close()

	_, err := NewAnalysisClient(endpoint, time.Second).Analyze(context.Background(), "example.com")
	requireKind(t, err, errs.Network)
}

func TestAnalysisClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewAnalysisClient(ts.URL, 50*time.Millisecond).Analyze(context.Background(), "example.com")
	requireKind(t, err, errs.Network)
}

func TestAnalysisClient_ClientError(t *testing.T) {
	_, err := NewAnalysisClient("http://bad host\x7f", time.Second).Analyze(context.Background(), "example.com")
	requireKind(t, err, errs.Client)
}
