package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
	"github.com/speedx-dev/speedx/internal/store"
)

func TestHistoryRecorder_MetricsFromSettledRun(t *testing.T) {
	tests := []struct {
		name        string
		analysis    *stubAnalysis
		insight     *stubInsight
		wantKind    string
		wantMetrics bool
	}{
		{
			name:        "insight call without credentials",
			analysis:    &stubAnalysis{metrics: sampleMetrics()},
			insight:     &stubInsight{err: errs.New(errs.Client, nil)},
			wantKind:    "client",
			wantMetrics: true,
		},
		{
			name:        "insight service failure",
			analysis:    &stubAnalysis{metrics: sampleMetrics()},
			insight:     &stubInsight{err: errs.New(errs.InsightService, nil)},
			wantKind:    "insight_service",
			wantMetrics: true,
		},
		{
			name:     "analysis failure",
			analysis: &stubAnalysis{err: errs.New(errs.RateLimited, nil)},
			insight:  &stubInsight{lines: []string{"unused"}},
			wantKind: "rate_limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := store.Open(t.TempDir())
			require.NoError(t, err)
			defer func() { _ = history.Close() }()

			r := NewRegistry(5, NewFactory(tt.analysis, tt.insight, history, discardLogger()))
			s, err := r.Create()
			require.NoError(t, err)

			done, err := s.Orchestrator.Submit(context.Background(), "https://example.com")
			require.NoError(t, err)
			<-done

			entries, err := history.Recent(context.Background(), 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "error", entries[0].Status)
			assert.Equal(t, tt.wantKind, entries[0].ErrorKind)
			if !tt.wantMetrics {
				assert.Nil(t, entries[0].Metrics)
				return
			}
			require.NotNil(t, entries[0].Metrics)
			v, ok := entries[0].Metrics.Value(model.LoadTime)
			assert.True(t, ok)
			assert.InDelta(t, 358.4321, v, 1e-9)
		})
	}
}

func TestHistoryRecorder_SkipsRetainedMetrics(t *testing.T) {
	history, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	analysis := &stubAnalysis{metrics: sampleMetrics()}
	r := NewRegistry(5, NewFactory(analysis, &stubInsight{lines: []string{"ok"}}, history, discardLogger()))
	s, err := r.Create()
	require.NoError(t, err)

	done, err := s.Orchestrator.Submit(context.Background(), "example.com")
	require.NoError(t, err)
	<-done

	analysis.err = errs.New(errs.AnalysisServer, nil)
	done, err = s.Orchestrator.Submit(context.Background(), "example.org")
	require.NoError(t, err)
	<-done

	require.NotNil(t, s.Orchestrator.Snapshot().Metrics, "state keeps the previous metrics")

	entries, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "example.org", entries[0].URL)
	assert.Nil(t, entries[0].Metrics, "history does not attribute them to the failed run")
	assert.NotNil(t, entries[1].Metrics)
}
