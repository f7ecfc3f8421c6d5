package session

import (
	"context"

	"github.com/speedx-dev/speedx/internal/orchestrator"
	"github.com/speedx-dev/speedx/internal/store"
)

// historyRecorder appends a session's settled runs to the history store.
type historyRecorder struct {
	sessionID string
	history   *store.History
}

func (h *historyRecorder) Record(ctx context.Context, s orchestrator.Snapshot) error {
	e := &store.Entry{
		SessionID: h.sessionID,
		URL:       s.URL,
		Status:    s.Status.String(),
		CreatedAt: s.UpdatedAt,
	}
	if s.Err != nil {
		e.ErrorKind = s.Err.Kind.String()
	}
	if s.Measured {
		e.Metrics = s.Metrics
		e.Insights = s.Insights
	}

	_, err := h.history.Save(ctx, e)
	return err
}
