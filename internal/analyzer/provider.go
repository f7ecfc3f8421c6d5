package analyzer

import (
	"context"

	"github.com/speedx-dev/speedx/internal/model"
)

// MetricsProvider defines the contract for any engine that measures a page.
type MetricsProvider interface {
	Analyze(ctx context.Context, targetURL string) (*model.WebsiteMetrics, error)
}
