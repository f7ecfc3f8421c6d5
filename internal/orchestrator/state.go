package orchestrator

import (
	"fmt"
	"slices"
	"time"

	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
)

// Status is the phase of the analysis state machine.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a copy of the orchestrator's state at one instant.
//
// While Loading, Metrics and Insights still hold the previous run's data.
// In Error, Err is set and Metrics holds whatever is still valid: the new
// metrics when only the insight call failed, the previous ones otherwise.
type Snapshot struct {
	Status Status
	// URL is the most recently accepted submission.
	URL string
	// MetricsURL is the submission Metrics were measured for.
	MetricsURL string
	Metrics    *model.WebsiteMetrics
	Insights   []string
	// Measured reports whether Metrics came from the run that just settled.
	Measured  bool
	Err       *errs.AppError
	UpdatedAt time.Time
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Metrics = s.Metrics.Clone()
	out.Insights = slices.Clone(s.Insights)
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}
