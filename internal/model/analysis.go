package model

import (
	"errors"
	"fmt"
	"math"
)

var errInvalidMetric = errors.New("metric must be a finite non-negative number")

// MetricKey identifies one of the ten performance signals.
type MetricKey string

// Metric keys match the camelCase JSON field names of WebsiteMetrics.
const (
	LoadTime     MetricKey = "loadTime"
	RequestSize  MetricKey = "requestSize"
	RequestCount MetricKey = "requestCount"
	SpeedIndex   MetricKey = "speedIndex"
	TTFB         MetricKey = "ttfb"
	FCP          MetricKey = "fcp"
	LCP          MetricKey = "lcp"
	FID          MetricKey = "fid"
	TTI          MetricKey = "tti"
	CLS          MetricKey = "cls"
)

// MetricKeys lists every metric in display order.
func MetricKeys() []MetricKey {
	return []MetricKey{LoadTime, RequestSize, RequestCount, SpeedIndex, TTFB, FCP, LCP, FID, TTI, CLS}
}

// Label returns the human-readable name of the metric.
func (k MetricKey) Label() string {
	switch k {
	case LoadTime:
		return "Page Load Time"
	case RequestSize:
		return "Total Request Size"
	case RequestCount:
		return "Number of Requests"
	case SpeedIndex:
		return "Speed Index"
	case TTFB:
		return "Time to First Byte (TTFB)"
	case FCP:
		return "First Contentful Paint (FCP)"
	case LCP:
		return "Largest Contentful Paint (LCP)"
	case FID:
		return "First Input Delay (FID)"
	case TTI:
		return "Time to Interactive (TTI)"
	case CLS:
		return "Cumulative Layout Shift (CLS)"
	}
	return string(k)
}

// WebsiteMetrics holds the performance signals collected for one page.
// A nil field means the value was not collected.
type WebsiteMetrics struct {
	LoadTime     *float64 `json:"loadTime"`
	RequestSize  *float64 `json:"requestSize"`
	RequestCount *float64 `json:"requestCount"`
	SpeedIndex   *float64 `json:"speedIndex"`
	TTFB         *float64 `json:"ttfb"`
	FCP          *float64 `json:"fcp"`
	LCP          *float64 `json:"lcp"`
	FID          *float64 `json:"fid"`
	TTI          *float64 `json:"tti"`
	CLS          *float64 `json:"cls"`
}

// Value returns the metric stored under key and whether it is present.
func (m *WebsiteMetrics) Value(key MetricKey) (float64, bool) {
	if m == nil {
		return 0, false
	}
	if p := m.field(key); p != nil && *p != nil {
		return **p, true
	}
	return 0, false
}

// Set stores v under key. Unknown keys are ignored.
func (m *WebsiteMetrics) Set(key MetricKey, v float64) {
	if p := m.field(key); p != nil {
		*p = &v
	}
}

func (m *WebsiteMetrics) field(key MetricKey) **float64 {
	switch key {
	case LoadTime:
		return &m.LoadTime
	case RequestSize:
		return &m.RequestSize
	case RequestCount:
		return &m.RequestCount
	case SpeedIndex:
		return &m.SpeedIndex
	case TTFB:
		return &m.TTFB
	case FCP:
		return &m.FCP
	case LCP:
		return &m.LCP
	case FID:
		return &m.FID
	case TTI:
		return &m.TTI
	case CLS:
		return &m.CLS
	}
	return nil
}

// Clone returns a deep copy so callers never share pointers with the owner.
func (m *WebsiteMetrics) Clone() *WebsiteMetrics {
	if m == nil {
		return nil
	}
	out := &WebsiteMetrics{}
	for _, k := range MetricKeys() {
		if v, ok := m.Value(k); ok {
			out.Set(k, v)
		}
	}
	return out
}

// Validate reports an error if any present value is negative or not finite.
func (m *WebsiteMetrics) Validate() error {
	for _, k := range MetricKeys() {
		v, ok := m.Value(k)
		if !ok {
			continue
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", errInvalidMetric, k, v)
		}
	}
	return nil
}

// Comparison pairs a metric's current value with its optimal reference.
type Comparison struct {
	Key     MetricKey `json:"key"`
	Label   string    `json:"label"`
	Current float64   `json:"current"`
	Optimal float64   `json:"optimal"`
}

// Notification is a short user-facing message emitted for every error.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
