// Package metrics turns raw WebsiteMetrics into display strings, a prompt-ready
// summary, and threshold comparisons. Everything here is pure.
package metrics

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/speedx-dev/speedx/internal/model"
)

const (
	// Placeholder is displayed for a metric that was not collected.
	Placeholder = "-"
	// NotAvailable stands in for a missing metric in the summary text.
	NotAvailable = "N/A"
)

// Field is one metric prepared for display.
type Field struct {
	Key   model.MetricKey `json:"key"`
	Label string          `json:"label"`
	Value string          `json:"value"`
}

// Display renders a single metric value with its unit and rounding policy.
func Display(key model.MetricKey, value *float64) string {
	if value == nil {
		return Placeholder
	}
	v := *value

	switch key {
	case model.RequestSize:
		return message.NewPrinter(language.English).Sprintf("%.0f", whole(v)) + " bytes"
	case model.RequestCount:
		return strconv.FormatFloat(whole(v), 'f', 0, 64)
	case model.CLS:
		return strconv.FormatFloat(v, 'f', 4, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64) + " ms"
	}
}

// Fields renders every metric in display order. A nil record yields placeholders.
func Fields(m *model.WebsiteMetrics) []Field {
	keys := model.MetricKeys()
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Label: k.Label(), Value: Display(k, pointer(m, k))})
	}
	return out
}

// Summary concatenates all metrics with labels and units into one comma-joined
// line, the body of the insight prompt.
func Summary(m *model.WebsiteMetrics) string {
	parts := make([]string, 0, len(model.MetricKeys()))
	for _, k := range model.MetricKeys() {
		parts = append(parts, k.Label()+": "+summaryValue(k, pointer(m, k)))
	}
	return strings.Join(parts, ", ")
}

// summaryValue differs from Display only where Display would introduce commas
// or a placeholder dash.
func summaryValue(key model.MetricKey, value *float64) string {
	switch {
	case value == nil:
		return NotAvailable
	case key == model.RequestSize:
		return strconv.FormatFloat(whole(*value), 'f', 0, 64) + " bytes"
	default:
		return Display(key, value)
	}
}

// whole rounds half away from zero. Values stay float64 so counts beyond the
// int64 range render as written.
func whole(v float64) float64 {
	r := math.Round(v)
	if r == 0 {
		return 0
	}
	return r
}

func pointer(m *model.WebsiteMetrics, key model.MetricKey) *float64 {
	v, ok := m.Value(key)
	if !ok {
		return nil
	}
	return &v
}
