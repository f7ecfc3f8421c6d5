package metrics

import (
	"math"

	"github.com/speedx-dev/speedx/internal/model"
)

// Compare pairs every thresholded metric with its optimal value for chart
// display. Absent metrics compare as 0. No verdict is made.
func Compare(m *model.WebsiteMetrics) []model.Comparison {
	out := make([]model.Comparison, 0, len(optimal))
	for _, k := range model.MetricKeys() {
		opt, ok := optimal[k]
		if !ok {
			continue
		}
		current, _ := m.Value(k)
		out = append(out, model.Comparison{
			Key:     k,
			Label:   k.Label(),
			Current: math.Round(current*100) / 100,
			Optimal: opt,
		})
	}
	return out
}
