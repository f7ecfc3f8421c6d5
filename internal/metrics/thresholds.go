package metrics

import "github.com/speedx-dev/speedx/internal/model"

// optimal holds the reference targets. It is never handed out directly.
var optimal = map[model.MetricKey]float64{
	model.LoadTime:     3000,
	model.RequestSize:  1_600_000,
	model.RequestCount: 50,
	model.SpeedIndex:   3400,
	model.TTFB:         800,
	model.FCP:          1800,
	model.LCP:          2500,
	model.FID:          100,
	model.TTI:          3800,
	model.CLS:          0.1,
}

// Optimal returns the reference value for key.
func Optimal(key model.MetricKey) (float64, bool) {
	v, ok := optimal[key]
	return v, ok
}

// Thresholds returns a copy of the full reference table.
func Thresholds() map[model.MetricKey]float64 {
	out := make(map[model.MetricKey]float64, len(optimal))
	for k, v := range optimal {
		out[k] = v
	}
	return out
}
