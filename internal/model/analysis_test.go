package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsiteMetrics_DecodeNullAndMissing(t *testing.T) {
	var m WebsiteMetrics
	err := json.Unmarshal([]byte(`{"loadTime": 500, "speedIndex": null, "cls": 0.05}`), &m)
	require.NoError(t, err)

	v, ok := m.Value(LoadTime)
	assert.True(t, ok)
	assert.InDelta(t, 500, v, 1e-9)

	_, ok = m.Value(SpeedIndex)
	assert.False(t, ok, "explicit null must decode as absent")

	_, ok = m.Value(TTFB)
	assert.False(t, ok, "missing key must decode as absent")
}

func TestWebsiteMetrics_EncodesAbsentAsNull(t *testing.T) {
	m := &WebsiteMetrics{}
	m.Set(RequestCount, 12)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 10)
	assert.Nil(t, raw["lcp"])
	assert.InDelta(t, 12, raw["requestCount"], 1e-9)
}

func TestWebsiteMetrics_Clone(t *testing.T) {
	m := &WebsiteMetrics{}
	m.Set(TTFB, 80)

	c := m.Clone()
	c.Set(TTFB, 1)

	v, _ := m.Value(TTFB)
	assert.InDelta(t, 80, v, 1e-9, "clone must not alias the original")
	assert.Nil(t, (*WebsiteMetrics)(nil).Clone())
}

func TestWebsiteMetrics_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     MetricKey
		value   float64
		wantErr bool
	}{
		{name: "zero", key: FID, value: 0},
		{name: "positive", key: LoadTime, value: 358.4321},
		{name: "negative", key: CLS, value: -0.1, wantErr: true},
		{name: "infinite", key: TTI, value: math.Inf(1), wantErr: true},
		{name: "nan", key: LCP, value: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &WebsiteMetrics{}
			m.Set(tt.key, tt.value)
			err := m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetricKey_Label(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range MetricKeys() {
		label := k.Label()
		assert.NotEqual(t, string(k), label, "every key needs a label")
		assert.False(t, seen[label], "duplicate label %q", label)
		seen[label] = true
	}
}
