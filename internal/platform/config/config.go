package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// DefaultInsightEndpoint is the generative-text endpoint used when INSIGHT_ENDPOINT is unset.
const DefaultInsightEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: PROBE_CONCURRENCY must be 1-100")
	errInvalidEndpoint       = errors.New("config: endpoint must be an absolute http(s) URL")
	errInvalidTimeout        = errors.New("config: HTTP_TIMEOUT must be positive")
	errInvalidRate           = errors.New("config: PROBE_RATE_PER_MINUTE and PROBE_RATE_BURST must be positive")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port               string
	LogLevel           string
	AnalyzeEndpoint    string
	InsightEndpoint    string
	InsightAPIKey      string
	HTTPTimeout        time.Duration
	ProbeConcurrency   int
	ProbeRatePerMinute int
	ProbeRateBurst     int
	HistoryDir         string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "ERROR")
	v.SetDefault("ANALYZE_ENDPOINT", "http://localhost:8080")
	v.SetDefault("INSIGHT_ENDPOINT", DefaultInsightEndpoint)
	v.SetDefault("HTTP_TIMEOUT", "60s")
	v.SetDefault("PROBE_CONCURRENCY", 10)
	v.SetDefault("PROBE_RATE_PER_MINUTE", 10)
	v.SetDefault("PROBE_RATE_BURST", 3)
	v.SetDefault("HISTORY_DIR", "data")

	// GEMINI_API_KEY is accepted for parity with the hosted frontend's env file.
	_ = v.BindEnv("INSIGHT_API_KEY", "INSIGHT_API_KEY", "GEMINI_API_KEY")

	cfg := Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		AnalyzeEndpoint:    v.GetString("ANALYZE_ENDPOINT"),
		InsightEndpoint:    v.GetString("INSIGHT_ENDPOINT"),
		InsightAPIKey:      v.GetString("INSIGHT_API_KEY"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		ProbeConcurrency:   v.GetInt("PROBE_CONCURRENCY"),
		ProbeRatePerMinute: v.GetInt("PROBE_RATE_PER_MINUTE"),
		ProbeRateBurst:     v.GetInt("PROBE_RATE_BURST"),
		HistoryDir:         v.GetString("HISTORY_DIR"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	for _, endpoint := range []string{c.AnalyzeEndpoint, c.InsightEndpoint} {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", errInvalidEndpoint, endpoint)
		}
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: got %s", errInvalidTimeout, c.HTTPTimeout)
	}

	if c.ProbeConcurrency < 1 || c.ProbeConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.ProbeConcurrency)
	}

	if c.ProbeRatePerMinute < 1 || c.ProbeRateBurst < 1 {
		return fmt.Errorf("%w: got %d/%d", errInvalidRate, c.ProbeRatePerMinute, c.ProbeRateBurst)
	}

	return nil
}
