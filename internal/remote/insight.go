package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/speedx-dev/speedx/internal/platform/errs"
)

const insightInstruction = "Analyze the following website performance metrics and give short, actionable insights. " +
	"Write each insight on its own line. Do not use bullet points, numbering, headings, or markdown."

var (
	errMissingAPIKey = errors.New("insight API key is not configured")
	errNoCandidates  = errors.New("response has no candidates")
	errNoParts       = errors.New("first candidate has no text parts")
)

// InsightClient asks a generative-text service to describe a metrics summary.
type InsightClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewInsightClient returns a client that authenticates with apiKey as the
// "key" query parameter of endpoint.
func NewInsightClient(endpoint, apiKey string, timeout time.Duration) *InsightClient {
	return &InsightClient{endpoint: endpoint, apiKey: apiKey, client: newHTTPClient(timeout)}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Prompt embeds summary in the fixed insight instruction.
func Prompt(summary string) string {
	return insightInstruction + "\n\nMetrics: " + summary
}

// Insights returns the generated insight lines for summary. The text is
// untrusted: callers must not assume a line count or shape.
func (c *InsightClient) Insights(ctx context.Context, summary string) ([]string, error) {
	req, err := c.newRequest(ctx, Prompt(summary))
	if err != nil {
		return nil, &errs.AppError{Kind: errs.Client, Message: errs.Client.Description(), Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.InsightService, Message: errs.InsightService.Description(), Cause: err}
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(errs.InsightService, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return nil, &errs.AppError{
			Kind:           errs.MalformedResponse,
			UpstreamStatus: resp.StatusCode,
			Message:        errs.MalformedResponse.Description(),
			Cause:          err,
		}
	}

	text, err := firstText(out)
	if err != nil {
		return nil, &errs.AppError{
			Kind:           errs.MalformedResponse,
			UpstreamStatus: resp.StatusCode,
			Message:        errs.MalformedResponse.Description(),
			Cause:          err,
		}
	}

	return SplitLines(text), nil
}

func (c *InsightClient) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	if c.apiKey == "" {
		return nil, errMissingAPIKey
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse insight endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return nil, fmt.Errorf("encode insight request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setCommonHeaders(ctx, req)
	return req, nil
}

func firstText(resp generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errNoCandidates
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errNoParts
	}
	return parts[0].Text, nil
}

// SplitLines splits generated text on newlines and drops blank lines.
// Non-blank lines are kept verbatim apart from a trailing carriage return.
func SplitLines(text string) []string {
	lines := make([]string, 0)
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
