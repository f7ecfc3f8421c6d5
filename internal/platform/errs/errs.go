package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping and user notifications.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// Unreachable indicates the target URL could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates the target took too long to respond (HTTP 504).
	Timeout
	// ParsingFailed indicates the response could not be parsed (HTTP 500).
	ParsingFailed

	// EmptyInput means no URL text was entered.
	EmptyInput
	// InvalidURL means the text does not look like a website URL.
	InvalidURL
	// RateLimited means the analysis endpoint answered 429.
	RateLimited
	// AnalysisServer means the analysis endpoint answered 500.
	AnalysisServer
	// AnalysisUnexpected covers any other non-200 answer from the analysis endpoint.
	AnalysisUnexpected
	// Network means a request was sent but no response arrived.
	Network
	// InsightService means the insight call failed.
	InsightService
	// MalformedResponse means the insight response lacked the expected shape.
	MalformedResponse
	// Client means the request could not be constructed or sent.
	Client
)

var kindNames = map[Kind]string{
	Unknown:            "unknown",
	InvalidInput:       "invalid_input",
	Unreachable:        "unreachable",
	Timeout:            "timeout",
	ParsingFailed:      "parsing_failed",
	EmptyInput:         "empty_input",
	InvalidURL:         "invalid_url",
	RateLimited:        "rate_limited",
	AnalysisServer:     "analysis_server",
	AnalysisUnexpected: "analysis_unexpected",
	Network:            "network",
	InsightService:     "insight_service",
	MalformedResponse:  "malformed_response",
	Client:             "client",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Title is the short headline shown to the user for this kind.
func (k Kind) Title() string {
	switch k {
	case EmptyInput:
		return "Input Required"
	case InvalidURL:
		return "Invalid URL"
	case RateLimited:
		return "Rate Limit Exceeded"
	case AnalysisServer:
		return "Server Error"
	case Network:
		return "Network Error"
	case InsightService, MalformedResponse:
		return "Insights Unavailable"
	}
	return "Error"
}

// Description is the one-sentence explanation shown to the user for this kind.
func (k Kind) Description() string {
	switch k {
	case EmptyInput:
		return "Please enter a website link."
	case InvalidURL:
		return "Please enter a valid URL."
	case RateLimited:
		return "Too many requests. Please try again later."
	case AnalysisServer:
		return "There was an issue analyzing the website. Please try again later."
	case Network:
		return "No response from the server. Please check your connection."
	case InsightService:
		return "Metrics were collected, but insights could not be generated."
	case MalformedResponse:
		return "The insight service returned an unexpected response."
	case Client:
		return "An error occurred while analyzing the website."
	}
	return "An unexpected error occurred."
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the remote side
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New returns an AppError of the given kind whose message is the kind's description.
func New(kind Kind, cause error) *AppError {
	return &AppError{Kind: kind, Message: kind.Description(), Cause: cause}
}
