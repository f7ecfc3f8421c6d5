package errs

import (
	"errors"
	"fmt"
	"testing"
)

var errBoom = errors.New("boom")

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(Network, errBoom))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError in chain, got %T", err)
	}
	if appErr.Kind != Network {
		t.Errorf("Kind = %v, want %v", appErr.Kind, Network)
	}
	if !errors.Is(err, errBoom) {
		t.Error("cause is not reachable through errors.Is")
	}
}

func TestAppError_Error(t *testing.T) {
	e := &AppError{Kind: Client, Message: "cannot build"}
	if e.Error() != "cannot build" {
		t.Errorf("Error() = %q", e.Error())
	}

	e.Cause = errBoom
	if e.Error() != "cannot build: boom" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestKind_Notification(t *testing.T) {
	tests := []struct {
		kind  Kind
		title string
		desc  string
	}{
		{EmptyInput, "Input Required", "Please enter a website link."},
		{InvalidURL, "Invalid URL", "Please enter a valid URL."},
		{RateLimited, "Rate Limit Exceeded", "Too many requests. Please try again later."},
		{AnalysisServer, "Server Error", "There was an issue analyzing the website. Please try again later."},
		{AnalysisUnexpected, "Error", "An unexpected error occurred."},
		{Network, "Network Error", "No response from the server. Please check your connection."},
		{Client, "Error", "An error occurred while analyzing the website."},
		{InsightService, "Insights Unavailable", "Metrics were collected, but insights could not be generated."},
		{MalformedResponse, "Insights Unavailable", "The insight service returned an unexpected response."},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Title(); got != tt.title {
				t.Errorf("Title() = %q, want %q", got, tt.title)
			}
			if got := tt.kind.Description(); got != tt.desc {
				t.Errorf("Description() = %q, want %q", got, tt.desc)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if RateLimited.String() != "rate_limited" {
		t.Errorf("String() = %q", RateLimited.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Errorf("String() = %q", Kind(99).String())
	}
}
