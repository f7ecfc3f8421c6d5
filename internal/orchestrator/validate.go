package orchestrator

import (
	"regexp"
	"strings"

	"github.com/speedx-dev/speedx/internal/platform/errs"
)

var urlPattern = regexp.MustCompile(`(?i)^(https?://)?([a-z0-9.-]+)\.([a-z]{2,6})([/\w .-]*)*/?$`)

// Validate reports whether text looks like a website URL: an optional http(s)
// scheme, a dotted host ending in a 2-6 letter label, and an optional path.
// It never touches the network and never rewrites the input.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.New(errs.EmptyInput, nil)
	}
	if !urlPattern.MatchString(text) {
		return errs.New(errs.InvalidURL, nil)
	}
	return nil
}
