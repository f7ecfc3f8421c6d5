package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedx-dev/speedx/internal/platform/errs"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		text     string
		wantKind errs.Kind
		wantOK   bool
	}{
		{text: "example.com", wantOK: true},
		{text: "https://example.com/path", wantOK: true},
		{text: "http://sub.example.co.uk/a/b.html", wantOK: true},
		{text: "HTTPS://EXAMPLE.COM", wantOK: true},
		{text: "example.com/", wantOK: true},
		{text: "", wantKind: errs.EmptyInput},
		{text: "   \t", wantKind: errs.EmptyInput},
		{text: "not a url", wantKind: errs.InvalidURL},
		{text: "ftp://example.com", wantKind: errs.InvalidURL},
		{text: "localhost", wantKind: errs.InvalidURL},
		{text: "https://example.com?q=1", wantKind: errs.InvalidURL},
		{text: " example.com", wantKind: errs.InvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			err := Validate(tt.text)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}

			var appErr *errs.AppError
			require.True(t, errors.As(err, &appErr), "want *errs.AppError, got %v", err)
			assert.Equal(t, tt.wantKind, appErr.Kind)
		})
	}
}
