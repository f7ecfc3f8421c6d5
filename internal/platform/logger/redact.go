package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"key":           true,
	"authorization": true,
	"token":         true,
	"secret":        true,
	"password":      true,
}

// keyParam matches API keys carried as query parameters, as the insight endpoint requires.
var keyParam = regexp.MustCompile(`([?&](?:key|api_key)=)[^&\s"]+`)

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); strings.Contains(s, "=") {
			return slog.String(a.Key, keyParam.ReplaceAllString(s, "${1}"+redacted))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, keyParam.ReplaceAllString(err.Error(), "${1}"+redacted))
		}
	}
	return a
}
