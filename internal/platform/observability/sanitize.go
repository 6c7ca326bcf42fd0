package observability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultFieldLimit = 256

// clampField strips control characters so attacker-supplied values cannot
// forge log lines, then truncates to limit runes.
func clampField(value string, limit int) string {
	if limit <= 0 {
		limit = defaultFieldLimit
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if utf8.RuneCountInString(cleaned) <= limit {
		return cleaned
	}
	runes := []rune(cleaned)
	return string(runes[:limit])
}

// SanitizeRoute bounds a request route for logging. An empty route is
// reported as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return clampField(route, 180)
}

// SanitizeMethod bounds an HTTP method for logging.
func SanitizeMethod(method string) string {
	return clampField(method, 10)
}
