package utils

import (
	"regexp"
	"sort"
)

// redactionPattern is one class of secret that must never reach a log line
type redactionPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Priority    int // higher runs first
}

var redactionPatterns = func() []redactionPattern {
	patterns := []redactionPattern{
		{
			Name:        "Bearer Token",
			Regex:       regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.=]+`),
			Replacement: "${1}[REDACTED]",
			Priority:    100,
		},
		{
			Name:        "JWT Token",
			Regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_\-]+\.eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`),
			Replacement: "[REDACTED_JWT]",
			Priority:    90,
		},
		{
			Name:        "Access Token Field",
			Regex:       regexp.MustCompile(`(?i)("?(?:access_token|token)"?\s*[:=]\s*"?)[^\s",}]+`),
			Replacement: "${1}[REDACTED]",
			Priority:    85,
		},
		{
			Name:        "Password",
			Regex:       regexp.MustCompile(`(?i)("?(?:password|passwd|pwd)"?\s*[:=]\s*"?)[^\s",}]+`),
			Replacement: "${1}[REDACTED]",
			Priority:    70,
		},
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Priority > patterns[j].Priority
	})
	return patterns
}()

// Redact masks bearer tokens, JWTs, token fields and passwords in s
func Redact(s string) string {
	for _, p := range redactionPatterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}
