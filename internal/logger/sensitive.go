package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// SensitiveDataPatterns match credentials embedded in free-form strings.
// The first capture group is kept, the rest is replaced.
var SensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	// Google OAuth refresh and access tokens
	regexp.MustCompile(`(1//)[0-9A-Za-z_-]{20,}`),
	regexp.MustCompile(`(ya29\.)[0-9A-Za-z_-]{20,}`),
	regexp.MustCompile(`(?i)((client_secret|refresh_token|access_token|password|passwd)[\s:=]+)([^;,&\s]{5,})`),
	// user:password@ in sftp://, ftp:// and mysql DSNs
	regexp.MustCompile(`([a-z][a-z0-9+.-]*://[^:/@\s]+:)[^@\s]+(@)`),
}

// sensitiveKeywords mark field keys whose values are never logged
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "refresh_token", "access_token",
	"authorization", "cookie", "dsn",
}

// RedactSensitiveData replaces sensitive substrings with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for i, pattern := range SensitiveDataPatterns {
		if i == len(SensitiveDataPatterns)-1 {
			input = pattern.ReplaceAllString(input, "${1}"+redactedValue+"${2}")
			continue
		}
		input = pattern.ReplaceAllString(input, "${1}"+redactedValue)
	}

	return input
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
