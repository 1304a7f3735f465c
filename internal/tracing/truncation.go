package tracing

import (
	"strings"
)

// Attribute length caps. Span attributes never carry full resume text or
// whole SQL statements, only enough to recognize the operation.
const (
	DefaultMaxLength   = 200
	MaxSQLLength       = 500
	MaxRedisKeyLength  = 100
	MaxObjectKeyLength = 128
	MaxResumeLength    = 150
)

// maskPIILookup lists attribute-name substrings whose values are personal
// data. Arabic entries cover the bilingual resume fields.
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"password": true,
	"address":  true,
	"name":     true,
	"secret":   true,
	"token":    true,
	"بريد":     true,
	"هاتف":     true,
	"عنوان":    true,
	"اسم":      true,
}

// SafeAttributeValue sanitizes one attribute value before it reaches a span:
// values under a PII-looking name are masked, everything else is truncated
// to maxLength.
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII hides the middle of a personal value, keeping just enough of the
// edges to correlate log lines ("ahmed@example.com" -> "ah*************om").
func MaskPII(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	length := len(runes)

	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[:1]) + "*"
	case length <= 4:
		return string(runes[:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	default:
		return string(runes[:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
	}
}

// TruncateString caps s at maxLength runes, keeping the head and tail with
// an ellipsis between them so ids at either end stay readable.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL truncates a SQL statement for span attributes.
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey truncates a cache key for span attributes.
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisKeyLength)
}

// SafeObjectKey truncates an object storage key for span attributes.
func SafeObjectKey(key string) string {
	return TruncateString(key, MaxObjectKeyLength)
}

// SafeResumeContent truncates extracted resume text for span attributes.
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
