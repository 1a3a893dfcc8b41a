package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// ISO-8601 local time without zone; the fraction is omitted when the
// microseconds are zero.
const (
	TimestampLayout        = "2006-01-02T15:04:05.000000"
	TimestampLayoutSeconds = "2006-01-02T15:04:05"
)

// TimeNow abstracts time for tests; overridden in tests.
var TimeNow = func() time.Time { return time.Now() }

// Timestamp returns the current local time in ISO-8601 form.
func Timestamp() string {
	now := TimeNow().Local()
	if now.Nanosecond()/int(time.Microsecond) == 0 {
		return now.Format(TimestampLayoutSeconds)
	}
	return now.Format(TimestampLayout)
}

// MarshalJSON encodes v as UTF-8 JSON without HTML escaping and without the
// trailing newline json.Encoder adds.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Truncate limits s to maxLen runes and adds an ellipsis when it was cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SingleLine collapses newlines so a value fits on one log line.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
