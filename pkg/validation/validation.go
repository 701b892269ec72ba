package validation

import (
	"regexp"
	"strings"
	"time"
)

// ISODateLayout is the only date format accepted by filters and payloads.
const ISODateLayout = "2006-01-02"

var clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// IsClockTime validates HH:MM or HH:MM:SS on a 24h clock
func IsClockTime(s string) bool {
	return clockTimeRegex.MatchString(strings.TrimSpace(s))
}

// ParseISODate parses a YYYY-MM-DD string, reporting false for anything else
func ParseISODate(s string) (time.Time, bool) {
	d, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date
func IsISODate(s string) bool {
	_, ok := ParseISODate(s)
	return ok
}

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// TrimAndValidate trims string and validates it's not empty
func TrimAndValidate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}
