package legacy

import (
	"regexp"
	"strings"
)

// Transform is one text-rewrite pass over legacy source
type Transform func(string) string

// Chain composes passes left to right
func Chain(passes ...Transform) Transform {
	return func(s string) string {
		for _, pass := range passes {
			s = pass(s)
		}
		return s
	}
}

var (
	lineCommentRe   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	timeKeyRe       = regexp.MustCompile(`"Hor[^"\n\r]*?rio"`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// TimeKey is the canonical ASCII key of the time-of-day field
const TimeKey = "Horario"

// StripLineComments removes // comments up to end of line
func StripLineComments(s string) string {
	return lineCommentRe.ReplaceAllString(s, "")
}

// StripBlockComments removes /* ... */ comments, including multi-line ones
func StripBlockComments(s string) string {
	return blockCommentRe.ReplaceAllString(s, "")
}

// StripComments runs over the whole file before block scanning
var StripComments = Chain(StripLineComments, StripBlockComments)

// TrimBlock trims whitespace and the statement-ending semicolon
func TrimBlock(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ";")
}

// NormalizeKeyNames rewrites any spelling of "Horário", including mis-decoded
// ones such as "HorÃ¡rio", to the ASCII TimeKey.
func NormalizeKeyNames(s string) string {
	return timeKeyRe.ReplaceAllString(s, `"`+TimeKey+`"`)
}

// RemoveTrailingCommas drops a comma that directly precedes } or ]
func RemoveTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// RepairBlock turns a closed month block into strict JSON text
var RepairBlock = Chain(TrimBlock, NormalizeKeyNames, RemoveTrailingCommas)
