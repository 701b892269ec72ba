package tide

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const whatsAppBaseURL = "https://wa.me/?text="

// ShareOptions names the town and the link appended to shared text
type ShareOptions struct {
	Town string
	URL  string
}

// DefaultShareText is shared when the selected day has no readings
func DefaultShareText(opts ShareOptions) string {
	return fmt.Sprintf("Marés de %s — confira em %s", opts.Town, opts.URL)
}

// ShareText renders the day's classified readings for messaging apps.
// A nil day yields DefaultShareText.
func ShareText(opts ShareOptions, date time.Time, day *Day) string {
	if day == nil {
		return DefaultShareText(opts)
	}

	lines := []string{fmt.Sprintf("Marés de %s em %s:", opts.Town, date.Format("02/01/2006"))}
	for _, r := range day.Classified() {
		label := r.Label()
		if label == "" {
			label = "Maré"
		}
		lines = append(lines, fmt.Sprintf("%s: %s — %s m", label, r.Time, FormatHeight(r.Height)))
	}
	lines = append(lines, "Veja mais em "+opts.URL)
	return strings.Join(lines, "\n")
}

// WhatsAppShareURL builds a wa.me link carrying text
func WhatsAppShareURL(text string) string {
	return whatsAppBaseURL + url.QueryEscape(text)
}
