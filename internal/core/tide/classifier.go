package tide

// Kind labels a reading as a high or low tide
type Kind string

const (
	KindNone Kind = ""
	KindHigh Kind = "high"
	KindLow  Kind = "low"
)

// Label returns the Portuguese display text for the kind
func (k Kind) Label() string {
	switch k {
	case KindHigh:
		return "Maré Alta"
	case KindLow:
		return "Maré Baixa"
	default:
		return ""
	}
}

// ClassifiedReading pairs a reading with its high/low label
type ClassifiedReading struct {
	Reading
	Kind Kind
}

// Label returns the display text for the reading's kind
func (c ClassifiedReading) Label() string {
	return c.Kind.Label()
}

// Classify labels each reading of one day by comparing its height with a
// single neighbour: the next reading, or the previous one for the last
// reading. Strictly greater is high; equal heights are low. A lone reading
// stays unlabeled. Readings must already be in slot order.
//
// This is a pairwise label, not a peak detector: [1.0, 2.0, 3.0] yields
// low, low, high.
func Classify(readings []Reading) []ClassifiedReading {
	out := make([]ClassifiedReading, len(readings))
	for i, r := range readings {
		out[i] = ClassifiedReading{Reading: r, Kind: KindNone}
		if len(readings) == 1 {
			continue
		}

		neighbour := i + 1
		if neighbour >= len(readings) {
			neighbour = i - 1
		}

		if r.Height > readings[neighbour].Height {
			out[i].Kind = KindHigh
		} else {
			out[i].Kind = KindLow
		}
	}
	return out
}
