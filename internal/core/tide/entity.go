package tide

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	MinOrder = 1
	MaxOrder = 4

	// MaxWeekdayLength is the longest weekday label a day stores, in characters
	MaxWeekdayLength = 10

	// maxAbsHeight keeps heights inside a decimal(5,2) column
	maxAbsHeight = 999.99
)

// TimeOfDay is a wall-clock time with minute precision
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay builds a TimeOfDay, rejecting out-of-range components
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute %d out of range", minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. Seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q", s)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return TimeOfDay{}, fmt.Errorf("invalid time %q", s)
		}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return TimeOfDay{}, fmt.Errorf("invalid second in %q", s)
		}
	}
	return NewTimeOfDay(hour, minute)
}

// String renders the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Reading is one tide event at a fixed slot of its day
type Reading struct {
	ID     uint
	DayID  uint
	Date   time.Time
	Order  int
	Time   TimeOfDay
	Height float64
}

// Day is one calendar date with up to four readings
type Day struct {
	ID       uint
	Date     time.Time
	Weekday  string
	Readings []Reading
}

// SortedReadings returns a copy of the day's readings ordered by slot
func (d *Day) SortedReadings() []Reading {
	readings := make([]Reading, len(d.Readings))
	copy(readings, d.Readings)
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Order < readings[j].Order
	})
	return readings
}

// Classified returns the day's readings in slot order with high/low labels
func (d *Day) Classified() []ClassifiedReading {
	if d == nil {
		return []ClassifiedReading{}
	}
	return Classify(d.SortedReadings())
}

// IsValidOrder reports whether order is a usable slot number
func IsValidOrder(order int) bool {
	return order >= MinOrder && order <= MaxOrder
}

// ClipWeekday trims label and cuts it to MaxWeekdayLength characters.
// ok is false when characters were dropped.
func ClipWeekday(label string) (string, bool) {
	label = strings.TrimSpace(label)
	runes := []rune(label)
	if len(runes) <= MaxWeekdayLength {
		return label, true
	}
	return strings.TrimSpace(string(runes[:MaxWeekdayLength])), false
}

// RoundHeight rounds to the two decimals the store keeps
func RoundHeight(h float64) float64 {
	return math.Round(h*100) / 100
}

// IsValidHeight reports whether h fits the stored precision
func IsValidHeight(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0) && math.Abs(RoundHeight(h)) <= maxAbsHeight
}

// FormatHeight renders a height with two decimals, e.g. "1.20"
func FormatHeight(h float64) string {
	return strconv.FormatFloat(RoundHeight(h), 'f', 2, 64)
}

// DateOf returns the UTC midnight for a calendar date. Invalid components are
// normalized the way time.Date does; use NewDate to reject them.
func DateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date and fails when the components do not name a
// real day, e.g. 31 April.
func NewDate(year int, month time.Month, day int) (time.Time, error) {
	d := DateOf(year, month, day)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, int(month), day)
	}
	return d, nil
}

// Truncate drops the clock part of t, keeping its calendar date
func Truncate(t time.Time) time.Time {
	return DateOf(t.Year(), t.Month(), t.Day())
}
