package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsClockTime(t *testing.T) {
	valid := []string{"00:00", "06:15", "23:59", "12:30:45"}
	invalid := []string{"24:00", "7:15", "0615", "12:60", "", "12:30:60"}

	for _, v := range valid {
		assert.True(t, IsClockTime(v), v)
	}
	for _, v := range invalid {
		assert.False(t, IsClockTime(v), v)
	}
}

func TestParseISODate(t *testing.T) {
	d, ok := ParseISODate("2025-02-28")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"2025-02-30", "28/02/2025", "2025-2-1", "", "yesterday"} {
		_, ok := ParseISODate(bad)
		assert.False(t, ok, bad)
		assert.False(t, IsISODate(bad), bad)
	}
}

func TestTrimAndValidate(t *testing.T) {
	s, ok := TrimAndValidate("  Seg ")
	assert.True(t, ok)
	assert.Equal(t, "Seg", s)

	_, ok = TrimAndValidate("   ")
	assert.False(t, ok)
	assert.False(t, IsNotEmpty("\t"))
}
