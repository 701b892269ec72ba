package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mares.app/internal/core/tide"
)

func TestMonthGrid_February2025(t *testing.T) {
	lookup := NewLookup([]*tide.Day{
		{Date: tide.DateOf(2025, time.February, 14), Readings: []tide.Reading{
			{Order: 1, Height: 1.2}, {Order: 2, Height: 0.3},
		}},
		{Date: tide.DateOf(2025, time.January, 27)},
		{Date: tide.DateOf(2025, time.March, 10)},
	})

	grid := MonthGrid(2025, time.February, lookup)

	assert.Equal(t, "Fevereiro", grid.Name)
	require.Len(t, grid.Weeks, 5)
	for _, week := range grid.Weeks {
		require.Len(t, week, 7)
		assert.Equal(t, time.Sunday, week[0].Date.Weekday())
	}

	first := grid.Weeks[0][0]
	last := grid.Weeks[4][6]
	assert.Equal(t, tide.DateOf(2025, time.January, 26), first.Date)
	assert.Equal(t, tide.DateOf(2025, time.March, 1), last.Date)

	var inMonth, withData int
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.InMonth {
				inMonth++
				assert.Equal(t, time.February, cell.Date.Month())
			} else {
				assert.NotEqual(t, time.February, cell.Date.Month())
			}
			if cell.HasData {
				withData++
			} else {
				assert.Empty(t, cell.Readings)
				assert.NotNil(t, cell.Readings)
			}
		}
	}
	assert.Equal(t, 28, inMonth)
	// Feb 14 plus the Jan 27 overflow cell; Mar 10 is outside the grid
	assert.Equal(t, 2, withData)

	feb14 := grid.Weeks[2][5]
	require.Equal(t, tide.DateOf(2025, time.February, 14), feb14.Date)
	assert.True(t, feb14.HasData)
	require.Len(t, feb14.Readings, 2)
	assert.Equal(t, tide.KindHigh, feb14.Readings[0].Kind)
	assert.Equal(t, tide.KindLow, feb14.Readings[1].Kind)

	jan27 := grid.Weeks[0][1]
	assert.False(t, jan27.InMonth)
	assert.True(t, jan27.HasData)
}

func TestMonthGrid_ExactFit(t *testing.T) {
	// February 2015 starts on Sunday and ends on Saturday
	grid := MonthGrid(2015, time.February, nil)

	require.Len(t, grid.Weeks, 4)
	assert.Equal(t, tide.DateOf(2015, time.February, 1), grid.Weeks[0][0].Date)
	assert.Equal(t, tide.DateOf(2015, time.February, 28), grid.Weeks[3][6].Date)
}

func TestMonthGrid_SixWeeks(t *testing.T) {
	// August 2026 starts on Saturday and has 31 days
	grid := MonthGrid(2026, time.August, Lookup{})

	assert.Len(t, grid.Weeks, 6)
}

func TestYearGrid(t *testing.T) {
	months := YearGrid(2025, Lookup{})

	require.Len(t, months, 12)
	for i, m := range months {
		assert.Equal(t, time.Month(i+1), m.Number)
		assert.Equal(t, 2025, m.Year)
	}
	assert.Equal(t, "Março", months[2].Name)
}

func TestLookup_IgnoresClock(t *testing.T) {
	lookup := NewLookup([]*tide.Day{{Date: tide.DateOf(2025, time.May, 5), Weekday: "Seg"}})

	day, ok := lookup.Get(time.Date(2025, time.May, 5, 15, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "Seg", day.Weekday)

	_, ok = lookup.Get(tide.DateOf(2025, time.May, 6))
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Janeiro", MonthName(time.January))
	assert.Equal(t, "Dezembro", MonthName(time.December))
	assert.Equal(t, "terça-feira", WeekdayName(time.Tuesday))
	assert.Equal(t, []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}, WeekdayHeaders())
}

func TestMonthOptions(t *testing.T) {
	options := MonthOptions(tide.DateOf(2025, time.March, 17))

	require.Len(t, options, 12)
	assert.Equal(t, "2025-01-01", options[0].Value)
	assert.Equal(t, "Janeiro 2025", options[0].Label)
	assert.True(t, options[2].Selected)
	assert.False(t, options[3].Selected)
}

func TestPrevNextMonth(t *testing.T) {
	assert.Equal(t, tide.DateOf(2024, time.December, 1), PrevMonth(tide.DateOf(2025, time.January, 31)))
	assert.Equal(t, tide.DateOf(2026, time.January, 1), NextMonth(tide.DateOf(2025, time.December, 15)))
	assert.Equal(t, tide.DateOf(2025, time.February, 1), NextMonth(tide.DateOf(2025, time.January, 31)))
}
