// Package calendar assembles Sunday-first month grids of tide days for rendering.
package calendar

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"mares.app/internal/core/tide"
)

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var weekdayNames = [7]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var weekdayHeaders = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// MonthName returns the capitalized Portuguese name of m
func MonthName(m time.Month) string {
	return capitalize(monthNames[m-1])
}

// WeekdayName returns the Portuguese name of d, e.g. "terça-feira"
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// WeekdayHeaders returns the short column headers, Sunday first
func WeekdayHeaders() []string {
	return weekdayHeaders[:]
}

// capitalize builds a Caser per call; Casers must not be shared between goroutines
func capitalize(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// Cell is one day square of a month grid
type Cell struct {
	Date     time.Time
	InMonth  bool
	HasData  bool
	Readings []tide.ClassifiedReading
}

// Month is a week-major grid; every week has seven cells starting on Sunday
type Month struct {
	Year   int
	Number time.Month
	Name   string
	Weeks  [][]Cell
}

// Lookup indexes stored days by calendar date
type Lookup map[time.Time]*tide.Day

// NewLookup indexes days by their truncated date
func NewLookup(days []*tide.Day) Lookup {
	lookup := make(Lookup, len(days))
	for _, d := range days {
		lookup[tide.Truncate(d.Date)] = d
	}
	return lookup
}

// Get returns the stored day for date, if any
func (l Lookup) Get(date time.Time) (*tide.Day, bool) {
	d, ok := l[tide.Truncate(date)]
	return d, ok
}

// MonthGrid builds the full weeks overlapping month. Cells outside the month
// are still filled from lookup but flagged InMonth=false.
func MonthGrid(year int, month time.Month, lookup Lookup) Month {
	first := tide.DateOf(year, month, 1)
	last := tide.DateOf(year, month+1, 0)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	grid := Month{
		Year:   year,
		Number: month,
		Name:   MonthName(month),
	}

	var week []Cell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cell := Cell{
			Date:     d,
			InMonth:  d.Month() == month,
			Readings: []tide.ClassifiedReading{},
		}
		if day, ok := lookup.Get(d); ok {
			cell.HasData = true
			cell.Readings = day.Classified()
		}

		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}

	return grid
}

// YearGrid builds the twelve month grids of year
func YearGrid(year int, lookup Lookup) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, MonthGrid(year, m, lookup))
	}
	return months
}

// MonthOption is one entry of a month picker
type MonthOption struct {
	Value    string
	Label    string
	Selected bool
}

// MonthOptions lists the first day of each month of selected's year
func MonthOptions(selected time.Time) []MonthOption {
	options := make([]MonthOption, 0, 12)
	for m := time.January; m <= time.December; m++ {
		options = append(options, MonthOption{
			Value:    tide.DateOf(selected.Year(), m, 1).Format("2006-01-02"),
			Label:    MonthName(m) + " " + selected.Format("2006"),
			Selected: m == selected.Month(),
		})
	}
	return options
}

// PrevMonth returns the first day of the month before date
func PrevMonth(date time.Time) time.Time {
	return tide.DateOf(date.Year(), date.Month()-1, 1)
}

// NextMonth returns the first day of the month after date
func NextMonth(date time.Time) time.Time {
	return tide.DateOf(date.Year(), date.Month()+1, 1)
}
