package ports

import (
	"context"
	"time"
)

// TideDayData represents a stored tide day together with its readings
type TideDayData struct {
	ID        uint
	Date      time.Time
	Weekday   string
	Readings  []TideReadingData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TideReadingData represents one stored reading. Date mirrors the parent day.
type TideReadingData struct {
	ID     uint
	DayID  uint
	Date   time.Time
	Order  int
	Time   string
	Height float64
}

// DayQuery narrows day listings. Zero values mean "no filter".
type DayQuery struct {
	Date  *time.Time
	Start *time.Time
	End   *time.Time
	Year  int
}

// ReadingQuery narrows reading listings
type ReadingQuery struct {
	Date *time.Time
}

// TideRepository defines the contract for tide day and reading persistence
type TideRepository interface {
	ListDays(ctx context.Context, query DayQuery) ([]*TideDayData, error)
	FindDayByID(ctx context.Context, id uint) (*TideDayData, error)
	FindDayByDate(ctx context.Context, date time.Time) (*TideDayData, error)

	// EnsureDay creates the day when absent. An existing day only has its
	// weekday replaced when weekday is non-empty and differs.
	EnsureDay(ctx context.Context, date time.Time, weekday string) (day *TideDayData, created bool, err error)

	ListReadings(ctx context.Context, query ReadingQuery) ([]*TideReadingData, error)
	FindReadingByID(ctx context.Context, id uint) (*TideReadingData, error)

	// UpsertReading writes time and height for the (DayID, Order) key and
	// fills in the reading ID.
	UpsertReading(ctx context.Context, reading *TideReadingData) (created bool, err error)
	UpdateReading(ctx context.Context, reading *TideReadingData) error
	DeleteReading(ctx context.Context, id uint) error

	// DeleteYear removes every day of year along with its readings
	DeleteYear(ctx context.Context, year int) (int64, error)

	// WithinTransaction runs fn against a repository bound to one transaction.
	// Any error returned by fn rolls the whole transaction back.
	WithinTransaction(ctx context.Context, fn func(repo TideRepository) error) error
}
