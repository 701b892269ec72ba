package tide

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mares.app/internal/ports"
	"mares.app/pkg/errors"
	"mares.app/pkg/validation"
)

type UseCase struct {
	repo    ports.TideRepository
	cache   ports.CacheProvider
	config  ports.ConfigProvider
	logger  ports.Logger
	metrics ports.MetricsCollector
}

type UseCaseDependencies struct {
	Repository ports.TideRepository
	Cache      ports.CacheProvider
	Config     ports.ConfigProvider
	Logger     ports.Logger
	Metrics    ports.MetricsCollector
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.Repository == nil {
		return nil, errors.NewValidationError("tide repository is required")
	}
	if deps.Cache == nil {
		return nil, errors.NewValidationError("cache is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	return &UseCase{
		repo:    deps.Repository,
		cache:   deps.Cache,
		config:  deps.Config,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}, nil
}

// DayFilter carries raw query values. Malformed values are ignored, and the
// range only applies when both ends parse.
type DayFilter struct {
	Date  string
	Start string
	End   string
}

// ReadingFilter carries raw query values for reading listings
type ReadingFilter struct {
	Date string
}

// ReadingInput is the flat write payload for one reading
type ReadingInput struct {
	Date    string
	Weekday string
	Order   int
	Time    string
	Height  float64
}

// ReadingPatch holds the fields of a partial update; nil means unchanged
type ReadingPatch struct {
	Date    *string
	Weekday *string
	Order   *int
	Time    *string
	Height  *float64
}

type validReading struct {
	date    time.Time
	weekday string
	order   int
	time    TimeOfDay
	height  float64
}

func (in ReadingInput) validate() (validReading, error) {
	date, ok := validation.ParseISODate(in.Date)
	if !ok {
		return validReading{}, errors.NewValidationError("date must be a valid YYYY-MM-DD date")
	}
	if !IsValidOrder(in.Order) {
		return validReading{}, errors.NewValidationError(fmt.Sprintf("order must be between %d and %d", MinOrder, MaxOrder))
	}
	tod, err := ParseTimeOfDay(in.Time)
	if err != nil {
		return validReading{}, errors.NewValidationError("time must be HH:MM")
	}
	if !IsValidHeight(in.Height) {
		return validReading{}, errors.NewValidationError("height is out of range")
	}
	weekday, ok := ClipWeekday(in.Weekday)
	if !ok {
		return validReading{}, errors.NewValidationError(fmt.Sprintf("weekday must be at most %d characters", MaxWeekdayLength))
	}
	return validReading{
		date:    date,
		weekday: weekday,
		order:   in.Order,
		time:    tod,
		height:  RoundHeight(in.Height),
	}, nil
}

func (f DayFilter) query() ports.DayQuery {
	var q ports.DayQuery
	if f.Date != "" {
		if d, ok := validation.ParseISODate(f.Date); ok {
			q.Date = &d
		}
	}
	if f.Start != "" && f.End != "" {
		start, okStart := validation.ParseISODate(f.Start)
		end, okEnd := validation.ParseISODate(f.End)
		if okStart && okEnd {
			q.Start = &start
			q.End = &end
		}
	}
	return q
}

// ListDays returns days in ascending date order with readings in slot order
func (uc *UseCase) ListDays(ctx context.Context, filter DayFilter) ([]*Day, error) {
	data, err := uc.repo.ListDays(ctx, filter.query())
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return daysFromData(data), nil
}

func (uc *UseCase) GetDay(ctx context.Context, id uint) (*Day, error) {
	data, err := uc.repo.FindDayByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dayFromData(data), nil
}

// GetDayByDate returns a NotFound error when no data exists for date
func (uc *UseCase) GetDayByDate(ctx context.Context, date time.Time) (*Day, error) {
	data, err := uc.repo.FindDayByDate(ctx, Truncate(date))
	if err != nil {
		return nil, err
	}
	return dayFromData(data), nil
}

func (uc *UseCase) ListReadings(ctx context.Context, filter ReadingFilter) ([]*Reading, error) {
	var q ports.ReadingQuery
	if d, ok := validation.ParseISODate(filter.Date); ok {
		q.Date = &d
	}

	data, err := uc.repo.ListReadings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	readings := make([]*Reading, len(data))
	for i, r := range data {
		reading := readingFromData(*r)
		readings[i] = &reading
	}
	return readings, nil
}

func (uc *UseCase) GetReading(ctx context.Context, id uint) (*Reading, error) {
	data, err := uc.repo.FindReadingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reading := readingFromData(*data)
	return &reading, nil
}

// SaveReading resolves or creates the parent day and upserts the reading by
// (day, order).
func (uc *UseCase) SaveReading(ctx context.Context, input ReadingInput) (*Reading, bool, error) {
	valid, err := input.validate()
	if err != nil {
		return nil, false, err
	}

	var saved ports.TideReadingData
	var created bool
	err = uc.repo.WithinTransaction(ctx, func(tx ports.TideRepository) error {
		day, _, err := tx.EnsureDay(ctx, valid.date, valid.weekday)
		if err != nil {
			return err
		}

		saved = ports.TideReadingData{
			DayID:  day.ID,
			Date:   day.Date,
			Order:  valid.order,
			Time:   valid.time.String(),
			Height: valid.height,
		}
		created, err = tx.UpsertReading(ctx, &saved)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("save reading: %w", err)
	}

	uc.InvalidateYear(ctx, valid.date.Year())
	uc.logger.Debug("Reading saved",
		ports.F("date", valid.date.Format(validation.ISODateLayout)),
		ports.F("order", valid.order),
		ports.F("created", created))

	reading := readingFromData(saved)
	return &reading, created, nil
}

// UpdateReading rewrites every field of an existing reading. Moving it onto a
// (day, order) slot held by another reading is rejected.
func (uc *UseCase) UpdateReading(ctx context.Context, id uint, input ReadingInput) (*Reading, error) {
	valid, err := input.validate()
	if err != nil {
		return nil, err
	}

	var updated ports.TideReadingData
	var previousYear int
	err = uc.repo.WithinTransaction(ctx, func(tx ports.TideRepository) error {
		existing, err := tx.FindReadingByID(ctx, id)
		if err != nil {
			return err
		}
		previousYear = existing.Date.Year()

		day, _, err := tx.EnsureDay(ctx, valid.date, valid.weekday)
		if err != nil {
			return err
		}

		siblings, err := tx.ListReadings(ctx, ports.ReadingQuery{Date: &day.Date})
		if err != nil {
			return err
		}
		for _, s := range siblings {
			if s.ID != id && s.Order == valid.order {
				return errors.NewAlreadyExistsError(fmt.Sprintf(
					"reading %d already exists for %s", valid.order, day.Date.Format(validation.ISODateLayout)))
			}
		}

		updated = ports.TideReadingData{
			ID:     id,
			DayID:  day.ID,
			Date:   day.Date,
			Order:  valid.order,
			Time:   valid.time.String(),
			Height: valid.height,
		}
		return tx.UpdateReading(ctx, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("update reading %d: %w", id, err)
	}

	uc.InvalidateYear(ctx, previousYear)
	if valid.date.Year() != previousYear {
		uc.InvalidateYear(ctx, valid.date.Year())
	}

	reading := readingFromData(updated)
	return &reading, nil
}

// PatchReading applies the non-nil fields of patch on top of the stored reading
func (uc *UseCase) PatchReading(ctx context.Context, id uint, patch ReadingPatch) (*Reading, error) {
	existing, err := uc.repo.FindReadingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input := ReadingInput{
		Date:   existing.Date.Format(validation.ISODateLayout),
		Order:  existing.Order,
		Time:   existing.Time,
		Height: existing.Height,
	}
	if patch.Date != nil {
		input.Date = *patch.Date
	}
	if patch.Weekday != nil {
		input.Weekday = *patch.Weekday
	}
	if patch.Order != nil {
		input.Order = *patch.Order
	}
	if patch.Time != nil {
		input.Time = *patch.Time
	}
	if patch.Height != nil {
		input.Height = *patch.Height
	}

	return uc.UpdateReading(ctx, id, input)
}

func (uc *UseCase) DeleteReading(ctx context.Context, id uint) error {
	existing, err := uc.repo.FindReadingByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.DeleteReading(ctx, id); err != nil {
		return fmt.Errorf("delete reading %d: %w", id, err)
	}

	uc.InvalidateYear(ctx, existing.Date.Year())
	return nil
}

// YearCacheKey is the cache key holding every day of year
func YearCacheKey(year int) string {
	return fmt.Sprintf("tides:year:%d", year)
}

// YearDays returns every stored day of year, served from the calendar cache
// when it is enabled. Cache failures fall back to the repository.
func (uc *UseCase) YearDays(ctx context.Context, year int) ([]*Day, error) {
	cacheCfg := uc.config.GetCacheConfig()
	if !cacheCfg.Enabled {
		return uc.loadYear(ctx, year)
	}

	key := YearCacheKey(year)
	if cached, err := uc.cache.Get(ctx, key); err == nil {
		var days []*Day
		if jsonErr := json.Unmarshal(cached, &days); jsonErr == nil {
			uc.metrics.RecordCacheHit(uc.cache.Name())
			uc.logger.Debug("Year found in cache", ports.F("year", year))
			return days, nil
		}
		uc.logger.Warn("Discarding undecodable cache entry", ports.F("key", key))
	} else if !errors.IsNotFoundError(err) {
		uc.logger.Warn("Calendar cache read failed", ports.F("key", key), ports.F("error", err))
	}
	uc.metrics.RecordCacheMiss(uc.cache.Name())

	days, err := uc.loadYear(ctx, year)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(days)
	if err != nil {
		uc.logger.Warn("Failed to encode year for cache", ports.F("year", year), ports.F("error", err))
		return days, nil
	}
	if err := uc.cache.Set(ctx, key, payload, cacheCfg.TTL); err != nil {
		uc.logger.Warn("Failed to cache year", ports.F("year", year), ports.F("error", err))
	}

	return days, nil
}

func (uc *UseCase) loadYear(ctx context.Context, year int) ([]*Day, error) {
	data, err := uc.repo.ListDays(ctx, ports.DayQuery{Year: year})
	if err != nil {
		return nil, fmt.Errorf("load year %d: %w", year, err)
	}
	return daysFromData(data), nil
}

// InvalidateYear drops the cached calendar for year
func (uc *UseCase) InvalidateYear(ctx context.Context, year int) {
	if !uc.config.GetCacheConfig().Enabled {
		return
	}
	if err := uc.cache.Delete(ctx, YearCacheKey(year)); err != nil {
		uc.logger.Warn("Failed to invalidate calendar cache", ports.F("year", year), ports.F("error", err))
	}
}

func daysFromData(data []*ports.TideDayData) []*Day {
	days := make([]*Day, len(data))
	for i, d := range data {
		days[i] = dayFromData(d)
	}
	return days
}

func dayFromData(data *ports.TideDayData) *Day {
	day := &Day{
		ID:       data.ID,
		Date:     Truncate(data.Date),
		Weekday:  data.Weekday,
		Readings: make([]Reading, 0, len(data.Readings)),
	}
	for _, r := range data.Readings {
		day.Readings = append(day.Readings, readingFromData(r))
	}
	return day
}

func readingFromData(data ports.TideReadingData) Reading {
	tod, _ := ParseTimeOfDay(data.Time)
	return Reading{
		ID:     data.ID,
		DayID:  data.DayID,
		Date:   Truncate(data.Date),
		Order:  data.Order,
		Time:   tod,
		Height: data.Height,
	}
}
