package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(Models()...))

	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ensureDay(t *testing.T, repo ports.TideRepository, d time.Time, weekday string) *ports.TideDayData {
	day, _, err := repo.EnsureDay(context.Background(), d, weekday)
	require.NoError(t, err)
	return day
}

func upsert(t *testing.T, repo ports.TideRepository, day *ports.TideDayData, order int, clock string, height float64) *ports.TideReadingData {
	reading := &ports.TideReadingData{DayID: day.ID, Order: order, Time: clock, Height: height}
	_, err := repo.UpsertReading(context.Background(), reading)
	require.NoError(t, err)
	return reading
}

func TestTideRepository_EnsureDay(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()

	day, created, err := repo.EnsureDay(ctx, date(2025, time.January, 1), "Qua")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, day.ID)

	again, created, err := repo.EnsureDay(ctx, time.Date(2025, time.January, 1, 13, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, day.ID, again.ID)
	assert.Equal(t, "Qua", again.Weekday)

	renamed, created, err := repo.EnsureDay(ctx, date(2025, time.January, 1), "quarta")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "quarta", renamed.Weekday)

	stored, err := repo.FindDayByID(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, "quarta", stored.Weekday)
	assert.Equal(t, date(2025, time.January, 1), stored.Date)
}

func TestTideRepository_UpsertReading(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()
	day := ensureDay(t, repo, date(2025, time.January, 1), "Qua")

	reading := &ports.TideReadingData{DayID: day.ID, Order: 1, Time: "01:30", Height: 1.2}
	created, err := repo.UpsertReading(ctx, reading)
	require.NoError(t, err)
	assert.True(t, created)
	firstID := reading.ID
	assert.NotZero(t, firstID)

	overwrite := &ports.TideReadingData{DayID: day.ID, Order: 1, Time: "02:00", Height: 0.9}
	created, err = repo.UpsertReading(ctx, overwrite)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstID, overwrite.ID)

	stored, err := repo.FindReadingByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, "02:00", stored.Time)
	assert.Equal(t, 0.9, stored.Height)
	assert.Equal(t, date(2025, time.January, 1), stored.Date)

	_, err = repo.UpsertReading(ctx, &ports.TideReadingData{Order: 1})
	assert.True(t, errors.IsValidationError(err))
}

func TestTideRepository_ListDays(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()

	for _, d := range []time.Time{
		date(2025, time.February, 1),
		date(2025, time.January, 31),
		date(2024, time.December, 31),
		date(2025, time.January, 1),
		date(2025, time.January, 15),
	} {
		ensureDay(t, repo, d, "")
	}
	jan15, err := repo.FindDayByDate(ctx, date(2025, time.January, 15))
	require.NoError(t, err)
	upsert(t, repo, jan15, 3, "14:00", 1.5)
	upsert(t, repo, jan15, 1, "01:30", 1.2)

	start, end := date(2025, time.January, 1), date(2025, time.January, 31)
	days, err := repo.ListDays(ctx, ports.DayQuery{Start: &start, End: &end})
	require.NoError(t, err)

	require.Len(t, days, 3)
	assert.Equal(t, date(2025, time.January, 1), days[0].Date)
	assert.Equal(t, date(2025, time.January, 15), days[1].Date)
	assert.Equal(t, date(2025, time.January, 31), days[2].Date)
	require.Len(t, days[1].Readings, 2)
	assert.Equal(t, 1, days[1].Readings[0].Order)
	assert.Equal(t, 3, days[1].Readings[1].Order)
	assert.Empty(t, days[0].Readings)

	exact := date(2025, time.February, 1)
	days, err = repo.ListDays(ctx, ports.DayQuery{Date: &exact})
	require.NoError(t, err)
	assert.Len(t, days, 1)

	days, err = repo.ListDays(ctx, ports.DayQuery{Year: 2024})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, date(2024, time.December, 31), days[0].Date)

	days, err = repo.ListDays(ctx, ports.DayQuery{})
	require.NoError(t, err)
	assert.Len(t, days, 5)
}

func TestTideRepository_FindDay_NotFound(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.FindDayByDate(ctx, date(2025, time.March, 3))
	assert.True(t, errors.IsNotFoundError(err))

	_, err = repo.FindDayByID(ctx, 99)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = repo.FindDayByID(ctx, 0)
	assert.True(t, errors.IsValidationError(err))
}

func TestTideRepository_ListReadings(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()
	jan2 := ensureDay(t, repo, date(2025, time.January, 2), "")
	jan1 := ensureDay(t, repo, date(2025, time.January, 1), "")
	upsert(t, repo, jan2, 1, "02:00", 1.1)
	upsert(t, repo, jan1, 2, "07:45", 0.3)
	upsert(t, repo, jan1, 1, "01:30", 1.2)

	all, err := repo.ListReadings(ctx, ports.ReadingQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, date(2025, time.January, 1), all[0].Date)
	assert.Equal(t, 1, all[0].Order)
	assert.Equal(t, 2, all[1].Order)
	assert.Equal(t, date(2025, time.January, 2), all[2].Date)

	d := date(2025, time.January, 2)
	filtered, err := repo.ListReadings(ctx, ports.ReadingQuery{Date: &d})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "02:00", filtered[0].Time)
}

func TestTideRepository_UpdateReading(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()
	jan1 := ensureDay(t, repo, date(2025, time.January, 1), "")
	jan2 := ensureDay(t, repo, date(2025, time.January, 2), "")
	reading := upsert(t, repo, jan1, 1, "01:30", 1.2)
	upsert(t, repo, jan2, 2, "08:00", 0.4)

	err := repo.UpdateReading(ctx, &ports.TideReadingData{
		ID: reading.ID, DayID: jan2.ID, Order: 3, Time: "15:00", Height: 1.7,
	})
	require.NoError(t, err)

	stored, err := repo.FindReadingByID(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, jan2.ID, stored.DayID)
	assert.Equal(t, date(2025, time.January, 2), stored.Date)
	assert.Equal(t, 3, stored.Order)

	err = repo.UpdateReading(ctx, &ports.TideReadingData{
		ID: reading.ID, DayID: jan2.ID, Order: 2, Time: "15:00", Height: 1.7,
	})
	assert.True(t, errors.IsAlreadyExistsError(err))

	err = repo.UpdateReading(ctx, &ports.TideReadingData{ID: 999, DayID: jan2.ID, Order: 4, Time: "15:00"})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTideRepository_DeleteReading(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()
	day := ensureDay(t, repo, date(2025, time.January, 1), "")
	reading := upsert(t, repo, day, 1, "01:30", 1.2)

	require.NoError(t, repo.DeleteReading(ctx, reading.ID))

	_, err := repo.FindReadingByID(ctx, reading.ID)
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, errors.IsNotFoundError(repo.DeleteReading(ctx, reading.ID)))
}

func TestTideRepository_DeleteYear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTideRepositoryAdapter(db)
	ctx := context.Background()

	jan1 := ensureDay(t, repo, date(2025, time.January, 1), "")
	dec31 := ensureDay(t, repo, date(2025, time.December, 31), "")
	keep := ensureDay(t, repo, date(2026, time.January, 1), "")
	upsert(t, repo, jan1, 1, "01:30", 1.2)
	upsert(t, repo, dec31, 1, "01:30", 1.2)
	upsert(t, repo, keep, 1, "01:30", 1.2)

	deleted, err := repo.DeleteYear(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var readings int64
	require.NoError(t, db.Model(&TideReadingModel{}).Count(&readings).Error)
	assert.Equal(t, int64(1), readings)

	days, err := repo.ListDays(ctx, ports.DayQuery{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, keep.ID, days[0].ID)
}

func TestTideRepository_CascadeDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTideRepositoryAdapter(db)
	day := ensureDay(t, repo, date(2025, time.January, 1), "")
	upsert(t, repo, day, 1, "01:30", 1.2)

	require.NoError(t, db.Delete(&TideDayModel{}, day.ID).Error)

	var readings int64
	require.NoError(t, db.Model(&TideReadingModel{}).Count(&readings).Error)
	assert.Zero(t, readings)
}

func TestTideRepository_WithinTransaction_Rollback(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	ctx := context.Background()

	err := repo.WithinTransaction(ctx, func(tx ports.TideRepository) error {
		day, _, err := tx.EnsureDay(ctx, date(2025, time.May, 1), "Qui")
		if err != nil {
			return err
		}
		if _, err := tx.UpsertReading(ctx, &ports.TideReadingData{DayID: day.ID, Order: 1, Time: "01:00", Height: 1}); err != nil {
			return err
		}
		return errors.NewParseError("boom", nil)
	})
	require.Error(t, err)

	days, err := repo.ListDays(ctx, ports.DayQuery{})
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestTideRepository_HeightPrecision(t *testing.T) {
	repo := NewTideRepositoryAdapter(setupTestDB(t))
	day := ensureDay(t, repo, date(2025, time.January, 1), "")
	reading := upsert(t, repo, day, 1, "01:30", -0.25)

	stored, err := repo.FindReadingByID(context.Background(), reading.ID)
	require.NoError(t, err)
	assert.Equal(t, -0.25, stored.Height)
}
