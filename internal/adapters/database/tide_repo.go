package database

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

// TideDayModel represents the database model for one calendar date
type TideDayModel struct {
	ID        uint               `gorm:"primaryKey"`
	Date      time.Time          `gorm:"type:date;uniqueIndex;not null"`
	Weekday   string             `gorm:"size:10;not null;default:''"`
	Readings  []TideReadingModel `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TideDayModel) TableName() string {
	return "tide_days"
}

// TideReadingModel represents the database model for one tide reading.
// Order is stored as "slot" since ORDER is reserved in SQL.
type TideReadingModel struct {
	ID     uint    `gorm:"primaryKey"`
	DayID  uint    `gorm:"not null;uniqueIndex:idx_tide_readings_day_slot"`
	Order  int     `gorm:"column:slot;not null;uniqueIndex:idx_tide_readings_day_slot"`
	Time   string  `gorm:"size:5;not null"`
	Height float64 `gorm:"type:decimal(5,2);not null"`
}

func (TideReadingModel) TableName() string {
	return "tide_readings"
}

// Models lists every table owned by this package, in migration order
func Models() []interface{} {
	return []interface{}{&TideDayModel{}, &TideReadingModel{}}
}

// TideRepositoryAdapter implements the TideRepository port using GORM
type TideRepositoryAdapter struct {
	db *gorm.DB
}

// NewTideRepositoryAdapter creates a new tide repository adapter
func NewTideRepositoryAdapter(db *gorm.DB) ports.TideRepository {
	return &TideRepositoryAdapter{db: db}
}

// ListDays returns matching days in ascending date order with readings by slot
func (r *TideRepositoryAdapter) ListDays(ctx context.Context, query ports.DayQuery) ([]*ports.TideDayData, error) {
	db := r.db.WithContext(ctx).Preload("Readings", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot ASC")
	})

	if query.Date != nil {
		db = db.Where("date = ?", *query.Date)
	}
	if query.Start != nil {
		db = db.Where("date >= ?", *query.Start)
	}
	if query.End != nil {
		db = db.Where("date <= ?", *query.End)
	}
	if query.Year != 0 {
		start, end := yearBounds(query.Year)
		db = db.Where("date >= ? AND date < ?", start, end)
	}

	var models []TideDayModel
	if err := db.Order("date ASC").Find(&models).Error; err != nil {
		return nil, errors.NewDatabaseError("failed to list tide days", err)
	}

	days := make([]*ports.TideDayData, len(models))
	for i := range models {
		days[i] = r.dayModelToData(&models[i])
	}
	return days, nil
}

// FindDayByID retrieves a day with its readings
func (r *TideRepositoryAdapter) FindDayByID(ctx context.Context, id uint) (*ports.TideDayData, error) {
	if id == 0 {
		return nil, errors.NewValidationError("tide day ID cannot be zero")
	}
	return r.findDay(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindDayByDate retrieves the day stored for date with its readings
func (r *TideRepositoryAdapter) FindDayByDate(ctx context.Context, date time.Time) (*ports.TideDayData, error) {
	return r.findDay(r.db.WithContext(ctx).Where("date = ?", dateOnly(date)))
}

func (r *TideRepositoryAdapter) findDay(db *gorm.DB) (*ports.TideDayData, error) {
	var model TideDayModel
	result := db.Preload("Readings", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot ASC")
	}).First(&model)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("tide day not found")
		}
		return nil, errors.NewDatabaseError("failed to find tide day", result.Error)
	}
	return r.dayModelToData(&model), nil
}

// EnsureDay creates the day if needed and refreshes a changed weekday label
func (r *TideRepositoryAdapter) EnsureDay(ctx context.Context, date time.Time, weekday string) (*ports.TideDayData, bool, error) {
	date = dateOnly(date)
	model := TideDayModel{Date: date, Weekday: weekday}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return nil, false, errors.NewDatabaseError("failed to create tide day", result.Error)
	}
	if result.RowsAffected == 1 {
		return r.dayModelToData(&model), true, nil
	}

	existing, err := r.FindDayByDate(ctx, date)
	if err != nil {
		return nil, false, err
	}
	if weekday != "" && weekday != existing.Weekday {
		update := r.db.WithContext(ctx).Model(&TideDayModel{ID: existing.ID}).Update("weekday", weekday)
		if update.Error != nil {
			return nil, false, errors.NewDatabaseError("failed to update tide day weekday", update.Error)
		}
		existing.Weekday = weekday
	}
	return existing, false, nil
}

// ListReadings returns readings ordered by date then slot
func (r *TideRepositoryAdapter) ListReadings(ctx context.Context, query ports.ReadingQuery) ([]*ports.TideReadingData, error) {
	db := r.db.WithContext(ctx).Model(&TideReadingModel{}).
		Select("tide_readings.*").
		Joins("JOIN tide_days ON tide_days.id = tide_readings.day_id")
	if query.Date != nil {
		db = db.Where("tide_days.date = ?", dateOnly(*query.Date))
	}

	var models []TideReadingModel
	if err := db.Order("tide_days.date ASC").Order("tide_readings.slot ASC").Find(&models).Error; err != nil {
		return nil, errors.NewDatabaseError("failed to list tide readings", err)
	}

	return r.readingModelsToData(ctx, models)
}

// FindReadingByID retrieves one reading with its parent date
func (r *TideRepositoryAdapter) FindReadingByID(ctx context.Context, id uint) (*ports.TideReadingData, error) {
	if id == 0 {
		return nil, errors.NewValidationError("tide reading ID cannot be zero")
	}

	var model TideReadingModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("tide reading not found")
		}
		return nil, errors.NewDatabaseError("failed to find tide reading", result.Error)
	}

	readings, err := r.readingModelsToData(ctx, []TideReadingModel{model})
	if err != nil {
		return nil, err
	}
	return readings[0], nil
}

// UpsertReading writes time and height for the reading's (day, slot) key
func (r *TideRepositoryAdapter) UpsertReading(ctx context.Context, reading *ports.TideReadingData) (bool, error) {
	if reading == nil {
		return false, errors.NewValidationError("tide reading cannot be nil")
	}
	if reading.DayID == 0 {
		return false, errors.NewValidationError("tide reading needs a day")
	}

	var existing TideReadingModel
	result := r.db.WithContext(ctx).
		Where("day_id = ? AND slot = ?", reading.DayID, reading.Order).
		Limit(1).
		Find(&existing)
	if result.Error != nil {
		return false, errors.NewDatabaseError("failed to find tide reading", result.Error)
	}

	if result.RowsAffected == 0 {
		model := r.readingDataToModel(reading)
		model.ID = 0
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return false, r.writeError("failed to create tide reading", err)
		}
		reading.ID = model.ID
		return true, nil
	}

	update := r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"time":   reading.Time,
		"height": reading.Height,
	})
	if update.Error != nil {
		return false, errors.NewDatabaseError("failed to update tide reading", update.Error)
	}
	reading.ID = existing.ID
	return false, nil
}

// UpdateReading rewrites every column of an existing reading
func (r *TideRepositoryAdapter) UpdateReading(ctx context.Context, reading *ports.TideReadingData) error {
	if reading == nil {
		return errors.NewValidationError("tide reading cannot be nil")
	}
	if reading.ID == 0 {
		return errors.NewValidationError("tide reading ID cannot be zero for update")
	}

	result := r.db.WithContext(ctx).Model(&TideReadingModel{ID: reading.ID}).Updates(map[string]interface{}{
		"day_id": reading.DayID,
		"slot":   reading.Order,
		"time":   reading.Time,
		"height": reading.Height,
	})
	if result.Error != nil {
		return r.writeError("failed to update tide reading", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("tide reading not found")
	}
	return nil
}

// DeleteReading removes one reading
func (r *TideRepositoryAdapter) DeleteReading(ctx context.Context, id uint) error {
	if id == 0 {
		return errors.NewValidationError("tide reading ID cannot be zero for delete")
	}

	result := r.db.WithContext(ctx).Delete(&TideReadingModel{}, id)
	if result.Error != nil {
		return errors.NewDatabaseError("failed to delete tide reading", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("tide reading not found")
	}
	return nil
}

// DeleteYear removes the days of year. Readings are deleted explicitly so the
// result does not depend on the driver enforcing the cascade.
func (r *TideRepositoryAdapter) DeleteYear(ctx context.Context, year int) (int64, error) {
	start, end := yearBounds(year)
	dayIDs := r.db.WithContext(ctx).Model(&TideDayModel{}).
		Select("id").
		Where("date >= ? AND date < ?", start, end)

	if err := r.db.WithContext(ctx).Where("day_id IN (?)", dayIDs).Delete(&TideReadingModel{}).Error; err != nil {
		return 0, errors.NewDatabaseError("failed to delete tide readings", err)
	}

	result := r.db.WithContext(ctx).Where("date >= ? AND date < ?", start, end).Delete(&TideDayModel{})
	if result.Error != nil {
		return 0, errors.NewDatabaseError("failed to delete tide days", result.Error)
	}
	return result.RowsAffected, nil
}

// WithinTransaction runs fn with a repository bound to a single transaction
func (r *TideRepositoryAdapter) WithinTransaction(ctx context.Context, fn func(repo ports.TideRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TideRepositoryAdapter{db: tx})
	})
}

func (r *TideRepositoryAdapter) writeError(msg string, err error) error {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.NewAlreadyExistsError("a reading already exists for this day and order")
	}
	return errors.NewDatabaseError(msg, err)
}

// readingModelsToData attaches each reading's parent date
func (r *TideRepositoryAdapter) readingModelsToData(ctx context.Context, models []TideReadingModel) ([]*ports.TideReadingData, error) {
	readings := make([]*ports.TideReadingData, len(models))
	if len(models) == 0 {
		return readings, nil
	}

	ids := make([]uint, 0, len(models))
	seen := make(map[uint]bool, len(models))
	for _, m := range models {
		if !seen[m.DayID] {
			seen[m.DayID] = true
			ids = append(ids, m.DayID)
		}
	}

	var days []TideDayModel
	if err := r.db.WithContext(ctx).Select("id", "date").Where("id IN ?", ids).Find(&days).Error; err != nil {
		return nil, errors.NewDatabaseError("failed to load tide days", err)
	}
	dates := make(map[uint]time.Time, len(days))
	for _, d := range days {
		dates[d.ID] = dateOnly(d.Date)
	}

	for i := range models {
		readings[i] = r.readingModelToData(&models[i], dates[models[i].DayID])
	}
	return readings, nil
}

func (r *TideRepositoryAdapter) readingDataToModel(data *ports.TideReadingData) *TideReadingModel {
	return &TideReadingModel{
		ID:     data.ID,
		DayID:  data.DayID,
		Order:  data.Order,
		Time:   data.Time,
		Height: data.Height,
	}
}

func (r *TideRepositoryAdapter) readingModelToData(model *TideReadingModel, date time.Time) *ports.TideReadingData {
	return &ports.TideReadingData{
		ID:     model.ID,
		DayID:  model.DayID,
		Date:   date,
		Order:  model.Order,
		Time:   model.Time,
		Height: model.Height,
	}
}

func (r *TideRepositoryAdapter) dayModelToData(model *TideDayModel) *ports.TideDayData {
	date := dateOnly(model.Date)
	data := &ports.TideDayData{
		ID:        model.ID,
		Date:      date,
		Weekday:   model.Weekday,
		Readings:  make([]ports.TideReadingData, 0, len(model.Readings)),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	for i := range model.Readings {
		data.Readings = append(data.Readings, *r.readingModelToData(&model.Readings[i], date))
	}
	return data
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func yearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}
