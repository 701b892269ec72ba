// Package legacy migrates the old banco.js tide tables into the relational store.
package legacy

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mares.app/internal/core/tide"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

// DefaultPath is where the legacy site kept its data file
const DefaultPath = "mare/mare/oldProj/banco.js"

type Importer struct {
	repo    ports.TideRepository
	cache   ports.CacheProvider
	logger  ports.Logger
	metrics ports.MetricsCollector
}

type ImporterDependencies struct {
	Repository ports.TideRepository
	Cache      ports.CacheProvider
	Logger     ports.Logger
	Metrics    ports.MetricsCollector
}

func NewImporter(deps ImporterDependencies) (*Importer, error) {
	if deps.Repository == nil {
		return nil, errors.NewValidationError("tide repository is required")
	}
	if deps.Cache == nil {
		return nil, errors.NewValidationError("cache is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	return &Importer{
		repo:    deps.Repository,
		cache:   deps.Cache,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}, nil
}

// Options selects the target year and whether to wipe it first
type Options struct {
	Year     int
	Truncate bool
}

// Result summarizes one import run
type Result struct {
	Months          int
	DaysCreated     int
	ReadingsCreated int
	ReadingsUpdated int
	DaysDeleted     int64
	Warnings        []string
}

type validSlot struct {
	order  int
	time   tide.TimeOfDay
	height float64
}

// ImportFile reads path and imports it. See Import.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewValidationError("file not found: " + path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return im.Import(ctx, raw, opts)
}

// Import parses raw legacy source and writes its days and readings for
// opts.Year in a single transaction. Malformed JSON in a known month or an
// impossible date aborts the run with nothing written. Unknown months, bad
// day keys and unusable reading slots are skipped with a warning.
func (im *Importer) Import(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	if opts.Year < 1 || opts.Year > 9999 {
		return nil, errors.NewValidationError("year must be between 1 and 9999")
	}

	result, err := im.run(ctx, raw, opts)
	if err != nil {
		im.metrics.RecordImportFailure(opts.Year)
		im.logger.Error("Import failed", ports.F("year", opts.Year), ports.F("error", err))
		return nil, err
	}

	if err := im.cache.Delete(ctx, tide.YearCacheKey(opts.Year)); err != nil {
		im.logger.Warn("Failed to invalidate calendar cache", ports.F("year", opts.Year), ports.F("error", err))
	}
	im.metrics.RecordImport(opts.Year, result.DaysCreated, result.ReadingsCreated, len(result.Warnings))
	im.logger.Info("Import finished",
		ports.F("year", opts.Year),
		ports.F("months", result.Months),
		ports.F("days_created", result.DaysCreated),
		ports.F("readings_created", result.ReadingsCreated),
		ports.F("warnings", len(result.Warnings)))

	return result, nil
}

func (im *Importer) run(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	blocks := Parse(raw)
	if len(blocks) == 0 {
		return nil, errors.NewParseError("no month blocks found", nil)
	}

	result := &Result{}
	type resolvedMonth struct {
		number time.Month
		data   MonthData
	}

	// Decode everything before opening the transaction
	months := make([]resolvedMonth, 0, len(blocks))
	for _, b := range blocks {
		number, ok := MonthNumber(b.Name)
		if !ok {
			im.warn(result, fmt.Sprintf("skipping unknown month %q", b.Name))
			continue
		}
		data, err := DecodeBlock(b)
		if err != nil {
			return nil, errors.NewParseError(fmt.Sprintf("failed to decode month %s", b.Name), err)
		}
		months = append(months, resolvedMonth{number: number, data: data})
	}
	result.Months = len(months)

	err := im.repo.WithinTransaction(ctx, func(tx ports.TideRepository) error {
		if opts.Truncate {
			deleted, err := tx.DeleteYear(ctx, opts.Year)
			if err != nil {
				return err
			}
			result.DaysDeleted = deleted
			im.logger.Info("Truncated year before import", ports.F("year", opts.Year), ports.F("days", deleted))
		}

		for _, m := range months {
			for _, entry := range m.data.Days {
				if err := im.importDay(ctx, tx, opts.Year, m.number, m.data.Name, entry, result); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import year %d: %w", opts.Year, err)
	}

	return result, nil
}

func (im *Importer) importDay(ctx context.Context, tx ports.TideRepository, year int, month time.Month,
	monthName string, entry DayEntry, result *Result) error {
	dayNumber, err := strconv.Atoi(strings.TrimSpace(entry.Key))
	if err != nil {
		im.warn(result, fmt.Sprintf("skipping invalid day %q in %s", entry.Key, monthName))
		return nil
	}

	date, err := tide.NewDate(year, month, dayNumber)
	if err != nil {
		return errors.NewParseError(fmt.Sprintf("month %s day %d", monthName, dayNumber), err)
	}

	weekday, ok := tide.ClipWeekday(entry.Weekday)
	if !ok {
		im.warn(result, fmt.Sprintf("weekday %q of %s cut to %q", entry.Weekday, date.Format("2006-01-02"), weekday))
	}

	day, created, err := tx.EnsureDay(ctx, date, weekday)
	if err != nil {
		return err
	}
	if created {
		result.DaysCreated++
	}

	for i, raw := range entry.Slots {
		if raw == nil {
			continue
		}
		slot, ok := validateSlot(i+1, raw)
		if !ok {
			im.warn(result, fmt.Sprintf("skipping MARE%d of %s in %s", i+1, date.Format("2006-01-02"), monthName))
			continue
		}

		reading := &ports.TideReadingData{
			DayID:  day.ID,
			Date:   day.Date,
			Order:  slot.order,
			Time:   slot.time.String(),
			Height: slot.height,
		}
		readingCreated, err := tx.UpsertReading(ctx, reading)
		if err != nil {
			return err
		}
		if readingCreated {
			result.ReadingsCreated++
		} else {
			result.ReadingsUpdated++
		}
	}
	return nil
}

// validateSlot requires a four digit HHMM time and a height
func validateSlot(order int, raw *Slot) (validSlot, bool) {
	if raw.Invalid || raw.Height == nil || len(raw.Time) != 4 {
		return validSlot{}, false
	}
	for _, c := range raw.Time {
		if c < '0' || c > '9' {
			return validSlot{}, false
		}
	}

	hour, _ := strconv.Atoi(raw.Time[:2])
	minute, _ := strconv.Atoi(raw.Time[2:])
	tod, err := tide.NewTimeOfDay(hour, minute)
	if err != nil {
		return validSlot{}, false
	}
	if !tide.IsValidHeight(*raw.Height) {
		return validSlot{}, false
	}

	return validSlot{order: order, time: tod, height: tide.RoundHeight(*raw.Height)}, true
}

func (im *Importer) warn(result *Result, msg string) {
	result.Warnings = append(result.Warnings, msg)
	im.logger.Warn(msg)
}
