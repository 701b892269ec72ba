package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

// TideRepository keeps days and readings in memory. Transactions snapshot the
// whole store and restore it when fn fails.
type TideRepository struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	days          map[uint]*ports.TideDayData
	readings      map[uint]*ports.TideReadingData
	nextDayID     uint
	nextReadingID uint

	// FailOn makes the named method return Err
	FailOn string
	Err    error
}

func NewTideRepository() *TideRepository {
	return &TideRepository{
		days:     make(map[uint]*ports.TideDayData),
		readings: make(map[uint]*ports.TideReadingData),
	}
}

func (r *TideRepository) fail(method string) error {
	if r.FailOn == method {
		if r.Err != nil {
			return r.Err
		}
		return errors.NewDatabaseError("forced failure", nil)
	}
	return nil
}

func (r *TideRepository) ListDays(_ context.Context, q ports.DayQuery) ([]*ports.TideDayData, error) {
	if err := r.fail("ListDays"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ports.TideDayData
	for _, d := range r.days {
		if q.Date != nil && !d.Date.Equal(*q.Date) {
			continue
		}
		if q.Start != nil && d.Date.Before(*q.Start) {
			continue
		}
		if q.End != nil && d.Date.After(*q.End) {
			continue
		}
		if q.Year != 0 && d.Date.Year() != q.Year {
			continue
		}
		out = append(out, r.dayWithReadings(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *TideRepository) FindDayByID(_ context.Context, id uint) (*ports.TideDayData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.days[id]
	if !ok {
		return nil, errors.NewNotFoundError("tide day not found")
	}
	return r.dayWithReadings(d), nil
}

func (r *TideRepository) FindDayByDate(_ context.Context, date time.Time) (*ports.TideDayData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := r.dayByDate(date); d != nil {
		return r.dayWithReadings(d), nil
	}
	return nil, errors.NewNotFoundError("tide day not found")
}

func (r *TideRepository) EnsureDay(_ context.Context, date time.Time, weekday string) (*ports.TideDayData, bool, error) {
	if err := r.fail("EnsureDay"); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if d := r.dayByDate(date); d != nil {
		if weekday != "" && weekday != d.Weekday {
			d.Weekday = weekday
			d.UpdatedAt = time.Now()
		}
		return r.dayWithReadings(d), false, nil
	}

	r.nextDayID++
	now := time.Now()
	d := &ports.TideDayData{ID: r.nextDayID, Date: date, Weekday: weekday, CreatedAt: now, UpdatedAt: now}
	r.days[d.ID] = d
	return r.dayWithReadings(d), true, nil
}

func (r *TideRepository) ListReadings(_ context.Context, q ports.ReadingQuery) ([]*ports.TideReadingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ports.TideReadingData
	for _, rd := range r.readings {
		if q.Date != nil && !rd.Date.Equal(*q.Date) {
			continue
		}
		c := *rd
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (r *TideRepository) FindReadingByID(_ context.Context, id uint) (*ports.TideReadingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.readings[id]
	if !ok {
		return nil, errors.NewNotFoundError("tide reading not found")
	}
	c := *rd
	return &c, nil
}

func (r *TideRepository) UpsertReading(_ context.Context, reading *ports.TideReadingData) (bool, error) {
	if err := r.fail("UpsertReading"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rd := range r.readings {
		if rd.DayID == reading.DayID && rd.Order == reading.Order {
			rd.Time = reading.Time
			rd.Height = reading.Height
			reading.ID = rd.ID
			return false, nil
		}
	}

	r.nextReadingID++
	reading.ID = r.nextReadingID
	c := *reading
	c.Date = r.days[reading.DayID].Date
	r.readings[c.ID] = &c
	return true, nil
}

func (r *TideRepository) UpdateReading(_ context.Context, reading *ports.TideReadingData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readings[reading.ID]; !ok {
		return errors.NewNotFoundError("tide reading not found")
	}
	c := *reading
	c.Date = r.days[reading.DayID].Date
	r.readings[c.ID] = &c
	return nil
}

func (r *TideRepository) DeleteReading(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readings[id]; !ok {
		return errors.NewNotFoundError("tide reading not found")
	}
	delete(r.readings, id)
	return nil
}

func (r *TideRepository) DeleteYear(_ context.Context, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, d := range r.days {
		if d.Date.Year() != year {
			continue
		}
		for rid, rd := range r.readings {
			if rd.DayID == id {
				delete(r.readings, rid)
			}
		}
		delete(r.days, id)
		deleted++
	}
	return deleted, nil
}

func (r *TideRepository) WithinTransaction(_ context.Context, fn func(repo ports.TideRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snapshot := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

// DayCount returns the number of stored days
func (r *TideRepository) DayCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.days)
}

// ReadingCount returns the number of stored readings
func (r *TideRepository) ReadingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

type repoSnapshot struct {
	days          map[uint]ports.TideDayData
	readings      map[uint]ports.TideReadingData
	nextDayID     uint
	nextReadingID uint
}

func (r *TideRepository) snapshot() repoSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := repoSnapshot{
		days:          make(map[uint]ports.TideDayData, len(r.days)),
		readings:      make(map[uint]ports.TideReadingData, len(r.readings)),
		nextDayID:     r.nextDayID,
		nextReadingID: r.nextReadingID,
	}
	for id, d := range r.days {
		s.days[id] = *d
	}
	for id, rd := range r.readings {
		s.readings[id] = *rd
	}
	return s
}

func (r *TideRepository) restore(s repoSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = make(map[uint]*ports.TideDayData, len(s.days))
	for id, d := range s.days {
		d := d
		r.days[id] = &d
	}
	r.readings = make(map[uint]*ports.TideReadingData, len(s.readings))
	for id, rd := range s.readings {
		rd := rd
		r.readings[id] = &rd
	}
	r.nextDayID = s.nextDayID
	r.nextReadingID = s.nextReadingID
}

func (r *TideRepository) dayByDate(date time.Time) *ports.TideDayData {
	for _, d := range r.days {
		if d.Date.Equal(date) {
			return d
		}
	}
	return nil
}

func (r *TideRepository) dayWithReadings(d *ports.TideDayData) *ports.TideDayData {
	c := *d
	c.Readings = nil
	for _, rd := range r.readings {
		if rd.DayID == d.ID {
			c.Readings = append(c.Readings, *rd)
		}
	}
	sort.Slice(c.Readings, func(i, j int) bool { return c.Readings[i].Order < c.Readings[j].Order })
	return &c
}
