package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const weekdayKey = "DIA"

// Slot is one raw MAREn record. Height is nil when the field is missing.
type Slot struct {
	Time   string
	Height *float64
	// Invalid is set when the record is present but unusable as an object
	// or its height is not numeric.
	Invalid bool
}

// DayEntry is one raw day of a month block, keyed as in the source
type DayEntry struct {
	Key     string
	Weekday string
	Slots   [4]*Slot
}

// MonthData is a decoded month block
type MonthData struct {
	Name string
	Days []DayEntry
}

// DecodeBlock parses a repaired block as one strict JSON object of day
// objects. Days come back ordered by numeric key, non-numeric keys last.
func DecodeBlock(b Block) (MonthData, error) {
	dec := json.NewDecoder(strings.NewReader(b.Text))
	dec.UseNumber()

	var raw map[string]map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return MonthData{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return MonthData{}, fmt.Errorf("unexpected data after month object")
	}

	month := MonthData{Name: b.Name, Days: make([]DayEntry, 0, len(raw))}
	for key, payload := range raw {
		month.Days = append(month.Days, decodeDay(key, payload))
	}
	sort.SliceStable(month.Days, func(i, j int) bool {
		return dayKeyLess(month.Days[i].Key, month.Days[j].Key)
	})
	return month, nil
}

func dayKeyLess(a, b string) bool {
	ai, errA := strconv.Atoi(strings.TrimSpace(a))
	bi, errB := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func decodeDay(key string, payload map[string]interface{}) DayEntry {
	entry := DayEntry{Key: key}
	if payload == nil {
		return entry
	}
	entry.Weekday = strings.TrimSpace(scalarText(payload[weekdayKey]))

	for n := 1; n <= len(entry.Slots); n++ {
		value, ok := payload[fmt.Sprintf("MARE%d", n)]
		if !ok {
			continue
		}
		entry.Slots[n-1] = decodeSlot(value)
	}
	return entry
}

func decodeSlot(value interface{}) *Slot {
	record, ok := value.(map[string]interface{})
	if !ok {
		return &Slot{Invalid: true}
	}

	slot := &Slot{Time: strings.TrimSpace(scalarText(record[TimeKey]))}
	switch h := record["Altura"].(type) {
	case nil:
	case json.Number:
		f, err := h.Float64()
		if err != nil {
			slot.Invalid = true
			break
		}
		slot.Height = &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			slot.Invalid = true
			break
		}
		slot.Height = &f
	default:
		slot.Invalid = true
	}
	return slot
}

// scalarText renders a JSON scalar the way it appeared in the source
func scalarText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
