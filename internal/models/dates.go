package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned when a value cannot be read as a timestamp.
var ErrInvalidTime = errors.New("invalid date")

// maxEpochMillis is 100,000,000 days either side of the Unix epoch.
const maxEpochMillis = 8.64e15

// inRange reports whether t can be stored and serialized: years 1 through 9999.
func inRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

// Layouts without a zone are read in the caller's location.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads s as RFC 3339 or as one of the zone-less layouts in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTime
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return checked(t, s)
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return checked(t, s)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

func checked(t time.Time, input string) (time.Time, error) {
	if !inRange(t) {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrInvalidTime, input)
	}
	return t, nil
}

// ParseTimeJSON reads a JSON string (see ParseTime) or a JSON number of
// milliseconds since the Unix epoch.
func ParseTimeJSON(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, ErrInvalidTime
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, ErrInvalidTime
		}
		return ParseTime(s, loc)
	}
	ms, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTime, raw)
	}
	return checked(time.UnixMilli(int64(ms)).In(loc), string(raw))
}

// StartOfDay truncates t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// MonthRange returns the first and last instants of t's month in loc.
func MonthRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// FilterBetween keeps the dates d with start <= d <= end, preserving order.
func FilterBetween(dates []time.Time, start, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// NormalizeDates converts stored completion values to timestamps. Older
// documents may hold serialized strings instead of native timestamps.
// Values that cannot be read are returned unchanged in unreadable so callers
// can write them back instead of losing them.
func NormalizeDates(values []interface{}, loc *time.Location) (dates []time.Time, unreadable []interface{}) {
	dates = make([]time.Time, 0, len(values))
	for _, v := range values {
		switch d := v.(type) {
		case time.Time:
			dates = append(dates, d)
			continue
		case *time.Time:
			if d != nil {
				dates = append(dates, *d)
				continue
			}
		case string:
			if t, err := ParseTime(d, loc); err == nil {
				dates = append(dates, t)
				continue
			}
			if t, err := time.Parse(jsDateLayout, jsDateTrim(d)); err == nil {
				dates = append(dates, t)
				continue
			}
		}
		unreadable = append(unreadable, v)
	}
	return dates, unreadable
}

// jsDateLayout matches Date.prototype.toString output with the zone name removed,
// e.g. "Mon Mar 04 2024 00:00:00 GMT-0300".
const jsDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

func jsDateTrim(s string) string {
	if i := strings.Index(s, " ("); i > 0 {
		return s[:i]
	}
	return s
}
