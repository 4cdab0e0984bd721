package models

import (
	"time"
)

// Habit is a recurring activity tracked by calendar-day completion marks.
type Habit struct {
	ID             string      `firestore:"id" json:"id"`
	Name           string      `firestore:"name" json:"name"`
	CompletedDates []time.Time `firestore:"completedDates" json:"completedDates"`
	UserID         string      `firestore:"userId" json:"userId"`
	Frequency      string      `firestore:"frequency,omitempty" json:"frequency,omitempty"`
	StartDate      *time.Time  `firestore:"startDate,omitempty" json:"startDate,omitempty"`
	Description    string      `firestore:"description,omitempty" json:"description,omitempty"`
	CreatedAt      time.Time   `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `firestore:"updatedAt" json:"updatedAt"`
}

// NewHabit holds the caller-supplied fields of a habit to create.
type NewHabit struct {
	Name        string
	Frequency   string
	StartDate   *time.Time
	Description string
}

// HabitMetrics is a habit's completions within one month.
type HabitMetrics struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	CompletedDates []time.Time `json:"completedDates"`
}

// ToggleDay removes every entry of dates falling on the same calendar day as
// day (in loc) or, when there is none, appends the start of that day.
// It reports whether the day was added.
func ToggleDay(dates []time.Time, day time.Time, loc *time.Location) ([]time.Time, bool) {
	today := StartOfDay(day, loc)
	kept := make([]time.Time, 0, len(dates)+1)
	found := false
	for _, d := range dates {
		if SameDay(d, today, loc) {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if found {
		return kept, false
	}
	return append(kept, today), true
}

// MetricsFor returns h's completions between start and end inclusive.
func (h *Habit) MetricsFor(start, end time.Time) HabitMetrics {
	return HabitMetrics{
		ID:             h.ID,
		Name:           h.Name,
		CompletedDates: FilterBetween(h.CompletedDates, start, end),
	}
}
