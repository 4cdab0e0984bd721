package models

import (
	"time"
)

// FocusTime is a recorded block of focused work. Duration is in whole minutes.
type FocusTime struct {
	ID        string    `firestore:"id" json:"id"`
	TimeFrom  time.Time `firestore:"timeFrom" json:"timeFrom"`
	TimeTo    time.Time `firestore:"timeTo" json:"timeTo"`
	Duration  int       `firestore:"duration" json:"duration"`
	UserID    string    `firestore:"userId" json:"userId"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DurationMinutes is the number of whole minutes from..to, never negative.
func DurationMinutes(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// DailyFocusMetrics aggregates the sessions started on one calendar day.
type DailyFocusMetrics struct {
	Date            time.Time `json:"date"`
	TotalDuration   int       `json:"totalDuration"`
	SessionsCount   int       `json:"sessionsCount"`
	LongestSession  int       `json:"longestSession"`
	ShortestSession int       `json:"shortestSession"`
}

// MonthlyFocusMetrics aggregates every session of a month.
type MonthlyFocusMetrics struct {
	TotalMonthDuration     int     `json:"totalMonthDuration"`
	TotalSessions          int     `json:"totalSessions"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
}

// FocusTimeMetrics is the response of the monthly metrics query.
type FocusTimeMetrics struct {
	DailyMetrics   []DailyFocusMetrics `json:"dailyMetrics"`
	MonthlyMetrics MonthlyFocusMetrics `json:"monthlyMetrics"`
}
