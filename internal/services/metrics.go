package services

import (
	"sort"
	"time"

	"github.com/ytakahashi/habits-api/internal/models"
)

// AggregateFocusTimes groups sessions by the calendar day (in loc) of their
// start and computes the per-day and whole-set rollups. Days are returned in
// chronological order; an empty input yields zero totals and no days.
func AggregateFocusTimes(sessions []*models.FocusTime, loc *time.Location) models.FocusTimeMetrics {
	daily := []models.DailyFocusMetrics{}
	index := make(map[string]int)

	var total, count int
	for _, s := range sessions {
		day := models.StartOfDay(s.TimeFrom, loc)
		key := day.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(daily)
			index[key] = i
			daily = append(daily, models.DailyFocusMetrics{
				Date:            day,
				LongestSession:  s.Duration,
				ShortestSession: s.Duration,
			})
		}

		d := &daily[i]
		d.TotalDuration += s.Duration
		d.SessionsCount++
		if s.Duration > d.LongestSession {
			d.LongestSession = s.Duration
		}
		if s.Duration < d.ShortestSession {
			d.ShortestSession = s.Duration
		}

		total += s.Duration
		count++
	}

	sort.SliceStable(daily, func(i, j int) bool { return daily[i].Date.Before(daily[j].Date) })

	monthly := models.MonthlyFocusMetrics{TotalMonthDuration: total, TotalSessions: count}
	if count > 0 {
		monthly.AverageSessionDuration = float64(total) / float64(count)
	}
	return models.FocusTimeMetrics{DailyMetrics: daily, MonthlyMetrics: monthly}
}
