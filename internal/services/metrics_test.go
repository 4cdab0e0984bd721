package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/habits-api/internal/models"
)

func session(from time.Time, minutes int) *models.FocusTime {
	return &models.FocusTime{
		TimeFrom: from,
		TimeTo:   from.Add(time.Duration(minutes) * time.Minute),
		Duration: minutes,
	}
}

func TestAggregateFocusTimes_Empty(t *testing.T) {
	got := AggregateFocusTimes(nil, time.UTC)
	assert.NotNil(t, got.DailyMetrics)
	assert.Empty(t, got.DailyMetrics)
	assert.Equal(t, models.MonthlyFocusMetrics{}, got.MonthlyMetrics)
}

func TestAggregateFocusTimes_GroupsByDay(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	got := AggregateFocusTimes([]*models.FocusTime{
		session(d2, 10),
		session(d1, 25),
		session(d1.Add(3*time.Hour), 50),
		session(d1.Add(6*time.Hour), 5),
	}, time.UTC)

	require.Len(t, got.DailyMetrics, 2)
	assert.Equal(t, models.DailyFocusMetrics{
		Date:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalDuration:   80,
		SessionsCount:   3,
		LongestSession:  50,
		ShortestSession: 5,
	}, got.DailyMetrics[0])
	assert.Equal(t, models.DailyFocusMetrics{
		Date:            time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TotalDuration:   10,
		SessionsCount:   1,
		LongestSession:  10,
		ShortestSession: 10,
	}, got.DailyMetrics[1])

	assert.Equal(t, 90, got.MonthlyMetrics.TotalMonthDuration)
	assert.Equal(t, 4, got.MonthlyMetrics.TotalSessions)
	assert.InDelta(t, 22.5, got.MonthlyMetrics.AverageSessionDuration, 1e-9)
}

func TestAggregateFocusTimes_DayInLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	// 02:00 UTC on the 2nd is 23:00 on the 1st in UTC-3.
	got := AggregateFocusTimes([]*models.FocusTime{
		session(time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC), 30),
	}, brt)

	require.Len(t, got.DailyMetrics, 1)
	assert.Equal(t, 1, got.DailyMetrics[0].Date.Day())
}
