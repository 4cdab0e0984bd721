package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/habits-api/internal/models"
)

func TestFocusTime_CreateDerivesDuration(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/api/v1/focus-time", aliceToken,
		`{"timeFrom":"2024-03-10T09:00:00Z","timeTo":"2024-03-10T09:25:59Z","duration":999}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ft := decodeData[models.FocusTime](t, resp)
	assert.Equal(t, 25, ft.Duration)
	assert.Equal(t, "alice", ft.UserID)

	// epoch milliseconds are accepted too
	rec, resp = s.do(t, http.MethodPost, "/focus-time", aliceToken,
		`{"timeFrom":1710061200000,"timeTo":1710064800000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 60, decodeData[models.FocusTime](t, resp).Duration)
}

func TestFocusTime_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"missing both":   `{}`,
		"bad timeFrom":   `{"timeFrom":"later","timeTo":"2024-03-10T09:25:00Z"}`,
		"timeTo before":  `{"timeFrom":"2024-03-10T10:00:00Z","timeTo":"2024-03-10T09:00:00Z"}`,
		"timeTo equal":   `{"timeFrom":"2024-03-10T10:00:00Z","timeTo":"2024-03-10T10:00:00Z"}`,
		"malformed JSON": `{"timeFrom":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, resp := s.do(t, http.MethodPost, "/api/v1/focus-time", aliceToken, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
		})
	}
}

func TestFocusTime_OutOfRangeEpochRejected(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"timeFrom":0,"timeTo":9000000000000000000}`,
		`{"timeFrom":-9e18,"timeTo":0}`,
		`{"timeFrom":"2024-03-10T09:00:00Z","timeTo":"10000-01-01T00:00:00Z"}`,
	} {
		rec, resp := s.do(t, http.MethodPost, "/api/v1/focus-time", aliceToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.NotNil(t, resp.Error, body)
	}

	// nothing unreadable was stored, so listing still works
	rec, resp := s.do(t, http.MethodGet, "/api/v1/focus-time", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestFocusTime_IndexOrderedAndScoped(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{
		`{"timeFrom":"2024-03-12T09:00:00Z","timeTo":"2024-03-12T10:00:00Z"}`,
		`{"timeFrom":"2024-03-10T09:00:00Z","timeTo":"2024-03-10T10:00:00Z"}`,
	} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/focus-time", aliceToken, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp := s.do(t, http.MethodGet, "/api/v1/focus-time", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decodeData[[]models.FocusTime](t, resp)
	require.Len(t, sessions, 2)
	assert.Equal(t, 10, sessions[0].TimeFrom.Day())
	assert.Equal(t, 12, sessions[1].TimeFrom.Day())

	rec, resp = s.do(t, http.MethodGet, "/api/v1/focus-time", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestFocusTime_MetricsByMonth(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/focus-time/metrics/month?date=2024-03-01", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"dailyMetrics": [],
		"monthlyMetrics": {"totalMonthDuration": 0, "totalSessions": 0, "averageSessionDuration": 0}
	}`, string(resp.Data))

	for _, body := range []string{
		`{"timeFrom":"2024-03-01T00:00:00Z","timeTo":"2024-03-01T00:30:00Z"}`,
		`{"timeFrom":"2024-03-01T08:00:00Z","timeTo":"2024-03-01T08:10:00Z"}`,
		`{"timeFrom":"2024-03-31T23:00:00Z","timeTo":"2024-03-31T23:20:00Z"}`,
		`{"timeFrom":"2024-04-01T00:00:00Z","timeTo":"2024-04-01T05:00:00Z"}`,
	} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/focus-time", aliceToken, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp = s.do(t, http.MethodGet, "/focus-time/metrics/month?date=2024-03-20", aliceToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeData[models.FocusTimeMetrics](t, resp)
	require.Len(t, m.DailyMetrics, 2)
	assert.Equal(t, 1, m.DailyMetrics[0].Date.Day())
	assert.Equal(t, 40, m.DailyMetrics[0].TotalDuration)
	assert.Equal(t, 2, m.DailyMetrics[0].SessionsCount)
	assert.Equal(t, 30, m.DailyMetrics[0].LongestSession)
	assert.Equal(t, 10, m.DailyMetrics[0].ShortestSession)
	assert.Equal(t, 31, m.DailyMetrics[1].Date.Day())
	assert.Equal(t, 60, m.MonthlyMetrics.TotalMonthDuration)
	assert.Equal(t, 3, m.MonthlyMetrics.TotalSessions)
	assert.InDelta(t, 20.0, m.MonthlyMetrics.AverageSessionDuration, 1e-9)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/focus-time/metrics/month?date=march", aliceToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
