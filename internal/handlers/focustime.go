package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/apperror"
	"github.com/ytakahashi/habits-api/internal/models"
	"github.com/ytakahashi/habits-api/internal/services"
)

type FocusTimeHandler struct {
	sessions services.FocusTimeRepository
	loc      *time.Location
	logger   *logrus.Logger
}

func NewFocusTimeHandler(sessions services.FocusTimeRepository, loc *time.Location, logger *logrus.Logger) *FocusTimeHandler {
	return &FocusTimeHandler{
		sessions: sessions,
		loc:      loc,
		logger:   logger,
	}
}

// Timestamps are kept raw so both date strings and epoch milliseconds are accepted.
type createFocusTimeRequest struct {
	TimeFrom json.RawMessage `json:"timeFrom"`
	TimeTo   json.RawMessage `json:"timeTo"`
}

// Create handles POST /focus-time.
func (h *FocusTimeHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createFocusTimeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var issues []Issue
	from, err := models.ParseTimeJSON(req.TimeFrom, h.loc)
	if err != nil {
		issues = append(issues, Issue{Field: "timeFrom", Message: "timeFrom must be a valid date"})
	}
	to, err := models.ParseTimeJSON(req.TimeTo, h.loc)
	if err != nil {
		issues = append(issues, Issue{Field: "timeTo", Message: "timeTo must be a valid date"})
	}
	if len(issues) == 0 && !to.After(from) {
		issues = append(issues, Issue{Field: "timeTo", Message: "timeTo must be after timeFrom"})
	}
	if len(issues) > 0 {
		return apperror.Validation("Invalid focus time").WithDetails(issues)
	}

	session, err := h.sessions.CreateFocusTime(c.Request().Context(), userID, from, to)
	if err != nil {
		return apperror.Internal(err)
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"duration": session.Duration,
	}).Info("focus time recorded")
	return respond(c, http.StatusCreated, session)
}

// Index handles GET /focus-time.
func (h *FocusTimeHandler) Index(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sessions, err := h.sessions.ListFocusTimes(c.Request().Context(), userID)
	if err != nil {
		return apperror.Internal(err)
	}
	return respond(c, http.StatusOK, sessions)
}

// MetricsByMonth handles GET /focus-time/metrics/month?date=.
func (h *FocusTimeHandler) MetricsByMonth(c echo.Context) error {
	date, err := dateQuery(c, h.loc)
	if err != nil {
		return err
	}
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	start, end := models.MonthRange(date, h.loc)
	sessions, err := h.sessions.ListFocusTimesBetween(c.Request().Context(), userID, start, end)
	if err != nil {
		return apperror.Internal(err)
	}
	return respond(c, http.StatusOK, services.AggregateFocusTimes(sessions, h.loc))
}
