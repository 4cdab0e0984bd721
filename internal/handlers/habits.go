package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/apperror"
	"github.com/ytakahashi/habits-api/internal/models"
	"github.com/ytakahashi/habits-api/internal/services"
)

type HabitHandler struct {
	habits services.HabitRepository
	loc    *time.Location
	now    func() time.Time
	logger *logrus.Logger
}

func NewHabitHandler(habits services.HabitRepository, loc *time.Location, logger *logrus.Logger) *HabitHandler {
	return &HabitHandler{
		habits: habits,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

type createHabitRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	Frequency   string          `json:"frequency" validate:"max=50"`
	StartDate   json.RawMessage `json:"startDate"`
	Description string          `json:"description" validate:"max=500"`
}

// Create handles POST /habits.
func (h *HabitHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createHabitRequest
	if err := bindJSON(c, &req); err != nil {
		if issue, ok := typeIssue(err); ok {
			return apperror.Unprocessable("Invalid habit", []Issue{issue})
		}
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Frequency = strings.TrimSpace(req.Frequency)
	if err := c.Validate(&req); err != nil {
		return apperror.Unprocessable("Invalid habit", issuesFrom(err))
	}

	in := models.NewHabit{
		Name:        req.Name,
		Frequency:   req.Frequency,
		Description: req.Description,
	}
	if len(req.StartDate) > 0 && string(req.StartDate) != "null" {
		start, err := models.ParseTimeJSON(req.StartDate, h.loc)
		if err != nil {
			return apperror.Unprocessable("Invalid habit", []Issue{{Field: "startDate", Message: "startDate must be a valid date"}})
		}
		in.StartDate = &start
	}

	habit, err := h.habits.CreateHabit(c.Request().Context(), userID, in)
	if errors.Is(err, services.ErrHabitExists) {
		return apperror.Conflict("Habit already exists")
	}
	if err != nil {
		return apperror.Internal(err)
	}

	h.logger.WithFields(logrus.Fields{"user_id": userID, "habit_id": habit.ID}).Info("habit created")
	return respond(c, http.StatusCreated, habit)
}

// Index handles GET /habits.
func (h *HabitHandler) Index(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	habits, err := h.habits.ListHabits(c.Request().Context(), userID)
	if err != nil {
		return apperror.Internal(err)
	}
	return respond(c, http.StatusOK, habits)
}

// Show handles GET /habits/:id.
func (h *HabitHandler) Show(c echo.Context) error {
	userID, habitID, err := h.owner(c)
	if err != nil {
		return err
	}
	habit, err := h.habits.GetHabit(c.Request().Context(), userID, habitID)
	if err != nil {
		return storeError(err)
	}
	return respond(c, http.StatusOK, habit)
}

// Delete handles DELETE /habits/:id.
func (h *HabitHandler) Delete(c echo.Context) error {
	userID, habitID, err := h.owner(c)
	if err != nil {
		return err
	}
	if err := h.habits.DeleteHabit(c.Request().Context(), userID, habitID); err != nil {
		return storeError(err)
	}
	h.logger.WithFields(logrus.Fields{"user_id": userID, "habit_id": habitID}).Info("habit deleted")
	return c.NoContent(http.StatusNoContent)
}

// Toggle handles PATCH /habits/:id/toggle, flipping today's completion.
func (h *HabitHandler) Toggle(c echo.Context) error {
	userID, habitID, err := h.owner(c)
	if err != nil {
		return err
	}
	habit, err := h.habits.ToggleHabitDay(c.Request().Context(), userID, habitID, h.now(), h.loc)
	if err != nil {
		return storeError(err)
	}
	return respond(c, http.StatusOK, habit)
}

// Metrics handles GET /habits/:id/metrics?date=, listing completions in date's month.
func (h *HabitHandler) Metrics(c echo.Context) error {
	userID, habitID, err := h.owner(c)
	if err != nil {
		return err
	}
	date, err := dateQuery(c, h.loc)
	if err != nil {
		return err
	}
	habit, err := h.habits.GetHabit(c.Request().Context(), userID, habitID)
	if err != nil {
		return storeError(err)
	}
	start, end := models.MonthRange(date, h.loc)
	return respond(c, http.StatusOK, habit.MetricsFor(start, end))
}

func (h *HabitHandler) owner(c echo.Context) (string, string, error) {
	userID, err := currentUser(c)
	if err != nil {
		return "", "", err
	}
	habitID, err := habitIDParam(c)
	if err != nil {
		return "", "", err
	}
	return userID, habitID, nil
}

func storeError(err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return apperror.NotFound("Habit not found")
	}
	return apperror.Internal(err)
}
