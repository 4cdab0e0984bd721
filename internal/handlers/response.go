// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ytakahashi/habits-api/internal/apperror"
	"github.com/ytakahashi/habits-api/internal/auth"
	"github.com/ytakahashi/habits-api/internal/models"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// currentUser returns the caller's id or a 401.
func currentUser(c echo.Context) (string, error) {
	id, ok := auth.UserID(c.Request().Context())
	if !ok {
		return "", apperror.Unauthorized(apperror.CodeMissingCredential, "Unauthorized")
	}
	return id, nil
}

// habitIDParam reads and checks the :id path parameter.
func habitIDParam(c echo.Context) (string, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperror.Validation("Invalid habit id").WithDetails([]Issue{{Field: "id", Message: "id must be a UUID"}})
	}
	return id.String(), nil
}

// dateQuery reads the required ?date= parameter in loc.
func dateQuery(c echo.Context, loc *time.Location) (time.Time, error) {
	t, err := models.ParseTime(c.QueryParam("date"), loc)
	if err != nil {
		return time.Time{}, apperror.Validation("Invalid date").WithDetails([]Issue{{Field: "date", Message: "date must be a valid date"}})
	}
	return t, nil
}

// bindJSON decodes the request body, turning decode failures into a 400.
// A well-formed body with a wrongly typed field keeps its
// *json.UnmarshalTypeError as the cause, see typeIssue.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return apperror.Validation("Request body must be JSON")
		}
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			e := apperror.Validation("Invalid request body")
			e.Err = ute
			return e
		}
		return apperror.Validation("Invalid request body")
	}
	return nil
}

// typeIssue reports a field whose JSON value had the wrong type.
func typeIssue(err error) (Issue, bool) {
	var ute *json.UnmarshalTypeError
	if !errors.As(err, &ute) || ute.Field == "" {
		return Issue{}, false
	}
	return Issue{Field: ute.Field, Message: fmt.Sprintf("%s must be a %s", ute.Field, ute.Type)}, true
}
