package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ytakahashi/habits-api/internal/apperror"
	"github.com/ytakahashi/habits-api/internal/auth"
)

type profileResponse struct {
	*auth.Profile
	Message string `json:"message"`
}

// Profile handles GET /profile.
func Profile(c echo.Context) error {
	profile, ok := auth.ProfileFrom(c.Request().Context())
	if !ok {
		return apperror.Unauthorized(apperror.CodeMissingCredential, "Unauthorized")
	}
	return respond(c, http.StatusOK, profileResponse{Profile: profile, Message: "Profile retrieved successfully"})
}
