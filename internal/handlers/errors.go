package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/apperror"
)

// NewHTTPErrorHandler renders every failure as the error envelope.
func NewHTTPErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
				"code":   appErr.Code,
			}).WithError(err).Error("request error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(appErr.Status)
		} else {
			werr = c.JSON(appErr.Status, apperror.EnvelopeFor(appErr))
		}
		if werr != nil {
			logger.WithError(werr).Error("failed to write error response")
		}
	}
}

func toAppError(err error) *apperror.Error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	if he, ok := err.(*echo.HTTPError); ok {
		if he.Code >= http.StatusInternalServerError {
			return apperror.Internal(err)
		}
		return &apperror.Error{
			Kind:    httpErrorKind(he.Code),
			Status:  he.Code,
			Code:    httpErrorCode(he.Code),
			Message: fmt.Sprint(he.Message),
			Err:     he.Internal,
		}
	}
	return apperror.Internal(err)
}

func httpErrorKind(status int) apperror.Kind {
	switch status {
	case http.StatusNotFound:
		return apperror.KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.KindAuthentication
	default:
		return apperror.KindValidation
	}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	default:
		return "bad_request"
	}
}
