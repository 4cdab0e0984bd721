package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ytakahashi/habits-api/internal/auth"
	"github.com/ytakahashi/habits-api/internal/logging"
	"github.com/ytakahashi/habits-api/internal/metrics"
)

const (
	serviceName        = "habits-api"
	serviceDescription = "Habits and focus time tracking API"
)

// APIPrefix is the versioned mount point. Every API route is also served without it.
const APIPrefix = "/api/v1"

// Server holds everything NewServer wires into the router.
type Server struct {
	Habits        *HabitHandler
	FocusTimes    *FocusTimeHandler
	Auth          *AuthHandler
	Authenticator *auth.Authenticator
	Metrics       *metrics.Recorder
	Logger        *logrus.Logger
	Firebase      FirebaseStatus

	AllowedOrigins []string
	// AuthRateLimit is requests per second per client on /auth routes. Zero disables limiting.
	AuthRateLimit float64
	Version       string
}

// FirebaseStatus says which Firebase settings are present. It never holds credential values.
type FirebaseStatus struct {
	ProjectID      string
	HasClientEmail bool
	HasPrivateKey  bool
}

type firebaseStatusResponse struct {
	FirebaseConfigured bool   `json:"firebaseConfigured"`
	ProjectID          string `json:"projectId"`
	HasClientEmail     bool   `json:"hasClientEmail"`
	HasPrivateKey      bool   `json:"hasPrivateKey"`
}

func (f FirebaseStatus) response() firebaseStatusResponse {
	projectID := f.ProjectID
	if projectID == "" {
		projectID = "NOT_SET"
	}
	return firebaseStatusResponse{
		FirebaseConfigured: f.ProjectID != "" && f.HasClientEmail && f.HasPrivateKey,
		ProjectID:          projectID,
		HasClientEmail:     f.HasClientEmail,
		HasPrivateKey:      f.HasPrivateKey,
	}
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(s Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(s.Logger)

	if s.Metrics != nil {
		e.Use(s.Metrics.Middleware())
	}
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(s.Logger, requestUserID))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"name":        serviceName,
			"description": serviceDescription,
			"version":     s.Version,
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/firebase-test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.Firebase.response())
	})
	if s.Metrics != nil {
		e.GET("/metrics", s.Metrics.Handler())
	}

	var limit []echo.MiddlewareFunc
	if s.AuthRateLimit > 0 {
		limit = append(limit, authRateLimiter(s.AuthRateLimit))
	}
	e.GET("/auth", s.Auth.Redirect, limit...)
	e.GET("/auth/callback", s.Auth.Callback, limit...)
	e.POST("/auth/github", s.Auth.GitHubToken, limit...)

	// Per-route middleware keeps the unprefixed mirror from claiming unknown paths.
	for _, prefix := range []string{APIPrefix, ""} {
		registerAPI(e, prefix, s, s.Authenticator.Middleware())
	}
	return e
}

func registerAPI(e *echo.Echo, prefix string, s Server, authn echo.MiddlewareFunc) {
	e.GET(prefix+"/profile", Profile, authn)

	e.GET(prefix+"/habits", s.Habits.Index, authn)
	e.POST(prefix+"/habits", s.Habits.Create, authn)
	e.GET(prefix+"/habits/:id", s.Habits.Show, authn)
	e.DELETE(prefix+"/habits/:id", s.Habits.Delete, authn)
	e.PATCH(prefix+"/habits/:id/toggle", s.Habits.Toggle, authn)
	e.GET(prefix+"/habits/:id/metrics", s.Habits.Metrics, authn)

	e.GET(prefix+"/focus-time", s.FocusTimes.Index, authn)
	e.POST(prefix+"/focus-time", s.FocusTimes.Create, authn)
	e.GET(prefix+"/focus-time/metrics/month", s.FocusTimes.MetricsByMonth, authn)
}

func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(perSecond),
			Burst: burst,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
		},
	})
}

func requestUserID(c echo.Context) string {
	id, _ := auth.UserID(c.Request().Context())
	return id
}
