package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/apperror"
	"github.com/ytakahashi/habits-api/internal/auth"
	"github.com/ytakahashi/habits-api/internal/services"
)

// GitHubAPI is the part of *services.GitHubClient the OAuth routes use.
type GitHubAPI interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	User(ctx context.Context, accessToken string) (*services.GitHubUser, error)
}

type AuthHandler struct {
	github GitHubAPI
	tokens *auth.SessionTokens
	logger *logrus.Logger
}

func NewAuthHandler(github GitHubAPI, tokens *auth.SessionTokens, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		github: github,
		tokens: tokens,
		logger: logger,
	}
}

type sessionResponse struct {
	ID     string `json:"id"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// Redirect handles GET /auth by sending the browser to GitHub's consent page.
func (h *AuthHandler) Redirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.github.AuthorizeURL(uuid.NewString()))
}

// Callback handles GET /auth/callback?code=.
func (h *AuthHandler) Callback(c echo.Context) error {
	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return apperror.Validation("Missing code")
	}

	ctx := c.Request().Context()
	accessToken, err := h.github.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, services.ErrNoAccessToken) {
			h.logger.WithError(err).Warn("github code exchange returned no token")
			return apperror.Validation("Failed to retrieve access token")
		}
		return githubFailure(http.StatusInternalServerError, "github_error", "GitHub authentication failed", err)
	}

	user, err := h.github.User(ctx, accessToken)
	if err != nil {
		return githubFailure(http.StatusInternalServerError, "github_error", "GitHub authentication failed", err)
	}
	return h.issue(c, user)
}

type githubTokenRequest struct {
	Token string `json:"token"`
}

// GitHubToken handles POST /auth/github, trading a GitHub access token for a session.
func (h *AuthHandler) GitHubToken(c echo.Context) error {
	var req githubTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return apperror.Validation("Token is required")
	}

	// Any failure to read the user, transport errors included, means the token was not verified.
	user, err := h.github.User(c.Request().Context(), token)
	if err != nil {
		h.logger.WithError(err).Warn("github user lookup failed")
		return githubFailure(http.StatusUnauthorized, "invalid_github_token", "Invalid GitHub token", err)
	}
	return h.issue(c, user)
}

func (h *AuthHandler) issue(c echo.Context, user *services.GitHubUser) error {
	token, expiresAt, err := h.tokens.Issue(user.NodeID, user.AvatarURL, user.Name)
	if err != nil {
		return apperror.Internal(err)
	}
	h.logger.WithFields(logrus.Fields{
		"user_id":    user.NodeID,
		"expires_at": expiresAt,
	}).Info("session issued")
	return c.JSON(http.StatusOK, sessionResponse{
		ID:     user.NodeID,
		Avatar: user.AvatarURL,
		Name:   user.Name,
		Token:  token,
	})
}

// githubFailure keeps the provider payload as details when GitHub answered with an error.
func githubFailure(status int, code, message string, err error) error {
	e := apperror.Upstream(status, code, message, err)
	var perr *services.ProviderError
	if errors.As(err, &perr) {
		return e.WithDetails(perr.Body)
	}
	return e
}
