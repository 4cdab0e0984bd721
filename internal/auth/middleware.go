package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/apperror"
)

// Provider failure codes surfaced to clients.
const (
	CodeTokenExpired           = "auth/id-token-expired"
	CodeTokenRevoked           = "auth/id-token-revoked"
	CodeTokenInvalid           = "auth/invalid-id-token"
	CodeProjectNotFound        = "auth/project-not-found"
	CodeInsufficientPermission = "auth/insufficient-permission"
	CodeCertificateFetchFailed = "auth/certificate-fetch-failed"
	CodeProviderInternal       = "auth/internal-error"
)

// VerifyError is a federated verification failure with the provider's reason code.
type VerifyError struct {
	Code string
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *VerifyError) Unwrap() error { return e.Err }

// FederatedVerifier checks an ID token with the external identity provider.
type FederatedVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// Mode selects which verifier guards protected routes.
type Mode string

const (
	ModeFirebase Mode = "firebase"
	ModeJWT      Mode = "jwt"
	// ModeAuto picks the verifier from the token's iss claim.
	ModeAuto Mode = "auto"
)

// Authenticator verifies bearer credentials and attaches the identity to the request context.
type Authenticator struct {
	mode      Mode
	federated FederatedVerifier
	local     *SessionTokens
	logger    *logrus.Logger
}

// NewAuthenticator returns an Authenticator. federated may be nil in ModeJWT.
func NewAuthenticator(mode Mode, federated FederatedVerifier, local *SessionTokens, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		mode:      mode,
		federated: federated,
		local:     local,
		logger:    logger,
	}
}

// Middleware rejects requests without a valid credential.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			token, appErr := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if appErr != nil {
				return appErr
			}

			ctx, appErr := a.authenticate(req.Context(), token)
			if appErr != nil {
				a.logger.WithFields(logrus.Fields{
					"path": req.URL.Path,
					"code": appErr.Code,
				}).WithError(appErr.Err).Warn("authentication failed")
				return appErr
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func (a *Authenticator) authenticate(ctx context.Context, token string) (context.Context, *apperror.Error) {
	switch a.mode {
	case ModeJWT:
		return a.verifyLocal(ctx, token)
	case ModeAuto:
		if a.local != nil && peekIssuer(token) == a.local.Issuer() {
			return a.verifyLocal(ctx, token)
		}
	}
	return a.verifyFederated(ctx, token)
}

func (a *Authenticator) verifyFederated(ctx context.Context, token string) (context.Context, *apperror.Error) {
	if !hasThreeSegments(token) {
		return nil, apperror.Unauthorized(apperror.CodeMalformedCredential, "ID token is not a well-formed JWT")
	}
	if a.federated == nil {
		return nil, apperror.Unauthorized(CodeProviderInternal, "Identity provider is not configured")
	}

	identity, err := a.federated.Verify(ctx, token)
	if err != nil {
		code := CodeProviderInternal
		var verr *VerifyError
		if errors.As(err, &verr) {
			code = verr.Code
		}
		e := apperror.Unauthorized(code, "Invalid or expired ID token")
		e.Err = err
		return nil, e
	}
	return WithFederated(ctx, identity), nil
}

func (a *Authenticator) verifyLocal(ctx context.Context, token string) (context.Context, *apperror.Error) {
	identity, err := a.local.Verify(token)
	switch {
	case errors.Is(err, ErrMalformedToken):
		return nil, apperror.Unauthorized(apperror.CodeMalformedCredential, "Malformed token")
	case err != nil:
		e := apperror.Unauthorized(apperror.CodeInvalidCredential, "Invalid token")
		e.Err = err
		return nil, e
	}
	return WithLocal(ctx, identity), nil
}

func bearerToken(header string) (string, *apperror.Error) {
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", apperror.Unauthorized(apperror.CodeMissingCredential, "Authorization header missing or malformed")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", apperror.Unauthorized(apperror.CodeMissingCredential, "Bearer token not provided")
	}
	return token, nil
}

func hasThreeSegments(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
