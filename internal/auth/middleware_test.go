package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/habits-api/internal/apperror"
)

const fakeIDToken = "aGVhZGVy.cGF5bG9hZA.c2ln"

type fakeVerifier struct {
	identity *FederatedIdentity
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	f.calls++
	return f.identity, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// run executes the middleware in front of a handler that echoes the resolved user id.
func run(t *testing.T, a *Authenticator, header string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/habits", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := a.Middleware()(func(c echo.Context) error {
		seen, _ = UserID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, code, appErr.Code)
}

func TestFederatedMode(t *testing.T) {
	verifier := &fakeVerifier{identity: &FederatedIdentity{ID: "fb-uid", Email: "a@b.c"}}
	a := NewAuthenticator(ModeFirebase, verifier, NewSessionTokens("s", "habits-api", time.Hour), quietLogger())

	t.Run("success attaches identity", func(t *testing.T) {
		id, err := run(t, a, "Bearer "+fakeIDToken)
		require.NoError(t, err)
		assert.Equal(t, "fb-uid", id)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := run(t, a, "")
		requireCode(t, err, apperror.CodeMissingCredential)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := run(t, a, "Basic abc")
		requireCode(t, err, apperror.CodeMissingCredential)
	})

	t.Run("empty bearer", func(t *testing.T) {
		_, err := run(t, a, "Bearer ")
		requireCode(t, err, apperror.CodeMissingCredential)
	})

	t.Run("not three segments", func(t *testing.T) {
		before := verifier.calls
		_, err := run(t, a, "Bearer abc.def")
		requireCode(t, err, apperror.CodeMalformedCredential)
		assert.Equal(t, before, verifier.calls, "provider must not be called")
	})
}

func TestFederatedMode_ProviderFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"expired", &VerifyError{Code: CodeTokenExpired}, CodeTokenExpired},
		{"misconfigured project", &VerifyError{Code: CodeProjectNotFound}, CodeProjectNotFound},
		{"wrapped", errors.Join(errors.New("ctx"), &VerifyError{Code: CodeTokenInvalid}), CodeTokenInvalid},
		{"unknown", errors.New("network down"), CodeProviderInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(ModeFirebase, &fakeVerifier{err: tt.err}, nil, quietLogger())
			_, err := run(t, a, "Bearer "+fakeIDToken)
			requireCode(t, err, tt.code)
		})
	}
}

func TestLocalMode(t *testing.T) {
	tokens := NewSessionTokens("secret", "habits-api", time.Hour)
	a := NewAuthenticator(ModeJWT, nil, tokens, quietLogger())

	token, _, err := tokens.Issue("gh-1", "", "")
	require.NoError(t, err)

	id, err := run(t, a, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "gh-1", id)

	_, err = run(t, a, "")
	requireCode(t, err, apperror.CodeMissingCredential)

	_, err = run(t, a, "Bearer "+token+"x")
	requireCode(t, err, apperror.CodeInvalidCredential)

	noID, _, err := tokens.Issue("", "", "")
	require.NoError(t, err)
	_, err = run(t, a, "Bearer "+noID)
	requireCode(t, err, apperror.CodeMalformedCredential)
}

func TestAutoMode_SelectsByIssuer(t *testing.T) {
	tokens := NewSessionTokens("secret", "habits-api", time.Hour)
	verifier := &fakeVerifier{identity: &FederatedIdentity{ID: "fb-uid"}}
	a := NewAuthenticator(ModeAuto, verifier, tokens, quietLogger())

	local, _, err := tokens.Issue("gh-1", "", "")
	require.NoError(t, err)

	id, err := run(t, a, "Bearer "+local)
	require.NoError(t, err)
	assert.Equal(t, "gh-1", id)
	assert.Equal(t, 0, verifier.calls)

	id, err = run(t, a, "Bearer "+fakeIDToken)
	require.NoError(t, err)
	assert.Equal(t, "fb-uid", id)
	assert.Equal(t, 1, verifier.calls)
}
