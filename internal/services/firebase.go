package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/ytakahashi/habits-api/internal/auth"
)

// FirebaseCredentials are the service-account fields read from the environment.
// When ClientEmail or PrivateKey is empty the application default credentials are used.
type FirebaseCredentials struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// ClientOptions returns the Google API options for these credentials.
func (c FirebaseCredentials) ClientOptions() ([]option.ClientOption, error) {
	if c.ClientEmail == "" || c.PrivateKey == "" {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   c.ProjectID,
		"client_email": c.ClientEmail,
		"private_key":  c.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
}

// NewFirebaseApp initializes the Firebase Admin app once for the process.
func NewFirebaseApp(ctx context.Context, creds FirebaseCredentials) (*firebase.App, error) {
	opts, err := creds.ClientOptions()
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: creds.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// NewFirestoreServiceFromApp builds the persistence gateway on the app's Firestore client.
func NewFirestoreServiceFromApp(ctx context.Context, app *firebase.App, loc *time.Location, logger *logrus.Logger) (*FirestoreService, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return NewFirestoreServiceFromClient(client, loc, logger), nil
}

// idTokenVerifier is the subset of *fbauth.Client used for verification.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens and maps failures to provider reason codes.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase Auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*auth.FederatedIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, &auth.VerifyError{Code: firebaseErrorCode(err), Err: err}
	}

	identity := &auth.FederatedIdentity{
		ID:        token.UID,
		ExpiresAt: time.Unix(token.Expires, 0),
	}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

func firebaseErrorCode(err error) string {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return auth.CodeTokenExpired
	case fbauth.IsIDTokenRevoked(err):
		return auth.CodeTokenRevoked
	case fbauth.IsIDTokenInvalid(err):
		return auth.CodeTokenInvalid
	case fbauth.IsProjectNotFound(err):
		return auth.CodeProjectNotFound
	case fbauth.IsInsufficientPermission(err):
		return auth.CodeInsufficientPermission
	case fbauth.IsCertificateFetchFailed(err):
		return auth.CodeCertificateFetchFailed
	default:
		return auth.CodeProviderInternal
	}
}
