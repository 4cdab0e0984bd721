// Package config loads application settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
	AuthModeAuto     = "auto"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port string `env:"PORT,default=8080"`

	// StoreDriver selects the persistence gateway: firestore or memory.
	StoreDriver string `env:"STORE_DRIVER,default=firestore"`
	ProjectID   string `env:"GOOGLE_CLOUD_PROJECT"`

	FirebaseProjectID   string `env:"FIREBASE_PROJECT_ID"`
	FirebaseClientEmail string `env:"FIREBASE_CLIENT_EMAIL"`
	// FirebasePrivateKey may carry literal "\n" sequences; see PrivateKey.
	FirebasePrivateKey string `env:"FIREBASE_PRIVATE_KEY"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubAPIURL       string `env:"GITHUB_API_URL,default=https://api.github.com"`

	JWTSecret string `env:"JWT_SECRET"`
	// JWTExpiresIn is the local session token lifetime in seconds.
	JWTExpiresIn int    `env:"JWT_EXPIRES_IN,default=86400"`
	JWTIssuer    string `env:"JWT_ISSUER,default=habits-api"`

	AuthMode string `env:"AUTH_MODE,default=firebase"`

	CORSOrigins string `env:"CORS_ORIGINS,default=*"`
	// TZLocation names the IANA zone used for calendar-day math. Empty means server local time.
	TZLocation string `env:"TZ_LOCATION"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT,default=10s"`
	// AuthRateLimit is requests per second allowed per client on /auth routes.
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT,default=20"`
}

// Load reads .env (if present) and decodes Config from the environment.
// A missing .env is ignored; real env vars take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreFirestore:
		if c.FirestoreProject() == "" {
			return errors.New("config: GOOGLE_CLOUD_PROJECT or FIREBASE_PROJECT_ID is required for the firestore store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthMode {
	case AuthModeFirebase, AuthModeAuto:
		if c.FirestoreProject() == "" {
			return errors.New("config: FIREBASE_PROJECT_ID is required when AUTH_MODE uses firebase")
		}
	case AuthModeJWT:
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("config: JWT_EXPIRES_IN must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: TZ_LOCATION: %w", err)
	}
	return nil
}

// FirestoreProject returns the Google Cloud project backing Firestore and Firebase Auth.
func (c *Config) FirestoreProject() string {
	if c.FirebaseProjectID != "" {
		return c.FirebaseProjectID
	}
	return c.ProjectID
}

// PrivateKey returns FirebasePrivateKey with escaped newlines restored.
func (c *Config) PrivateKey() string {
	return strings.ReplaceAll(c.FirebasePrivateKey, `\n`, "\n")
}

// HasServiceAccount reports whether explicit Firebase credentials were provided.
// Without them the Google application default credentials are used.
func (c *Config) HasServiceAccount() bool {
	return c.FirebaseClientEmail != "" && c.FirebasePrivateKey != ""
}

// TokenTTL returns the local session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresIn) * time.Second
}

// Location resolves TZLocation, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.TZLocation == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TZLocation)
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	if c.CORSOrigins == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
