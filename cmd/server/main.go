package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"

	"github.com/ytakahashi/habits-api/internal/auth"
	"github.com/ytakahashi/habits-api/internal/config"
	"github.com/ytakahashi/habits-api/internal/handlers"
	"github.com/ytakahashi/habits-api/internal/logging"
	"github.com/ytakahashi/habits-api/internal/metrics"
	"github.com/ytakahashi/habits-api/internal/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Invalid TZ_LOCATION %q: %v", cfg.TZLocation, err)
	}

	ctx := context.Background()

	var app *firebase.App
	if cfg.StoreDriver == config.StoreFirestore || cfg.AuthMode != config.AuthModeJWT {
		if !cfg.HasServiceAccount() {
			logger.Info("No Firebase service account configured; using application default credentials")
		}
		app, err = services.NewFirebaseApp(ctx, services.FirebaseCredentials{
			ProjectID:   cfg.FirestoreProject(),
			ClientEmail: cfg.FirebaseClientEmail,
			PrivateKey:  cfg.PrivateKey(),
		})
		if err != nil {
			logger.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	var verifier auth.FederatedVerifier
	if cfg.AuthMode != config.AuthModeJWT {
		v, err := services.NewFirebaseVerifier(ctx, app)
		if err != nil {
			logger.Fatalf("Failed to create Firebase verifier: %v", err)
		}
		verifier = v
	}

	var store services.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		store = services.NewMemoryService()
	default:
		fs, err := services.NewFirestoreServiceFromApp(ctx, app, loc, logger)
		if err != nil {
			logger.Fatalf("Failed to create Firestore service: %v", err)
		}
		store = fs
	}
	defer store.Close()

	sessions := auth.NewSessionTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
	github := services.NewGitHubClient(services.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		APIURL:       cfg.GitHubAPIURL,
		Timeout:      cfg.HTTPClientTimeout,
	})

	firebaseStatus := handlers.FirebaseStatus{
		ProjectID:      cfg.FirestoreProject(),
		HasClientEmail: cfg.FirebaseClientEmail != "",
		HasPrivateKey:  cfg.FirebasePrivateKey != "",
	}

	e := handlers.NewServer(handlers.Server{
		Habits:         handlers.NewHabitHandler(store, loc, logger),
		FocusTimes:     handlers.NewFocusTimeHandler(store, loc, logger),
		Auth:           handlers.NewAuthHandler(github, sessions, logger),
		Authenticator:  auth.NewAuthenticator(auth.Mode(cfg.AuthMode), verifier, sessions, logger),
		Metrics:        metrics.NewRecorder(),
		Logger:         logger,
		Firebase:       firebaseStatus,
		AllowedOrigins: cfg.AllowedOrigins(),
		AuthRateLimit:  cfg.AuthRateLimit,
		Version:        version,
	})

	go func() {
		logger.WithFields(logrus.Fields{
			"port":      cfg.Port,
			"store":     cfg.StoreDriver,
			"auth_mode": cfg.AuthMode,
			"tz":        loc.String(),
		}).Info("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	logger.Info("Server stopped")
}
