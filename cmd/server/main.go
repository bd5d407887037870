// Command server runs the snipet HTTP API.
//
// Configuration is read from the environment (a .env file is loaded when
// present):
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite database file (default data/snipet.db)
//	JWT_SECRET            HMAC secret for access tokens (required)
//	GITHUB_CLIENT_ID      GitHub OAuth app credentials (optional)
//	GITHUB_CLIENT_SECRET
//	GITHUB_CALLBACK_URL   OAuth callback (default http://localhost:PORT/auth/github/callback)
//	APP_URL               browser redirect target after OAuth sign-in
//	CORS_ORIGINS          comma separated allowed origins
//	SECURE_COOKIES        set to "true" behind HTTPS
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/snipet/internal/server"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/snipet.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("creating database directory", slog.Any("error", err))
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set")
		os.Exit(1)
	}

	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "/"
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
		AppURL:             appURL,
		CORSOrigins:        os.Getenv("CORS_ORIGINS"),
		SecureCookies:      os.Getenv("SECURE_COOKIES") == "true",
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("creating server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
