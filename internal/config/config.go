// Package config loads runtime configuration from the environment.
//
// SOURCES, IN ORDER OF PRECEDENCE:
//  1. Real environment variables
//  2. A dotenv file (default ".env"), loaded with godotenv; it never
//     overrides a variable that is already set
//  3. Defaults registered on the viper instance
//
// Load only parses. Which keys are mandatory depends on the command: serve
// needs everything (ValidateServe), migrate and grant-admin only need the
// database (ValidateDatabase).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyAppEnv              = "APP_ENV"
	KeyPort                = "PORT"
	KeyDatabaseURL         = "DATABASE_URL"
	KeyJWTSecret           = "JWT_SECRET"
	KeySessionTTL          = "SESSION_TTL"
	KeyDiscordClientID     = "DISCORD_CLIENT_ID"
	KeyDiscordClientSecret = "DISCORD_CLIENT_SECRET"
	KeyDiscordGuildID      = "DISCORD_GUILD_ID"
	KeyPublicURL           = "PUBLIC_URL"
	KeyRedirectBase        = "REDIRECT_BASE"
	KeyRedirectURIWeb      = "REDIRECT_URI_WEB"
	KeyRedirectURIApp      = "REDIRECT_URI_APP"
	KeyLogLevel            = "LOG_LEVEL"
	KeyLogFormat           = "LOG_FORMAT"
)

// DefaultEnvFile is read when no --env-file is given. Its absence is not an
// error.
const DefaultEnvFile = ".env"

// Config is the fully parsed configuration.
type Config struct {
	AppEnv      string
	Port        int
	DatabaseURL string

	JWTSecret  string
	SessionTTL time.Duration

	DiscordClientID     string
	DiscordClientSecret string
	DiscordGuildID      string

	// PublicURL is where this API is reachable from the browser. Discord
	// redirects back to PublicURL + /v1/auth/discord/{target}/callback.
	PublicURL string

	// RedirectURIWeb and RedirectURIApp are the client pages the login flow
	// finally lands on, carrying ?token= or ?error=.
	RedirectURIWeb string
	RedirectURIApp string

	LogLevel  string
	LogFormat string
}

// Load reads envFile (if present) and the environment.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		// A missing default file is normal; a missing explicit one is not.
		if !(errors.Is(err, fs.ErrNotExist) && envFile == DefaultEnvFile) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyAppEnv, "production")
	v.SetDefault(KeyRedirectBase, "http://localhost:3000")
	v.SetDefault(KeySessionTTL, "1h")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	cfg := &Config{
		AppEnv:              v.GetString(KeyAppEnv),
		DatabaseURL:         v.GetString(KeyDatabaseURL),
		JWTSecret:           v.GetString(KeyJWTSecret),
		DiscordClientID:     v.GetString(KeyDiscordClientID),
		DiscordClientSecret: v.GetString(KeyDiscordClientSecret),
		DiscordGuildID:      v.GetString(KeyDiscordGuildID),
		LogLevel:            strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:           strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if raw := v.GetString(KeyPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("config: %s must be a TCP port, got %q", KeyPort, raw)
		}
		cfg.Port = port
	}

	ttl, err := time.ParseDuration(v.GetString(KeySessionTTL))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("config: %s must be a positive duration, got %q", KeySessionTTL, v.GetString(KeySessionTTL))
	}
	cfg.SessionTTL = ttl

	base := strings.TrimRight(v.GetString(KeyRedirectBase), "/")
	cfg.RedirectURIWeb = orDefault(v.GetString(KeyRedirectURIWeb), base+"/auth/callback")
	cfg.RedirectURIApp = orDefault(v.GetString(KeyRedirectURIApp), base+"/auth/app-callback")

	cfg.PublicURL = strings.TrimRight(v.GetString(KeyPublicURL), "/")
	if cfg.PublicURL == "" && cfg.Port != 0 {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ValidateServe checks every key the HTTP server needs and reports all the
// missing ones at once.
func (c *Config) ValidateServe() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyDiscordClientID, c.DiscordClientID},
		{KeyDiscordClientSecret, c.DiscordClientSecret},
		{KeyDiscordGuildID, c.DiscordGuildID},
		{KeyJWTSecret, c.JWTSecret},
		{KeyDatabaseURL, c.DatabaseURL},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if c.Port == 0 {
		missing = append(missing, KeyPort)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateDatabase checks the keys the database-only commands need.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: missing required environment variables: %s", KeyDatabaseURL)
	}
	return nil
}

// IsDev reports whether the process runs in a development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// CallbackURL is the Discord redirect_uri for a login target ("web" or "app").
func (c *Config) CallbackURL(target string) string {
	return c.PublicURL + "/v1/auth/discord/" + target + "/callback"
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Development builds also tag every record with its source location.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: c.IsDev()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
