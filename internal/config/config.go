// Package config reads the service settings from the environment.
//
// A .env file, when present, seeds variables that are not already set in the
// real environment; the real environment always wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Embedded zone database, so TIMEZONE works on minimal hosts.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config is everything the server needs to start.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	// Location is used to bucket check-ins by hour of the day on the stats
	// dashboard.
	Location     *time.Location
	LogLevel     slog.Level
	CookieSecure bool
}

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from it. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:         8080,
		DBPath:       filepath.Join("data", "guestlist.db"),
		Location:     time.UTC,
		LogLevel:     slog.LevelInfo,
		CookieSecure: false,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	cfg.GitHubClientID = getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubCallbackURL = getenv("GITHUB_CALLBACK_URL")
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if v := getenv("TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TIMEZONE %q: %w", v, err)
		}
		cfg.Location = loc
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid COOKIE_SECURE %q", v)
		}
		cfg.CookieSecure = secure
	}

	return cfg, nil
}

// Validate reports settings the HTTP server cannot run without. The migrate
// command does not call it.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 16 characters"))
	}
	if c.GitHubClientID == "" || c.GitHubClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
