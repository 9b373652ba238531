// Package config resolves process configuration from flags, the environment
// and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-level settings. Runtime settings that admins can
// change live in the settings table instead.
type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	MailURL       string
	MailAPIKey    string
	GELFAddr      string
	NoAnimate     bool
	NoKeyboard    bool
	ShowVersion   bool
}

const defaultJWTSecret = "surveydesk-dev-secret-change-me"

// Load reads envFile (ignored when missing) and parses args.
// Flags win over environment variables, which win over defaults.
func Load(args []string, envFile string, output io.Writer) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	fs := flag.NewFlagSet("surveydesk", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	fs.IntVar(&cfg.Port, "port", envInt("SURVEYDESK_PORT", 8081), "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", envString("SURVEYDESK_DB", "surveydesk.db"), "SQLite database path")
	fs.StringVar(&cfg.LogLevel, "loglevel", envString("SURVEYDESK_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", envString("SURVEYDESK_JWT_SECRET", defaultJWTSecret), "Secret used to sign auth tokens")
	fs.StringVar(&cfg.AdminEmail, "admin-email", envString("SURVEYDESK_ADMIN_EMAIL", "admin@surveydesk.local"), "Seeded admin account email")
	fs.StringVar(&cfg.AdminPassword, "admin-password", envString("SURVEYDESK_ADMIN_PASSWORD", ""), "Seeded admin password (auto-generated if not set)")
	fs.StringVar(&cfg.MailURL, "mail-url", envString("SURVEYDESK_MAIL_URL", ""), "Mail relay base URL (empty logs mail instead of sending)")
	fs.StringVar(&cfg.MailAPIKey, "mail-key", envString("SURVEYDESK_MAIL_KEY", ""), "Mail relay API key")
	fs.StringVar(&cfg.GELFAddr, "gelf", envString("SURVEYDESK_GELF_ADDR", ""), "GELF UDP address to mirror logs to")
	fs.BoolVar(&cfg.NoAnimate, "noanimate", envBool("SURVEYDESK_NO_ANIMATE", false), "Skip the startup banner")
	fs.BoolVar(&cfg.NoKeyboard, "nokeyboard", envBool("SURVEYDESK_NO_KEYBOARD", false), "Disable keyboard shortcuts")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that flag parsing cannot
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt secret must be at least 16 characters")
	}
	return nil
}

// UsingDefaultSecret reports whether the development JWT secret is in use
func (c Config) UsingDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
