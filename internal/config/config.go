// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/logging"
)

// Required secrets. Their names match the deployment's existing .env files.
const (
	EnvPraktikumToken = "PRAKTIKUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// CursorNow starts polling from the process start time.
const CursorNow = "now"

// MissingEnvError is returned by Load when required secrets are absent.
// The process must not start polling without them.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	PraktikumToken string
	TelegramToken  string
	TelegramChatID string

	APIURL            string
	TelegramAPIURL    string
	TelegramParseMode string

	PollInterval   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	InitialCursor  string // "now", "zero", or a Unix timestamp.
	ReportErrors   bool

	ListenAddr string
	DBPath     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	LogLevel  slog.Level
	LogFormat logging.Format
}

// HasJournal reports whether the delivery journal is enabled.
func (c *Config) HasJournal() bool {
	return c.DBPath != ""
}

// HasRedisMirror reports whether notifications are mirrored to Redis.
func (c *Config) HasRedisMirror() bool {
	return c.RedisAddr != ""
}

// ResolveCursor returns the initial polling cursor for a process started at now.
// "zero" replays the whole item history on the first poll; "now" reports only
// changes after startup.
func (c *Config) ResolveCursor(now time.Time) int64 {
	switch c.InitialCursor {
	case "", CursorNow:
		return now.Unix()
	case "zero":
		return 0
	default:
		// Validated by Load.
		v, _ := strconv.ParseInt(c.InitialCursor, 10, 64)
		return v
	}
}

// Load reads configuration from environment variables and returns a validated Config.
// PRAKTIKUM_TOKEN, TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required; when any is
// missing Load returns a *MissingEnvError naming all of them.
// Optional variables with defaults: HOMEWORKBOT_POLL_INTERVAL (5m),
// HOMEWORKBOT_BACKOFF_INITIAL (10s), HOMEWORKBOT_BACKOFF_MAX (42m40s),
// HOMEWORKBOT_INITIAL_CURSOR (now), HOMEWORKBOT_LISTEN_ADDR (127.0.0.1:8080),
// HOMEWORKBOT_DB_PATH (homeworkbot.db).
func Load() (*Config, error) {
	cfg := &Config{
		PraktikumToken: os.Getenv(EnvPraktikumToken),
		TelegramToken:  os.Getenv(EnvTelegramToken),
		TelegramChatID: os.Getenv(EnvTelegramChatID),

		APIURL:         "https://praktikum.yandex.ru/api/user_api/homework_statuses/",
		TelegramAPIURL: "https://api.telegram.org",

		PollInterval:   5 * time.Minute,
		BackoffInitial: 10 * time.Second,
		BackoffMax:     2560 * time.Second,
		InitialCursor:  CursorNow,
		ReportErrors:   true,

		ListenAddr: "127.0.0.1:8080",
		DBPath:     "homeworkbot.db",

		RedisKey: "homeworkbot:notifications",

		LogLevel:  slog.LevelDebug,
		LogFormat: logging.FormatText,
	}

	var missing []string
	for key, val := range map[string]string{
		EnvPraktikumToken: cfg.PraktikumToken,
		EnvTelegramToken:  cfg.TelegramToken,
		EnvTelegramChatID: cfg.TelegramChatID,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &MissingEnvError{Keys: missing}
	}

	if v, ok := os.LookupEnv("HOMEWORKBOT_API_URL"); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := os.LookupEnv("TELEGRAM_API_URL"); ok && v != "" {
		cfg.TelegramAPIURL = strings.TrimRight(v, "/")
	}
	if v, ok := os.LookupEnv("TELEGRAM_PARSE_MODE"); ok {
		switch v {
		case "", "HTML":
			cfg.TelegramParseMode = v
		default:
			return nil, fmt.Errorf("TELEGRAM_PARSE_MODE must be empty or HTML, got %q", v)
		}
	}

	var err error
	if cfg.PollInterval, err = durationEnv("HOMEWORKBOT_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}
	if cfg.BackoffInitial, err = durationEnv("HOMEWORKBOT_BACKOFF_INITIAL", cfg.BackoffInitial); err != nil {
		return nil, err
	}
	if cfg.BackoffMax, err = durationEnv("HOMEWORKBOT_BACKOFF_MAX", cfg.BackoffMax); err != nil {
		return nil, err
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		return nil, fmt.Errorf("HOMEWORKBOT_BACKOFF_MAX (%s) must not be below HOMEWORKBOT_BACKOFF_INITIAL (%s)",
			cfg.BackoffMax, cfg.BackoffInitial)
	}

	if v, ok := os.LookupEnv("HOMEWORKBOT_INITIAL_CURSOR"); ok && v != "" {
		if v != CursorNow && v != "zero" {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("HOMEWORKBOT_INITIAL_CURSOR must be now, zero or a Unix timestamp, got %q", v)
			}
		}
		cfg.InitialCursor = v
	}

	if v, ok := os.LookupEnv("HOMEWORKBOT_REPORT_ERRORS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("HOMEWORKBOT_REPORT_ERRORS has invalid boolean %q: %w", v, err)
		}
		cfg.ReportErrors = b
	}

	if v, ok := os.LookupEnv("HOMEWORKBOT_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("HOMEWORKBOT_DB_PATH"); ok {
		cfg.DBPath = v
	}

	cfg.RedisAddr = os.Getenv("HOMEWORKBOT_REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("HOMEWORKBOT_REDIS_PASSWORD")
	if v, ok := os.LookupEnv("HOMEWORKBOT_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HOMEWORKBOT_REDIS_DB has invalid integer %q: %w", v, err)
		}
		cfg.RedisDB = db
	}
	if v, ok := os.LookupEnv("HOMEWORKBOT_REDIS_KEY"); ok && v != "" {
		cfg.RedisKey = v
	}

	if v, ok := os.LookupEnv("HOMEWORKBOT_LOG_LEVEL"); ok && v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("HOMEWORKBOT_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v, ok := os.LookupEnv("HOMEWORKBOT_LOG_FORMAT"); ok && v != "" {
		format, err := logging.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("HOMEWORKBOT_LOG_FORMAT: %w", err)
		}
		cfg.LogFormat = format
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, parsed)
	}
	return parsed, nil
}
