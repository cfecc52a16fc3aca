package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AngelCh415/threads-insights/internal/insight"
)

type Config struct {
	AppEnv              string
	Port                string
	LogLevel            string
	HTTPTimeout         time.Duration
	DatabaseURL         string
	MetricsAPIURL       string
	AccountTimezone     string
	ConversionSource    string
	WinnerThreshold     int
	TopPostsLimit       int
	HighWinRateMinPosts int
}

// FromEnv reads .env files when present and then the process environment.
// Variables already set in the environment win over the files.
func FromEnv() Config {
	_ = godotenv.Load(".env", ".env.local")
	return Config{
		AppEnv:              envOr("APP_ENV", "production"),
		Port:                envOr("PORT", "8080"),
		LogLevel:            strings.ToLower(envOr("LOG_LEVEL", "")),
		HTTPTimeout:         time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		MetricsAPIURL:       strings.TrimRight(os.Getenv("METRICS_API_URL"), "/"),
		AccountTimezone:     envOr("ACCOUNT_TIMEZONE", "Asia/Tokyo"),
		ConversionSource:    envOr("CONVERSION_SOURCE", "Threads"),
		WinnerThreshold:     getEnvInt("WINNER_THRESHOLD", 0),
		TopPostsLimit:       getEnvInt("TOP_POSTS_LIMIT", 0),
		HighWinRateMinPosts: getEnvInt("HIGH_WIN_RATE_MIN_POSTS", 0),
	}
}

// Location resolves the account timezone every calendar-day computation
// uses.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AccountTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.AccountTimezone, err)
	}
	return loc, nil
}

// Policy returns the insight thresholds with any positive overrides applied.
func (c Config) Policy() insight.Policy {
	p := insight.DefaultPolicy()
	if c.WinnerThreshold > 0 {
		p.WinnerThreshold = c.WinnerThreshold
	}
	if c.TopPostsLimit > 0 {
		p.TopPostsLimit = c.TopPostsLimit
	}
	if c.HighWinRateMinPosts > 0 {
		p.HighWinRateMinPosts = c.HighWinRateMinPosts
	}
	return p
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
