package config

import (
	"testing"
	"time"

	"github.com/AngelCh415/threads-insights/internal/insight"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "ACCOUNT_TIMEZONE", "CONVERSION_SOURCE", "HTTP_TIMEOUT_SECONDS", "WINNER_THRESHOLD", "METRICS_API_URL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Port != "8080" || c.AppEnv != "production" || c.AccountTimezone != "Asia/Tokyo" || c.ConversionSource != "Threads" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.HTTPTimeout != 15*time.Second {
		t.Fatalf("timeout = %s", c.HTTPTimeout)
	}
	if c.Policy() != insight.DefaultPolicy() {
		t.Fatalf("policy = %+v", c.Policy())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("WINNER_THRESHOLD", "5000")
	t.Setenv("TOP_POSTS_LIMIT", "notanumber")
	t.Setenv("METRICS_API_URL", "http://metrics.local/")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c := FromEnv()
	if c.HTTPTimeout != 3*time.Second || c.MetricsAPIURL != "http://metrics.local" || c.LogLevel != "debug" {
		t.Fatalf("config = %+v", c)
	}
	p := c.Policy()
	if p.WinnerThreshold != 5000 || p.TopPostsLimit != insight.DefaultPolicy().TopPostsLimit {
		t.Fatalf("policy = %+v", p)
	}
}

func TestLocation(t *testing.T) {
	loc, err := Config{AccountTimezone: "UTC"}.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("loc = %v err = %v", loc, err)
	}
	if _, err := (Config{AccountTimezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatal("expected unknown zone error")
	}
}
