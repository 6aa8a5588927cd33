package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDashboardMissingFile(t *testing.T) {
	d, err := LoadDashboard(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if d != DefaultDashboard() {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.APIBaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("api base = %q", d.APIBaseURL)
	}
}

func TestLoadDashboardOverrides(t *testing.T) {
	path := writeFile(t, `
api_base_url: https://metrics.example.com
locale: en-US
currency: USD
default_sort_order: desc
request_timeout: 30s
session_idle: 2h
`)
	d, err := LoadDashboard(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.APIBaseURL != "https://metrics.example.com" || d.Currency != "USD" || d.DefaultSortOrder != "desc" {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.RequestTimeout != 30*time.Second || d.SessionIdle != 2*time.Hour {
		t.Fatalf("durations = %v %v", d.RequestTimeout, d.SessionIdle)
	}
	if d.LoginRateLimit != 20 {
		t.Fatalf("unset field lost its default: %d", d.LoginRateLimit)
	}
}

func TestLoadDashboardRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"api_base_url: not-a-url": "api_base_url",
		"default_sort_order: up":  "default_sort_order",
		"login_rate_limit: 0":     "login_rate_limit",
		"request_timeout: -1s":    "request_timeout",
		"currency: ''":            "currency",
	}
	for body, want := range cases {
		_, err := LoadDashboard(writeFile(t, body))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%q: err = %v, want mention of %s", body, err, want)
		}
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("METRICSDASH_HTTP_ADDR", ":9999")
	t.Setenv("METRICSDASH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("METRICSDASH_SESSION_SECRET", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.SessionSecret != "dev-secret-change-me" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
