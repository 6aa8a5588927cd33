package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the metrics API the dashboard talks to unless the
// config file names another one.
const DefaultAPIBaseURL = "http://127.0.0.1:8000"

type Config struct {
	HTTPAddr      string
	ConfigPath    string
	SessionSecret string
	LogLevel      string
	LogFormat     string
	Dashboard     Dashboard
}

// Dashboard holds the settings read from the YAML file.
type Dashboard struct {
	APIBaseURL       string        `yaml:"api_base_url"`
	Locale           string        `yaml:"locale"`
	Currency         string        `yaml:"currency"`
	CurrencySymbol   string        `yaml:"currency_symbol"`
	DefaultSortOrder string        `yaml:"default_sort_order"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	SessionIdle      time.Duration `yaml:"session_idle"`
	LoginRateLimit   int           `yaml:"login_rate_limit"`
}

func DefaultDashboard() Dashboard {
	return Dashboard{
		APIBaseURL:       DefaultAPIBaseURL,
		Locale:           "pt-BR",
		Currency:         "BRL",
		DefaultSortOrder: "asc",
		SessionIdle:      12 * time.Hour,
		LoginRateLimit:   20,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getenv("METRICSDASH_HTTP_ADDR", ":8081"),
		ConfigPath:    getenv("METRICSDASH_CONFIG", "config/dashboard.yaml"),
		SessionSecret: os.Getenv("METRICSDASH_SESSION_SECRET"),
		LogLevel:      getenv("METRICSDASH_LOG_LEVEL", "info"),
		LogFormat:     getenv("METRICSDASH_LOG_FORMAT", "json"),
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-me"
	}

	dash, err := LoadDashboard(cfg.ConfigPath)
	if err != nil {
		return Config{}, err
	}
	cfg.Dashboard = dash
	return cfg, nil
}

// LoadDashboard reads the YAML file at path on top of DefaultDashboard.
// A missing file yields the defaults.
func LoadDashboard(path string) (Dashboard, error) {
	d := DefaultDashboard()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, nil
		}
		return Dashboard{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dashboard{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return Dashboard{}, fmt.Errorf("config %s: %w", path, err)
	}
	return d, nil
}

func (d Dashboard) Validate() error {
	u, err := url.Parse(d.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_base_url %q is not an absolute URL", d.APIBaseURL)
	}
	switch d.DefaultSortOrder {
	case "asc", "desc":
	default:
		return fmt.Errorf("default_sort_order must be asc or desc, got %q", d.DefaultSortOrder)
	}
	if d.Currency == "" {
		return errors.New("currency is required")
	}
	if d.RequestTimeout < 0 {
		return errors.New("request_timeout must not be negative")
	}
	if d.SessionIdle <= 0 {
		return errors.New("session_idle must be positive")
	}
	if d.LoginRateLimit <= 0 {
		return errors.New("login_rate_limit must be positive")
	}
	return nil
}
