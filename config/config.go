package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	AppName     = "wardrobe-editorial"
	EnvFileName = "config.env"
)

// Config holds settings for both the service and the CLI.
type Config struct {
	// HTTP listen address, e.g. ":8080"
	Address        string        `env:"ADDRESS" envDefault:":8080"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL"`
	APIKeys        []string      `env:"API_KEYS" envSeparator:","`
	RatePerMinute  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	TrustProxy     bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	MinItems       int           `env:"MIN_ITEMS" envDefault:"2"`
	MinRawChars    int           `env:"MIN_RAW_CHARS" envDefault:"8"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"70s"`

	ServerURL         string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	ClientAPIKey      string `env:"CLIENT_API_KEY"`
	HistoryDBPath     string `env:"HISTORY_DB_PATH"`
	HistoryPassphrase string `env:"HISTORY_PASSPHRASE"`
	HistoryLimit      int    `env:"HISTORY_LIMIT" envDefault:"20"`

	LogFile string `env:"LOG_FILE"`
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory and from .env in the working directory. Errors are ignored
// since the files may not exist. Variables already set win.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load()
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIKeys = compact(cfg.APIKeys)
	return cfg, nil
}

// ValidateServer checks the settings the HTTP service cannot start without.
func (c Config) ValidateServer() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MinItems < 1 {
		return fmt.Errorf("MIN_ITEMS must be at least 1, got %d", c.MinItems)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// HistoryPath returns the configured history database path, defaulting to
// the user's config directory.
func (c Config) HistoryPath() (string, error) {
	if c.HistoryDBPath != "" {
		return c.HistoryDBPath, nil
	}
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	dir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
