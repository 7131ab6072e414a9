// Package config holds the settings needed to reach the downstream chat API
// and to run the bot. A [Config] is a plain value: updates produce a new
// value rather than mutating a shared one.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModel is used when no model identifier is configured.
const DefaultModel = "moonshot-v1-8k"

// Environment variable names read by [Load].
const (
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvBaseURL      = "OPENAI_API_URL"
	EnvModel        = "OPENAI_MODEL"
	EnvOrganization = "OPENAI_ORG_ID"
	EnvBotToken     = "TELEGRAM_BOT_TOKEN"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// Config describes how to reach the chat-completion API. All fields are
// opaque strings; nothing here checks that BaseURL parses or that Model
// names a real model.
type Config struct {
	APIKey       string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Organization string `yaml:"organization"`

	MaxTokens   int     `yaml:"max_tokens"`  // 0 leaves the provider default.
	Temperature float64 `yaml:"temperature"` // 0 leaves the provider default.
}

// WithBaseURL returns a copy of c pointing at url.
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithModel returns a copy of c requesting model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// Validate reports missing startup settings. It is only used when the
// process starts; runtime updates are applied verbatim.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("config: missing api key (set %s)", EnvAPIKey))
	}
	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("config: missing base url (set %s)", EnvBaseURL))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("config: max_tokens must not be negative, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: temperature must be within [0, 2], got %g", c.Temperature))
	}
	return errors.Join(errs...)
}

// LogValue implements slog.LogValuer so the credential never reaches logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.String("model", c.Model),
		slog.Bool("api_key_set", c.APIKey != ""),
	)
}

// TelegramConfig holds the messaging transport settings.
type TelegramConfig struct {
	Token       string `yaml:"token"`        //nolint:gosec // configuration field, not a hardcoded secret
	APIEndpoint string `yaml:"api_endpoint"` // Format string with two %s verbs (token, method); empty uses api.telegram.org.
	Timeout     int    `yaml:"timeout"`      // Long-poll timeout in seconds.
	Debug       bool   `yaml:"debug"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`         // "text" or "json".
	StatsInterval string `yaml:"stats_interval"` // Duration string (e.g. "15m"); empty disables periodic stats.
}

// StatsEvery parses StatsInterval. Zero means disabled.
func (l LogConfig) StatsEvery() (time.Duration, error) {
	if l.StatsInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(l.StatsInterval)
	if err != nil {
		return 0, fmt.Errorf("config: stats_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: stats_interval: negative duration %s", d)
	}

	return d, nil
}

// Settings is the full process configuration.
type Settings struct {
	API      Config         `yaml:"api"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
}

// Validate checks that the bot can start.
func (s Settings) Validate() error {
	err := s.API.Validate()
	if s.Telegram.Token == "" {
		err = errors.Join(err, fmt.Errorf("config: missing telegram token (set %s)", EnvBotToken))
	}
	return err
}

// Load builds Settings from an optional YAML file and the environment.
// Environment variables referenced as ${VAR} or $VAR in the YAML are
// expanded before parsing. Non-empty environment variables then override
// file values. An empty path skips the file.
func Load(path string) (Settings, error) {
	var s Settings

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
		if err != nil {
			return Settings{}, fmt.Errorf("config: load: %w", err)
		}

		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &s); err != nil {
			return Settings{}, fmt.Errorf("config: parse: %w", err)
		}
	}

	overlay(&s.API.APIKey, EnvAPIKey)
	overlay(&s.API.BaseURL, EnvBaseURL)
	overlay(&s.API.Model, EnvModel)
	overlay(&s.API.Organization, EnvOrganization)
	overlay(&s.Telegram.Token, EnvBotToken)
	overlay(&s.Log.Level, EnvLogLevel)
	overlay(&s.Log.Format, EnvLogFormat)

	if s.API.Model == "" {
		s.API.Model = DefaultModel
	}
	if s.Telegram.Timeout <= 0 {
		s.Telegram.Timeout = 60
	}

	return s, nil
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
