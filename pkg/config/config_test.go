package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
api:
  api_key: ${TEST_CHATRELAY_KEY}
  base_url: https://api.example.com/v1
  organization: the-continental
  max_tokens: 512
  temperature: 0.3
telegram:
  token: bot-token
  timeout: 30
log:
  level: debug
  format: json
  stats_interval: 15m
`

// clearEnv blanks every variable Load reads so the host environment does
// not leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{EnvAPIKey, EnvBaseURL, EnvModel, EnvOrganization, EnvBotToken, EnvLogLevel, EnvLogFormat} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chatrelay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_CHATRELAY_KEY", "sk-from-env")

	s, err := Load(writeFile(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", s.API.APIKey)
	assert.Equal(t, "https://api.example.com/v1", s.API.BaseURL)
	assert.Equal(t, DefaultModel, s.API.Model)
	assert.Equal(t, "the-continental", s.API.Organization)
	assert.Equal(t, 512, s.API.MaxTokens)
	assert.InDelta(t, 0.3, s.API.Temperature, 1e-9)
	assert.Equal(t, "bot-token", s.Telegram.Token)
	assert.Equal(t, 30, s.Telegram.Timeout)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	require.NoError(t, s.Validate())

	every, err := s.Log.StatsEvery()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, every)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "https://override.example.com/v1")
	t.Setenv(EnvModel, "m2")

	s, err := Load(writeFile(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com/v1", s.API.BaseURL)
	assert.Equal(t, "m2", s.API.Model)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk")
	t.Setenv(EnvBaseURL, "https://api.example.com/v1")
	t.Setenv(EnvBotToken, "tok")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Config{APIKey: "sk", BaseURL: "https://api.example.com/v1", Model: DefaultModel}, s.API)
	assert.Equal(t, 60, s.Telegram.Timeout)
	assert.NoError(t, s.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: load")
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "api: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestSettingsValidate_Missing(t *testing.T) {
	err := Settings{}.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), EnvAPIKey)
	assert.Contains(t, err.Error(), EnvBaseURL)
	assert.Contains(t, err.Error(), EnvBotToken)
}

func TestConfigValidate_SamplingBounds(t *testing.T) {
	base := Config{APIKey: "k", BaseURL: "A"}

	ok := base
	ok.MaxTokens, ok.Temperature = 1024, 2
	assert.NoError(t, ok.Validate())

	bad := base
	bad.MaxTokens, bad.Temperature = -1, 2.5
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
	assert.Contains(t, err.Error(), "temperature")
}

func TestWithers_DoNotMutateReceiver(t *testing.T) {
	orig := Config{APIKey: "k", BaseURL: "A", Model: "m1"}

	url := orig.WithBaseURL("B")
	model := orig.WithModel("m2")

	assert.Equal(t, Config{APIKey: "k", BaseURL: "A", Model: "m1"}, orig)
	assert.Equal(t, "B", url.BaseURL)
	assert.Equal(t, "m1", url.Model)
	assert.Equal(t, "m2", model.Model)
	assert.Equal(t, "A", model.BaseURL)
}

func TestWithers_AcceptAnything(t *testing.T) {
	c := Config{}.WithBaseURL("not a url").WithModel("")

	assert.Equal(t, "not a url", c.BaseURL)
	assert.Empty(t, c.Model)
}

func TestLogValue_RedactsKey(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	log.Info("cfg", "api", Config{APIKey: "sk-secret", BaseURL: "A", Model: "m1"})

	out := buf.String()
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "api.base_url=A")
	assert.Contains(t, out, "api.api_key_set=true")
}

func TestStatsEvery(t *testing.T) {
	d, err := LogConfig{}.StatsEvery()
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = LogConfig{StatsInterval: "soon"}.StatsEvery()
	assert.ErrorContains(t, err, "config: stats_interval")

	_, err = LogConfig{StatsInterval: "-1m"}.StatsEvery()
	assert.ErrorContains(t, err, "negative")
}
