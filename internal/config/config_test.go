package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv masks variables that a developer machine may export.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS", "PORT",
		"CLARITY_PORT", "CLARITY_GENERATIVE_PROVIDER", "CLARITY_MAX_WAIT", "CLARITY_POLL_INTERVAL",
		"CLARITY_CREDENTIALS_STRIP_PREFIXES", "CLARITY_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(16*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 2*time.Second, cfg.Transcription.PollInterval)
	assert.Equal(t, time.Second, cfg.Transcription.CleanupGrace)
	assert.Equal(t, []string{"backend/"}, cfg.Credentials.StripPrefixes)
	assert.Equal(t, ":5000", cfg.Server.Addr())
}

func TestLoader_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "clarity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
providers:
  generative: openai
  openai_model: gpt-4.1
transcription:
  poll_interval: 500ms
  max_wait: 2m
log:
  level: debug
`), 0o600))

	cfg, err := NewLoader().WithDotEnv().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Providers.Generative)
	assert.Equal(t, "gpt-4.1", cfg.Providers.OpenAIModel)
	assert.Equal(t, 500*time.Millisecond, cfg.Transcription.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Transcription.MaxWait)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched defaults survive
	assert.Equal(t, time.Second, cfg.Transcription.CleanupGrace)
}

func TestLoader_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "backend/creds.json")
	t.Setenv("PORT", "7000")
	t.Setenv("CLARITY_PORT", "7001")
	t.Setenv("CLARITY_MAX_WAIT", "90s")
	t.Setenv("CLARITY_CREDENTIALS_STRIP_PREFIXES", "backend/, server/")

	cfg, err := NewLoader().WithDotEnv().Load()
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Providers.GeminiAPIKey)
	assert.Equal(t, "backend/creds.json", cfg.Credentials.File)
	assert.Equal(t, 7001, cfg.Server.Port, "prefixed variable wins")
	assert.Equal(t, 90*time.Second, cfg.Transcription.MaxWait)
	assert.Equal(t, []string{"backend/", "server/"}, cfg.Credentials.StripPrefixes)
}

func TestLoader_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLARITY_TEST_DOTENV_KEY=from-dotenv\nCLARITY_LOG_LEVEL=warn\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CLARITY_TEST_DOTENV_KEY") })
	// godotenv never overrides variables that are already set
	os.Unsetenv("CLARITY_LOG_LEVEL")

	cfg, err := NewLoader().WithDotEnv(path, filepath.Join(t.TempDir(), "missing.env")).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", os.Getenv("CLARITY_TEST_DOTENV_KEY"))
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"CLARITY_PORT": "abc"}},
		{"port out of range", map[string]string{"CLARITY_PORT": "70000"}},
		{"bad duration", map[string]string{"CLARITY_POLL_INTERVAL": "soon"}},
		{"unknown provider", map[string]string{"CLARITY_GENERATIVE_PROVIDER": "llama"}},
		{"max wait below poll", map[string]string{"CLARITY_POLL_INTERVAL": "10s", "CLARITY_MAX_WAIT": "1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewLoader().WithDotEnv().Load()
			assert.Error(t, err)
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := NewLoader().WithDotEnv().WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	assert.Error(t, err)
}
