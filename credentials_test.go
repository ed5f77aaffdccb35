package clarity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentials_Placeholders(t *testing.T) {
	for _, key := range []string{"your_gemini_api_key", "GEMINI_API_KEY", "your_openai_api_key", "OPENAI_API_KEY", "", "  "} {
		c := NewCredentials(key, key, "", nil)
		assert.False(t, c.HasGemini(), "gemini key %q", key)
		assert.False(t, c.HasOpenAI(), "openai key %q", key)
		assert.False(t, c.HasGenerative())
	}

	c := NewCredentials(" AIza-real ", "", "", nil)
	assert.True(t, c.HasGemini())
	assert.True(t, c.HasGenerative())
	assert.Equal(t, "AIza-real", c.GeminiAPIKey)
}

func TestResolveCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile("creds.json", []byte("{}"), 0o600))

	assert.Equal(t, "creds.json", ResolveCredentialsFile("creds.json", DefaultStripPrefixes))
	assert.Equal(t, "creds.json", ResolveCredentialsFile("backend/creds.json", DefaultStripPrefixes))
	assert.Empty(t, ResolveCredentialsFile("backend/creds.json", nil))
	assert.Empty(t, ResolveCredentialsFile("other/creds.json", DefaultStripPrefixes))
	assert.Empty(t, ResolveCredentialsFile("", DefaultStripPrefixes))

	abs := filepath.Join(dir, "creds.json")
	c := NewCredentials("", "", abs, nil)
	assert.True(t, c.HasGoogleCloud())
	assert.Equal(t, abs, c.GoogleCredentialsFile)
}
