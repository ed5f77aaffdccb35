package clarity

import (
	"os"
	"strings"
)

// placeholderKeys are values copied from example env files that must never be
// sent to a provider.
var placeholderKeys = map[string]bool{
	"your_gemini_api_key": true,
	"GEMINI_API_KEY":      true,
	"your_openai_api_key": true,
	"OPENAI_API_KEY":      true,
}

// DefaultStripPrefixes are tried when a configured credential path does not
// exist relative to the working directory.
var DefaultStripPrefixes = []string{"backend/"}

// Credentials records which providers are usable. Build it once at startup
// and treat it as read-only.
type Credentials struct {
	GeminiAPIKey          string
	OpenAIAPIKey          string
	GoogleCredentialsFile string // already resolved; "" when unusable
}

// NewCredentials normalises raw configuration values. Placeholder keys are
// dropped and the Google credential path is resolved with stripPrefixes.
func NewCredentials(geminiKey, openaiKey, googleCredentialsFile string, stripPrefixes []string) Credentials {
	return Credentials{
		GeminiAPIKey:          usableKey(geminiKey),
		OpenAIAPIKey:          usableKey(openaiKey),
		GoogleCredentialsFile: ResolveCredentialsFile(googleCredentialsFile, stripPrefixes),
	}
}

func (c Credentials) HasGemini() bool      { return usableKey(c.GeminiAPIKey) != "" }
func (c Credentials) HasOpenAI() bool      { return usableKey(c.OpenAIAPIKey) != "" }
func (c Credentials) HasGenerative() bool  { return c.HasGemini() || c.HasOpenAI() }
func (c Credentials) HasGoogleCloud() bool { return c.GoogleCredentialsFile != "" }

// ResolveCredentialsFile returns path if it exists. Otherwise, for each prefix
// that path starts with, it returns the stripped path when that exists.
// It returns "" when nothing resolves.
func ResolveCredentialsFile(path string, stripPrefixes []string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if fileExists(path) {
		return path
	}
	for _, prefix := range stripPrefixes {
		if prefix == "" || !strings.HasPrefix(path, prefix) {
			continue
		}
		if stripped := strings.TrimPrefix(path, prefix); fileExists(stripped) {
			return stripped
		}
	}
	return ""
}

func usableKey(key string) string {
	key = strings.TrimSpace(key)
	if placeholderKeys[key] {
		return ""
	}
	return key
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
