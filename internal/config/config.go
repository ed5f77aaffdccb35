// Package config loads clarity's process configuration.
//
// Priority: defaults → YAML file → environment variables. A .env file is
// loaded into the environment first when present.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("clarity.yaml").
//	    WithEnvPrefix("CLARITY").
//	    Load()
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Prompts       PromptsConfig       `yaml:"prompts"`
	Static        StaticConfig        `yaml:"static"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxUploadBytes is the transport-level body cap.
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProvidersConfig selects and authenticates the generative providers.
type ProvidersConfig struct {
	// Generative is "gemini" or "openai".
	Generative   string `yaml:"generative"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`
}

// CredentialsConfig locates the Google Cloud service account file used by
// speech synthesis and text detection.
type CredentialsConfig struct {
	File string `yaml:"file"`
	// StripPrefixes are removed from File when it does not exist as given.
	StripPrefixes []string `yaml:"strip_prefixes"`
}

// TranscriptionConfig bounds asynchronous media processing.
type TranscriptionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
	// CleanupGrace delays temp file removal after transcription.
	CleanupGrace time.Duration `yaml:"cleanup_grace"`
}

// PromptsConfig overrides the embedded prompt templates.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// StaticConfig locates the frontend assets.
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig configures zap.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level"`
	// Format: json, console
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "",
			Port:            5000,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    15 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  16 * 1024 * 1024,
			CORSOrigins:     []string{"*"},
		},
		Providers: ProvidersConfig{
			Generative: "gemini",
		},
		Credentials: CredentialsConfig{
			StripPrefixes: []string{"backend/"},
		},
		Transcription: TranscriptionConfig{
			PollInterval: 2 * time.Second,
			MaxWait:      10 * time.Minute,
			CleanupGrace: time.Second,
		},
		Static: StaticConfig{
			Dir: "frontend",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks invariants the server relies on.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	switch c.Providers.Generative {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("providers.generative %q must be gemini or openai", c.Providers.Generative))
	}
	if c.Transcription.PollInterval <= 0 {
		errs = append(errs, errors.New("transcription.poll_interval must be positive"))
	}
	if c.Transcription.MaxWait < c.Transcription.PollInterval {
		errs = append(errs, errors.New("transcription.max_wait must be at least poll_interval"))
	}
	if c.Transcription.CleanupGrace < 0 {
		errs = append(errs, errors.New("transcription.cleanup_grace must not be negative"))
	}
	return errors.Join(errs...)
}

// Loader builds a Config.
type Loader struct {
	configPath string
	envPrefix  string
	dotenv     []string
}

// NewLoader returns a loader using the CLARITY env prefix and ./.env.
func NewLoader() *Loader {
	return &Loader{envPrefix: "CLARITY", dotenv: []string{".env"}}
}

// WithConfigPath sets the YAML file to read.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix for environment overrides.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithDotEnv replaces the list of .env files to load.
func (l *Loader) WithDotEnv(paths ...string) *Loader {
	l.dotenv = paths
	return l
}

// Load reads .env files, the YAML file and the environment, then validates.
func (l *Loader) Load() (Config, error) {
	if err := loadDotEnv(l.dotenv...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", l.configPath, err)
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads existing files without overriding variables already set.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	p := func(name string) string {
		if l.envPrefix == "" {
			return name
		}
		return l.envPrefix + "_" + name
	}

	// Unprefixed names kept for deployments that already export them.
	setString(&cfg.Providers.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.Providers.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Credentials.File, "GOOGLE_APPLICATION_CREDENTIALS")

	setString(&cfg.Server.Host, p("HOST"))
	setString(&cfg.Providers.Generative, p("GENERATIVE_PROVIDER"))
	setString(&cfg.Providers.GeminiAPIKey, p("GEMINI_API_KEY"))
	setString(&cfg.Providers.GeminiModel, p("GEMINI_MODEL"))
	setString(&cfg.Providers.OpenAIAPIKey, p("OPENAI_API_KEY"))
	setString(&cfg.Providers.OpenAIModel, p("OPENAI_MODEL"))
	setString(&cfg.Credentials.File, p("CREDENTIALS_FILE"))
	setList(&cfg.Credentials.StripPrefixes, p("CREDENTIALS_STRIP_PREFIXES"))
	setList(&cfg.Server.CORSOrigins, p("CORS_ORIGINS"))
	setString(&cfg.Prompts.Dir, p("PROMPTS_DIR"))
	setString(&cfg.Static.Dir, p("STATIC_DIR"))
	setString(&cfg.Log.Level, p("LOG_LEVEL"))
	setString(&cfg.Log.Format, p("LOG_FORMAT"))

	var errs []error
	errs = append(errs,
		setInt(&cfg.Server.Port, "PORT"),
		setInt(&cfg.Server.Port, p("PORT")),
		setInt64(&cfg.Server.MaxUploadBytes, p("MAX_UPLOAD_BYTES")),
		setDuration(&cfg.Server.ReadTimeout, p("READ_TIMEOUT")),
		setDuration(&cfg.Server.WriteTimeout, p("WRITE_TIMEOUT")),
		setDuration(&cfg.Server.ShutdownTimeout, p("SHUTDOWN_TIMEOUT")),
		setDuration(&cfg.Transcription.PollInterval, p("POLL_INTERVAL")),
		setDuration(&cfg.Transcription.MaxWait, p("MAX_WAIT")),
		setDuration(&cfg.Transcription.CleanupGrace, p("CLEANUP_GRACE")),
	)
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
