package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"podcast-notes-go/internal/types"
)

const DefaultMaxAudioBytes = 25 * 1024 * 1024 // provider hard ceiling

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	TranscriptionModel string
	SummaryModel       string
	Language           string

	SupabaseURL        string
	SupabaseServiceKey string
	AudioBucket        string

	StoreBackend  string // supabase, postgres, sqlite, mongo, memory
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	MaxAudioBytes        int64
	MaxBodyBytes         int64
	RetrievalTimeout     time.Duration
	TranscriptionTimeout time.Duration
	SummaryTimeout       time.Duration

	JWTSecret   string
	CORSOrigins []string
}

// Load reads the process environment once. Call godotenv before it when a
// .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        envOr("PORT", "8080"),
		Environment: envOr("ENVIRONMENT", "local"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      strings.TrimRight(envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		TranscriptionModel: envOr("TRANSCRIPTION_MODEL", "whisper-1"),
		SummaryModel:       envOr("SUMMARY_MODEL", "gpt-4o-mini"),
		Language:           envOr("TRANSCRIPTION_LANGUAGE", "en"),

		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		AudioBucket:        envOr("AUDIO_BUCKET", "audio-files"),

		StoreBackend:  strings.ToLower(envOr("STORE_BACKEND", "supabase")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: envOr("MONGO_DATABASE", "podcasts"),

		JWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		CORSOrigins: splitList(envOr("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.MaxAudioBytes, err = envInt64("MAX_AUDIO_BYTES", DefaultMaxAudioBytes); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes, err = envInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return nil, err
	}
	if cfg.RetrievalTimeout, err = envDuration("RETRIEVAL_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.TranscriptionTimeout, err = envDuration("TRANSCRIPTION_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.SummaryTimeout, err = envDuration("SUMMARY_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireProvider reports a missing provider credential. It is checked per
// invocation so the service still boots and answers with a 500.
func (c *Config) RequireProvider() error {
	if c.OpenAIAPIKey == "" {
		return &types.ConfigError{Msg: "OpenAI API key not configured. Please add OPENAI_API_KEY to the service environment."}
	}
	return nil
}

// Production reports whether .env loading and pretty logs should be skipped.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("%w: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required", types.ErrConfig)
		}
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for store backend %q", types.ErrConfig, c.StoreBackend)
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required for store backend mongo", types.ErrConfig)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", types.ErrConfig, c.StoreBackend)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt64(k string, def int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", types.ErrConfig, k, v)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration, got %q", types.ErrConfig, k, v)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
