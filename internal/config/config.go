package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	SourceWebSearch = "websearch"
	SourceForum     = "forum"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"

	PolicyFailClosed  = "fail-closed"
	PolicyDatedSearch = "dated-search"
)

type Config struct {
	Port          string
	Secret        string
	FrontendURL   string
	LogLevel      slog.Level
	Store         string
	DatabaseURL   string
	MongoURI      string
	RedisURL      string
	CacheTTL      time.Duration
	Location      *time.Location
	Source        string
	HistoryPolicy string

	SearchProvider  string
	LLMProvider     string
	SummaryStrategy string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DigestModel     string
	AskModel        string
	SearchModel     string

	// AskRateLimit is requests per minute per client IP.
	AskRateLimit int
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Secret:          os.Getenv("DIGEST_SECRET"),
		FrontendURL:     os.Getenv("FRONTEND_URL"),
		Store:           strings.ToLower(getEnv("DIGEST_STORE", StorePostgres)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		RedisURL:        os.Getenv("REDIS_URL"),
		Source:          strings.ToLower(getEnv("DIGEST_SOURCE", SourceWebSearch)),
		HistoryPolicy:   strings.ToLower(getEnv("HISTORY_POLICY", PolicyFailClosed)),
		SearchProvider:  strings.ToLower(getEnv("SEARCH_PROVIDER", ProviderAnthropic)),
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderAnthropic)),
		SummaryStrategy: strings.ToLower(getEnv("SUMMARY_STRATEGY", "select")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		DigestModel:     os.Getenv("DIGEST_MODEL"),
		AskModel:        os.Getenv("ASK_MODEL"),
		SearchModel:     os.Getenv("SEARCH_MODEL"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	if cfg.Location, err = time.LoadLocation(getEnv("DIGEST_TIMEZONE", "Local")); err != nil {
		return nil, fmt.Errorf("DIGEST_TIMEZONE: %w", err)
	}

	if cfg.AskRateLimit, err = strconv.Atoi(getEnv("ASK_RATE_LIMIT", "20")); err != nil {
		return nil, fmt.Errorf("ASK_RATE_LIMIT: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the API server needs. Batch commands that
// never serve HTTP skip the secret check.
func (c *Config) Validate(requireSecret bool) error {
	if requireSecret && c.Secret == "" {
		return fmt.Errorf("DIGEST_SECRET is not set")
	}

	if err := oneOf("DIGEST_STORE", c.Store, StorePostgres, StoreMongo); err != nil {
		return err
	}
	if err := oneOf("DIGEST_SOURCE", c.Source, SourceWebSearch, SourceForum); err != nil {
		return err
	}
	if err := oneOf("HISTORY_POLICY", c.HistoryPolicy, PolicyFailClosed, PolicyDatedSearch); err != nil {
		return err
	}
	if err := oneOf("SEARCH_PROVIDER", c.SearchProvider, ProviderAnthropic, ProviderGemini); err != nil {
		return err
	}
	if err := oneOf("LLM_PROVIDER", c.LLMProvider, ProviderAnthropic, ProviderOpenAI, ProviderGemini); err != nil {
		return err
	}
	if err := oneOf("SUMMARY_STRATEGY", c.SummaryStrategy, "select", "echo"); err != nil {
		return err
	}

	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.Store == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is not set")
	}

	if c.AskRateLimit <= 0 {
		return fmt.Errorf("ASK_RATE_LIMIT must be positive")
	}

	if c.Source == SourceWebSearch {
		if err := c.requireKey(c.SearchProvider); err != nil {
			return err
		}
	}
	return c.requireKey(c.LLMProvider)
}

// APIKey returns the key configured for provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GoogleAPIKey
	}
	return ""
}

func (c *Config) requireKey(provider string) error {
	if c.APIKey(provider) != "" {
		return nil
	}
	switch provider {
	case ProviderOpenAI:
		return fmt.Errorf("OPENAI_API_KEY is not set")
	case ProviderGemini:
		return fmt.Errorf("GOOGLE_API_KEY is not set")
	default:
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
