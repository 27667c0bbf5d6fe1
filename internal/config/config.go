package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Storage
	RedisURL string

	// NLP (OpenAI-compatible chat completions)
	OpenAIAPIKey   string
	OpenAIEndpoint string
	OpenAIModel    string
	NLPTimeout     time.Duration

	// Effectors
	SlackWebhookURL string

	// API
	APIPort            string
	RateLimitPerMinute int
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIEndpoint: getEnv("OPENAI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		NLPTimeout:     time.Duration(getEnvInt("NLP_TIMEOUT_SECONDS", 30)) * time.Second,

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		APIPort:            getEnv("API_PORT", "3000"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

func (c *Config) Validate(log *zap.Logger) {
	if c.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, natural-language parsing is disabled until a key is configured")
	}
	if c.SlackWebhookURL == "" {
		log.Warn("SLACK_WEBHOOK_URL is not set, SLACK actions will only be recorded in the activity log")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
