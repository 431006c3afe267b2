package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	StoragePath    string
	StorageBaseURL string

	OpenAIAPIKey     string
	OpenAIChatModel  string
	OpenAIImageModel string
	OpenAIBaseURL    string

	// Job store driver: memory (default), redis, or postgres.
	JobStoreDriver string
	RedisAddr      string
	RedisDB        int
	DatabaseURL    string

	// Server-side watchdog deadline for one detached generation task.
	GenerationDeadline time.Duration
	// Retention window for terminal jobs in the in-memory store.
	JobRetention time.Duration
	// Worker pool size for detached generation tasks.
	WorkerCount int

	// Client polling policy, advertised to CLI tooling via defaults.
	PollInterval time.Duration
	PollBudget   int

	HTTPReadTimeout       time.Duration
	HTTPReadHeaderTimeout time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIChatModel:  getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		JobStoreDriver: getEnv("JOB_STORE_DRIVER", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		GenerationDeadline: time.Second * time.Duration(getEnvInt("GENERATION_DEADLINE_SECONDS", 120)),
		JobRetention:       time.Minute * time.Duration(getEnvInt("JOB_RETENTION_MINUTES", 60)),
		WorkerCount:        getEnvInt("WORKER_COUNT", 4),

		PollInterval: time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		PollBudget:   getEnvInt("POLL_BUDGET", 30),

		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPReadHeaderTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_HEADER_TIMEOUT_SECONDS", 5)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
