package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	Environment string

	// History falls back to a single-file JSON store when no database is
	// configured.
	HistoryFile string

	// Pacing of the synthetic grading phase, one step per question.
	GradingStepMillis int
}

func LoadConfig() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		HistoryFile:       getEnv("HISTORY_FILE", "quiz_history.json"),
		GradingStepMillis: getEnvInt("GRADING_STEP_MILLIS", 400),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
