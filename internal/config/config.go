package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	DBDriver       string // sqlite, mysql or postgres
	DBDSN          string
	JWTSecret      string
	JWTExpireHours int
	OpenAIAPIKey   string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "project_management.db"),
		JWTSecret:      getEnv("JWT_SECRET", "default-secret-key-change-me"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
	}
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
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
