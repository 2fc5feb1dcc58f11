package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is loaded once at process start and immutable afterwards.
// BaseURL is the public prefix every short URL is derived from.
type Config struct {
	Port          string
	DatabaseURL   string
	AppEnv        string
	BaseURL       string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:        getEnv("APP_ENV", "local"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		RedisAddr:     getEnv("REDIS_ADDR", ""), // empty disables the resolver cache
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
