package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MigrationsDir string
	CORSOrigin    string
	MeiliURL      string
	MeiliAPIKey   string
	// Redis Configuration
	RedisURL string
	// MinIO Configuration (issue photo attachments)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() Config {
	return Config{
		Addr: getenv("API_ADDR", ":8790"),
		// Empty DATABASE_URL runs the portal against the in-memory demo store.
		DatabaseURL:   getenv("DATABASE_URL", ""),
		JWTSecret:     getenv("CIVICPORT_JWT_SECRET", "civicport-dev-secret"),
		AccessTTL:     time.Duration(getenvInt("CIVICPORT_ACCESS_TTL_SECONDS", 900)) * time.Second,
		RefreshTTL:    time.Duration(getenvInt("CIVICPORT_REFRESH_TTL_SECONDS", 2592000)) * time.Second,
		MigrationsDir: getenv("CIVICPORT_MIGRATIONS_DIR", "./db/migrations"),
		CORSOrigin:    getenv("CIVICPORT_CORS_ORIGIN", "*"),
		MeiliURL:      getenv("MEILI_URL", ""),
		MeiliAPIKey:   getenv("MEILI_API_KEY", ""),
		// Redis - optional; refresh sessions fall back to the primary store
		RedisURL: getenv("REDIS_URL", ""),
		// MinIO - empty by default, photo uploads disabled if not configured
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "civicport-photos"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
