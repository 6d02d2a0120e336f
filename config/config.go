package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	DatabaseURL     string
	ServerPort      int
	LogLevel        slog.Level
	DefaultGameTime int

	RedisURL          string
	EventStreamPrefix string

	CORSAllowedOrigins []string

	R2 *R2Config
}

// R2Config is set only when every R2_* variable is present.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Load reads configuration from the environment. A .env file, if present,
// is loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	gameTime, err := intEnv("DEFAULT_GAME_TIME_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	if gameTime <= 0 {
		return nil, fmt.Errorf("DEFAULT_GAME_TIME_SECONDS must be positive, got %d", gameTime)
	}

	r2, err := loadR2()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		ServerPort:         port,
		LogLevel:           level,
		DefaultGameTime:    gameTime,
		RedisURL:           os.Getenv("REDIS_URL"),
		EventStreamPrefix:  envOr("EVENT_STREAM_PREFIX", "pong.events"),
		CORSAllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		R2:                 r2,
	}
	return cfg, nil
}

func loadR2() (*R2Config, error) {
	r2 := &R2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	values := []string{r2.AccountID, r2.AccessKeyID, r2.SecretAccessKey, r2.BucketName, r2.PublicBaseURL}
	set := 0
	for _, v := range values {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case len(values):
		return r2, nil
	}
	return nil, fmt.Errorf("R2 storage is partially configured: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
