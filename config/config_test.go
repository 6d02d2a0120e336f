package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "SERVER_PORT", "LOG_LEVEL", "DEFAULT_GAME_TIME_SECONDS",
		"REDIS_URL", "EVENT_STREAM_PREFIX", "CORS_ALLOWED_ORIGINS",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/pong")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 600, cfg.DefaultGameTime)
	assert.Equal(t, "pong.events", cfg.EventStreamPrefix)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.RedisURL)
	assert.Nil(t, cfg.R2)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/pong")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_GAME_TIME_SECONDS", "420")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "archive")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 420, cfg.DefaultGameTime)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	require.NotNil(t, cfg.R2)
	assert.Equal(t, "archive", cfg.R2.BucketName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database url", env: map[string]string{}},
		{name: "bad port", env: map[string]string{"DATABASE_URL": "x", "SERVER_PORT": "http"}},
		{name: "port out of range", env: map[string]string{"DATABASE_URL": "x", "SERVER_PORT": "70000"}},
		{name: "bad log level", env: map[string]string{"DATABASE_URL": "x", "LOG_LEVEL": "loud"}},
		{name: "non-positive game time", env: map[string]string{"DATABASE_URL": "x", "DEFAULT_GAME_TIME_SECONDS": "0"}},
		{name: "partial r2", env: map[string]string{"DATABASE_URL": "x", "R2_BUCKET_NAME": "archive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
