package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000
cors_origin = "https://vidhub.example"

[auth]
access_token_secret = "file-access"
refresh_token_secret = "file-refresh"
access_token_ttl_minute = 30
refresh_token_ttl_hour = 72

[storage]
bucket = "media"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, "https://vidhub.example", cfg.App.CORSOrigin)
	assert.Equal(t, "file-access", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 72*time.Hour, cfg.RefreshTTL())
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "media", cfg.Storage.Bucket)
	assert.Equal(t, "video.watch.record", cfg.RabbitMQ.WatchEventQueue)
	assert.Equal(t, "0.0.0.0:9100", cfg.HTTPAddr())
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-port")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.True(t, cfg.Auth.CookieSecure)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.AccessTokenSecret = " " }},
		{name: "same secrets", mutate: func(c *Config) { c.Auth.RefreshTokenSecret = c.Auth.AccessTokenSecret }},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.AccessTokenTTLMinute = 0 }},
		{name: "access outlives refresh", mutate: func(c *Config) {
			c.Auth.AccessTokenTTLMinute = 120
			c.Auth.RefreshTokenTTLHour = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.Password = "pw"
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/vidhub?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}
