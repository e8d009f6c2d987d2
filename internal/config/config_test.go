package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"SERVER_HOST", "PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET", "JWT_TTL", "JWT_ISSUER", "PASSWORD_HASHING",
	"BCRYPT_COST", "CATALOG_PATH", "AUDIT_LOG_PATH", "AUDIT_MAX_ENTRIES", "CORS_ALLOWED_ORIGINS",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		if prev, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Auth, cfg.Auth)
	assert.Equal(t, 200, cfg.Audit.MaxEntries)
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins())
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("PASSWORD_HASHING", "BCRYPT")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, HashingBcrypt, cfg.Auth.Hashing)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nLOG_FORMAT=json\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"hashing", func(c *Config) { c.Auth.Hashing = "md5" }},
		{"audit", func(c *Config) { c.Audit.MaxEntries = -1 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
