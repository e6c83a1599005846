package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultMaxUploadSizeMB, cfg.Upload.MaxSizeMB)
	assert.Equal(t, int64(DefaultMaxUploadSizeMB)*1024*1024, cfg.MaxUploadBytes())
	assert.Equal(t, 30, cfg.Upload.RateLimit)
	assert.Equal(t, 10*time.Minute, cfg.Upload.RateWindow)
	assert.Equal(t, 12*time.Hour, cfg.Session.Lifetime)
	assert.False(t, cfg.Session.SecureCookies)
	assert.Equal(t, "*/15 * * * *", cfg.Cleanup.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.WorkspaceMaxAge)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "8")
	t.Setenv("SESSION_LIFETIME", "30m")
	t.Setenv("WORKSPACE_DIR", "/var/lib/erratas")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("UPLOAD_RATE_LIMIT", "0")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, 8, cfg.Upload.MaxSizeMB)
	assert.Equal(t, 30*time.Minute, cfg.Session.Lifetime)
	assert.Equal(t, "/var/lib/erratas", cfg.Upload.WorkspaceDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Zero(t, cfg.Upload.RateLimit)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ERRATAS_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ERRATAS_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("ERRATAS_TEST_DOTENV"))
}
