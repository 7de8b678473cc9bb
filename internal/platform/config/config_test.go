package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "pet-records", cfg.App.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Breeds.CacheTTL)
	assert.Equal(t, 5, cfg.Login.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Login.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.DB.DSN)
	assert.Equal(t, "/media", cfg.Photos.BaseURL)
	assert.Equal(t, "pet-records", cfg.JWT.Issuer)
	assert.Empty(t, cfg.Admin.Email)
	assert.Equal(t, "DNI", cfg.Admin.NationalIDType)
}

func TestLoad_AdminBootstrapFromEnv(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "root@suavespets.org")
	t.Setenv("ADMIN_PASSWORD", "s3cretpass")
	t.Setenv("ADMIN_NATIONAL_ID", "30111222")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "root@suavespets.org", cfg.Admin.Email)
	assert.Equal(t, "s3cretpass", cfg.Admin.Password)
	assert.Equal(t, "30111222", cfg.Admin.NationalID)
	assert.Equal(t, "Administrador", cfg.Admin.Name)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nLOGIN_WINDOW=10m\nBREED_CACHE_TTL=3600\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("JWT_TTL", "nonsense")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port, "env wins over file")
	assert.Equal(t, 10*time.Minute, cfg.Login.Window)
	assert.Equal(t, time.Hour, cfg.Breeds.CacheTTL, "integer values are seconds")
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL, "invalid durations fall back to default")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
