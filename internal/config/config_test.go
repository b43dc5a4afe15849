package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join("data", "facture.db"), cfg.Database.SQLitePath)
	assert.Equal(t, filepath.Join("data", "pdfs"), cfg.PDF.OutputDir)
	assert.Equal(t, 40.0, cfg.PDF.TopMarginMM)
	assert.Equal(t, "0.20", cfg.Tax.DefaultVATRate)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte("app:\n  port: \"9090\"\n  data_dir: /srv/facture\ndatabase:\n  driver: postgres\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	t.Setenv("FACTURE_LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/srv/facture", "pdfs"), cfg.PDF.OutputDir)
	assert.Contains(t, cfg.Database.PostgresDSN(), "@localhost:5432/facture?sslmode=disable")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("FACTURE_DATABASE_DRIVER", "oracle")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestAuthSecretRequiredInProduction(t *testing.T) {
	t.Setenv("FACTURE_APP_ENV", "production")
	t.Setenv("FACTURE_AUTH_ENABLED", "true")

	_, err := Load(t.TempDir())
	require.Error(t, err)
}
