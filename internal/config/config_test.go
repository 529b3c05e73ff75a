package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromLegacyEnvNames(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MINI_APP_URL", "https://spot.example.com/")
	t.Setenv("PORT", "3000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Database.URI)
	assert.Equal(t, "spot_buddy", cfg.Database.Name)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, ":3000", cfg.Server.Address())
	assert.Equal(t, "UTC", cfg.App.DefaultTimezone)
	assert.Equal(t, "https://spot.example.com/mini-app", cfg.App.MiniAppURL())
	assert.Equal(t, "https://spot.example.com/webhook", cfg.App.WebhookURL())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfigFromFileAndNestedEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
database:
  uri: memory://
telegram:
  token: file-token
app:
  public_url: https://file.example.com
  default_timezone: Asia/Singapore
s3:
  bucket_name: exports
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("TELEGRAM_TOKEN", "env-token")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Database.InMemory())
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "Asia/Singapore", cfg.App.DefaultTimezone)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.S3.URLExpiry)
}

func TestValidateListsEveryMissingKey(t *testing.T) {
	err := Config{App: AppConfig{DefaultTimezone: "UTC"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.uri")
	assert.Contains(t, err.Error(), "telegram.token")
	assert.Contains(t, err.Error(), "app.public_url")
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{URI: MemoryDatabaseURI},
		Telegram: TelegramConfig{Token: "t"},
		App:      AppConfig{PublicURL: "https://x", DefaultTimezone: "Mars/Olympus"},
	}
	assert.ErrorContains(t, cfg.Validate(), "app.default_timezone")
}
