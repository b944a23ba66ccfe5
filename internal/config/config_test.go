package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileThenDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
  chat_id: 42
data_service:
  base_url: "https://prices.example.com"
  timeout: 5s
watchlist: [Milk, Eggs]
journal:
  sqlite_path: data/journal.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 5*time.Second, cfg.DataService.Timeout)
	assert.Equal(t, []string{"Milk", "Eggs"}, cfg.Watchlist)
	assert.Equal(t, "data/charts", cfg.Charts.OutputDir)
	assert.Equal(t, "0 0 9 * * 1", cfg.Schedule.DigestCron)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "telegram:\n  bot_token: file-token\n")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("DATA_SERVICE_URL", "http://10.0.0.5:5000")
	t.Setenv("DATA_SERVICE_TIMEOUT", "2s")
	t.Setenv("WATCHLIST", " Milk , ,Bread")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("CRON_DIGEST", "0 0 8 * * 5")
	t.Setenv("CRON_REFRESH", "0 */5 * * * *")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, "http://10.0.0.5:5000", cfg.DataService.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.DataService.Timeout)
	assert.Equal(t, []string{"Milk", "Bread"}, cfg.Watchlist)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "0 0 8 * * 5", cfg.Schedule.DigestCron)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.RefreshCron)
}

func TestLoad_BadLogJSON(t *testing.T) {
	t.Setenv("LOG_JSON", "sometimes")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "LOG_JSON")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.DataService.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.DataService.Timeout)
}

func TestLoad_BadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.ErrorContains(t, cfg.Validate(), "bot_token")

	cfg.Telegram.BotToken = "t"
	cfg.Watchlist = []string{"Milk"}
	assert.ErrorContains(t, cfg.Validate(), "chat_id")

	cfg.Telegram.ChatID = 1
	cfg.DataService.BaseURL = "localhost:5000"
	assert.ErrorContains(t, cfg.Validate(), "base_url")

	cfg.DataService.BaseURL = "http://localhost:5000"
	assert.NoError(t, cfg.Validate())
}
