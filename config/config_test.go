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
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"telegram": {"token": "123:abc", "admin_id": 42},
		"feed": {"timeout": "5s"},
		"notifier": {"poll_interval": "10s"}
	}`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", c.Telegram.Token)
	assert.Equal(t, int64(42), c.Telegram.AdminID)
	assert.Equal(t, 5*time.Second, c.Feed.Timeout)
	assert.Equal(t, 10*time.Second, c.Notifier.PollInterval)
	assert.Equal(t, time.Minute, c.Notifier.IdleInterval)
	assert.Equal(t, "Asia/Singapore", c.TimeZone)
	assert.True(t, c.Refresh.OnStart)
	assert.Equal(t, ":5432", c.DB.Address)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `{"telegram": {"token": "from-file"}}`)
	t.Setenv("KAPBOT_TELEGRAM_TOKEN", "from-env")
	t.Setenv("KAPBOT_TIMEZONE", "UTC")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.Telegram.Token)
	assert.Equal(t, "UTC", c.TimeZone)
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `{}`)

	_, err := Load(path)

	assert.Error(t, err)
}
