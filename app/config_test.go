package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"UPSTREAM_URL", "UPSTREAM_TIMEOUT", "TEAM_KEYWORD", "EVENT_DURATION", "TIMEZONE_ID",
	"UID_DOMAIN", "FEED_PATH", "CALENDAR_NAME", "PORT", "LOG_LEVEL",
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range configEnv {
		unsetEnv(t, key)
	}

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// A file that sets one key leaves every other default in place.
func TestLoadConfigFileKeepsDefaults(t *testing.T) {
	for _, key := range configEnv {
		unsetEnv(t, key)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Port = "9000"
	assert.Equal(t, want, cfg)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TEAM_KEYWORD", "TORRENT")
	t.Setenv("EVENT_DURATION", "90m")
	t.Setenv("FEED_PATH", "/torrent.ics")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "TORRENT", cfg.TeamKeyword)
	assert.Equal(t, 90*time.Minute, cfg.EventDuration)
	assert.Equal(t, "/torrent.ics", cfg.FeedPath)
}

func TestLoadConfigFromFile(t *testing.T) {
	unsetEnv(t, "TEAM_KEYWORD")
	unsetEnv(t, "CALENDAR_NAME")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "team_keyword: MISLATA\ncalendar_name: Partidos Mislata\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "MISLATA", cfg.TeamKeyword)
	assert.Equal(t, "Partidos Mislata", cfg.CalendarName)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("EVENT_DURATION", "-1h")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "event_duration")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty url", func(c *Config) { c.UpstreamURL = "" }},
		{"empty keyword", func(c *Config) { c.TeamKeyword = "" }},
		{"zero duration", func(c *Config) { c.EventDuration = 0 }},
		{"empty timezone", func(c *Config) { c.TimezoneID = "" }},
		{"relative feed path", func(c *Config) { c.FeedPath = "xirivella.ics" }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
