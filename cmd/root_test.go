package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"dedi/internal/api"
	"dedi/internal/config"
)

// resetViper clears shared viper state between tests. initConfig relies on
// package-level state, so tests have to serialize through this.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	cfg = config.Config{}
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
		cfg = config.Config{}
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitConfigReadsExplicitFile(t *testing.T) {
	resetViper(t)

	cfgFile = writeConfigFile(t, `
endpoint: https://registry.example.org
request_timeout: 30s
cache_ttl: 1m
watch_config: false
ui:
  show_status_bar: false
theme:
  highlight: "#FF00FF"
`)

	initConfig()

	require.Equal(t, "https://registry.example.org", cfg.Endpoint)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, time.Minute, cfg.CacheTTL)
	require.False(t, cfg.WatchConfig)
	require.False(t, cfg.UI.ShowStatusBar)
	require.Equal(t, "#FF00FF", cfg.Theme.Highlight)
}

func TestInitConfigFallsBackToDefaults(t *testing.T) {
	resetViper(t)

	// Explicit file that does not exist: no defaults get written anywhere,
	// the built-in values apply.
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	initConfig()

	defaults := config.Defaults()
	require.Equal(t, defaults.RequestTimeout, cfg.RequestTimeout)
	require.Equal(t, defaults.CacheTTL, cfg.CacheTTL)
	require.Equal(t, defaults.WatchConfig, cfg.WatchConfig)
	require.True(t, cfg.UI.ShowCounts)
	require.True(t, cfg.UI.ShowStatusBar)
	require.Equal(t, "dark", cfg.UI.MarkdownStyle)
}

func TestEmptyEndpointMeansSandbox(t *testing.T) {
	resetViper(t)

	cfgFile = writeConfigFile(t, "cache_ttl: 2m\n")
	initConfig()

	require.Empty(t, cfg.Endpoint)

	client, err := api.NewClient(api.Config{BaseURL: cfg.Endpoint, Timeout: cfg.RequestTimeout})
	require.NoError(t, err)
	require.Equal(t, api.DefaultBaseURL, client.BaseURL())
}

func TestLoadConfigPicksUpEdits(t *testing.T) {
	resetViper(t)

	path := writeConfigFile(t, "theme:\n  highlight: \"#0000FF\"\n")
	cfgFile = path
	initConfig()
	require.Equal(t, "#0000FF", cfg.Theme.Highlight)

	require.NoError(t, os.WriteFile(path, []byte("theme:\n  highlight: \"#00FF00\"\n"), 0o644))

	fresh, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "#00FF00", fresh.Theme.Highlight)
	// The original config value is untouched until the app applies the
	// reload.
	require.Equal(t, "#0000FF", cfg.Theme.Highlight)
}

func TestSetVersion(t *testing.T) {
	t.Cleanup(func() { SetVersion("dev") })

	SetVersion("1.2.3 (commit: abc, built: today)")
	require.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
}
