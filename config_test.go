package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewshell/events"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{"SOCKET", "CHROME_URL", "LOG_FILE", "LOG_LEVEL", "EVENT_BACKLOG"} {
		t.Setenv("VIEWSHELL_"+key, "")
		require.NoError(t, os.Unsetenv("VIEWSHELL_"+key))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, events.DefaultBacklog, cfg.EventBacklog)
	assert.Empty(t, cfg.ChromeURL)
	assert.Equal(t, "viewshell.sock", filepath.Base(cfg.SocketPath))
	assert.Equal(t, filepath.Join(configDir(), "logs", "viewshell.log"), cfg.LogFile)
}

func TestLoadConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VIEWSHELL_SOCKET", filepath.Join(dir, "s.sock"))
	t.Setenv("VIEWSHELL_CHROME_URL", "ws://127.0.0.1:9222/devtools/browser/abc")
	t.Setenv("VIEWSHELL_LOG_FILE", filepath.Join(dir, "v.log"))
	t.Setenv("VIEWSHELL_LOG_LEVEL", "debug")
	t.Setenv("VIEWSHELL_EVENT_BACKLOG", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, &Config{
		SocketPath:   filepath.Join(dir, "s.sock"),
		ChromeURL:    "ws://127.0.0.1:9222/devtools/browser/abc",
		LogFile:      filepath.Join(dir, "v.log"),
		LogLevel:     "debug",
		EventBacklog: 8,
	}, cfg)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("log level", func(t *testing.T) {
		t.Setenv("VIEWSHELL_LOG_LEVEL", "loud")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("backlog", func(t *testing.T) {
		t.Setenv("VIEWSHELL_EVENT_BACKLOG", "many")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		SocketPath: filepath.Join(dir, "run", "s.sock"),
		LogFile:    filepath.Join(dir, "logs", "v.log"),
	}

	require.NoError(t, cfg.ensureDirs())
	assert.DirExists(t, filepath.Join(dir, "run"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}
