package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := `{
		"port": 9090,
		"ws_port": 9091,
		"log_level": "debug",
		"nats_url": "nats://localhost:4222",
		"default_room": "Lobby"
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 9091, cfg.WSPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "Lobby", cfg.DefaultRoom)
}

func TestReadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0, cfg.WSPort, "gateway is off unless configured")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "General", cfg.DefaultRoom)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
