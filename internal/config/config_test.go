package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/protocol"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:65432/ws", cfg.ServerURL)
	assert.Equal(t, "Marlow", cfg.Player)
	assert.Equal(t, "demo-1", cfg.SessionID)
	assert.True(t, cfg.SinglePlayer)
	assert.True(t, cfg.Voice)
	assert.True(t, cfg.Music)
	assert.True(t, cfg.SFX)
	assert.Equal(t, "http://localhost:8004", cfg.VisionBase)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CASEFILE_PLAYER", "Spade")
	t.Setenv("CASEFILE_SINGLE_PLAYER", "false")
	t.Setenv("CASEFILE_SFX", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Spade", cfg.Player)
	assert.False(t, cfg.SinglePlayer)
	assert.False(t, cfg.SFX)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CASEFILE_SESSION_ID=harbor-7\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CASEFILE_SESSION_ID") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "harbor-7", cfg.SessionID)
}

func TestLoadMissingDotEnvIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestNormalize(t *testing.T) {
	cfg := Config{
		ServerURL:  " ws://host/ws ",
		Player:     " Marlow ",
		VisionBase: "http://vision/",
		LogLevel:   "DEBUG",
	}
	cfg.Normalize()

	assert.Equal(t, "ws://host/ws", cfg.ServerURL)
	assert.Equal(t, "Marlow", cfg.Player)
	assert.Equal(t, "http://vision", cfg.VisionBase)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, protocol.DefaultBotStyle, cfg.BotStyle)
	assert.True(t, strings.HasPrefix(cfg.SessionID, "sess-"))
	assert.Len(t, cfg.SessionID, len("sess-")+36)
}

func TestValidate(t *testing.T) {
	ok := Config{ServerURL: "wss://game.example/ws", Player: "Marlow"}
	assert.NoError(t, ok.Validate())

	bad := map[string]Config{
		"no player":   {ServerURL: "ws://host/ws"},
		"http scheme": {ServerURL: "http://host/ws", Player: "p"},
		"no host":     {ServerURL: "ws:///ws", Player: "p"},
	}
	for name, cfg := range bad {
		assert.Error(t, cfg.Validate(), name)
	}
}
