package play

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casefile/cmd/casefile/internal"
	"casefile/internal/assets"
	"casefile/internal/config"
	"casefile/internal/loop"
	"casefile/internal/playback"
)

func TestNewPlayCommand(t *testing.T) {
	cmd := NewPlayCommand(&internal.GlobalOptions{})

	require.NotNil(t, cmd)
	assert.Equal(t, "play", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.NotNil(t, cmd.RunE)
	for _, name := range []string{"server", "player", "session", "single", "style", "connect", "alt-screen", "player-cmd", "bgm", "no-voice", "no-music", "no-sfx", "vision"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestChannelPlayersLogMode(t *testing.T) {
	cfg := config.Config{PlayerCommand: config.LogPlayerCommand}
	players, closeAll, err := channelPlayers(cfg, loop.New(0), assets.NewClient("http://vision", nil), zap.NewNop())
	require.NoError(t, err)
	defer closeAll()

	assert.IsType(t, &playback.LogPlayer{}, players.Voice)
	assert.IsType(t, &playback.LogPlayer{}, players.SFX)
	assert.Nil(t, players.Background)
}

func TestChannelPlayersCommandMode(t *testing.T) {
	cfg := config.Config{PlayerCommand: "true {src}"}
	players, closeAll, err := channelPlayers(cfg, loop.New(0), assets.NewClient("http://vision", nil), zap.NewNop())
	require.NoError(t, err)
	defer closeAll()

	for _, p := range []any{players.Voice, players.Music, players.SFX, players.Background} {
		assert.IsType(t, resolvingPlayer{}, p)
	}
}

func TestChannelPlayersEmptyCommand(t *testing.T) {
	_, closeAll, err := channelPlayers(config.Config{PlayerCommand: "  "}, loop.New(0), assets.NewClient("", nil), zap.NewNop())
	closeAll()
	require.ErrorIs(t, err, playback.ErrNoCommand)
}

type recordingPlayer struct {
	srcs []string
}

func (p *recordingPlayer) Play(src string, _ func(error)) error {
	p.srcs = append(p.srcs, src)
	return nil
}

func (p *recordingPlayer) Stop() {}

func TestResolvingPlayerPrefixesAssets(t *testing.T) {
	rec := &recordingPlayer{}
	p := resolvingPlayer{Player: rec, assets: assets.NewClient("http://vision:8004/", nil)}
	require.NoError(t, p.Play("/assets/voice/1.mp3", nil))
	require.NoError(t, p.Play("https://cdn/music.ogg", nil))
	assert.Equal(t, []string{"http://vision:8004/assets/voice/1.mp3", "https://cdn/music.ogg"}, rec.srcs)
}
