package play

import (
	"go.uber.org/zap"

	"casefile/internal/assets"
	"casefile/internal/config"
	"casefile/internal/media"
	"casefile/internal/playback"
)

// resolvingPlayer rewrites service-relative asset paths before playing.
type resolvingPlayer struct {
	media.Player
	assets *assets.Client
}

func (p resolvingPlayer) Play(src string, done func(error)) error {
	return p.Player.Play(p.assets.Resolve(src), done)
}

// channelPlayers builds one player per audio channel. The returned close
// function waits for child processes to exit.
func channelPlayers(cfg config.Config, poster playback.Poster, vision *assets.Client, log *zap.Logger) (media.Players, func(), error) {
	if cfg.PlayerCommand == config.LogPlayerCommand {
		// A log player completes instantly, so a looping background track
		// would spin; leave it silent.
		return media.Players{
			Voice: playback.NewLogPlayer("voice", poster, log),
			Music: playback.NewLogPlayer("music", poster, log),
			SFX:   playback.NewLogPlayer("sfx", poster, log),
		}, func() {}, nil
	}

	var procs []*playback.CommandPlayer
	open := func(name string) (media.Player, error) {
		p, err := playback.NewCommandPlayer(cfg.PlayerCommand, poster, log.With(zap.String("channel", name)))
		if err != nil {
			return nil, err
		}
		procs = append(procs, p)
		return resolvingPlayer{Player: p, assets: vision}, nil
	}
	closeAll := func() {
		for _, p := range procs {
			p.Close()
		}
	}

	var players media.Players
	var err error
	if players.Voice, err = open("voice"); err != nil {
		return media.Players{}, closeAll, err
	}
	if players.Music, err = open("music"); err != nil {
		return media.Players{}, closeAll, err
	}
	if players.SFX, err = open("sfx"); err != nil {
		return media.Players{}, closeAll, err
	}
	if players.Background, err = open("background"); err != nil {
		return media.Players{}, closeAll, err
	}
	return players, closeAll, nil
}
