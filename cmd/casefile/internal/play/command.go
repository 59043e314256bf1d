package play

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casefile/cmd/casefile/internal"
	"casefile/internal/assets"
	"casefile/internal/engine"
	"casefile/internal/loop"
	"casefile/internal/protocol"
	"casefile/internal/tui"
)

type options struct {
	server     string
	player     string
	session    string
	single     bool
	style      string
	connect    bool
	altScreen  bool
	playerCmd  string
	background string
	noVoice    bool
	noMusic    bool
	noSFX      bool
	visionBase string
}

func NewPlayCommand(globals *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the interactive case client",
		Args:  cobra.NoArgs,
		Example: `  casefile play
  casefile play --server ws://localhost:65432/ws --player Marlow --connect
  casefile play --session new --player-cmd log --log-file casefile.log`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, globals, opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "game server websocket URL")
	cmd.Flags().StringVar(&opts.player, "player", "", "player name sent at login")
	cmd.Flags().StringVar(&opts.session, "session", "", `session id ("new" for a fresh one)`)
	cmd.Flags().BoolVar(&opts.single, "single", true, "play alone instead of joining a shared session")
	cmd.Flags().StringVar(&opts.style, "style", "", "companion bot style sent at login")
	cmd.Flags().BoolVar(&opts.connect, "connect", false, "connect as soon as the client starts")
	cmd.Flags().BoolVar(&opts.altScreen, "alt-screen", true, "use the terminal's alternate screen")
	cmd.Flags().StringVar(&opts.playerCmd, "player-cmd", "", `audio player command, {src} marks the source ("log" to only record)`)
	cmd.Flags().StringVar(&opts.background, "bgm", "", "background track looped while the client runs")
	cmd.Flags().BoolVar(&opts.noVoice, "no-voice", false, "start with the voice channel muted")
	cmd.Flags().BoolVar(&opts.noMusic, "no-music", false, "start with the music channel muted")
	cmd.Flags().BoolVar(&opts.noSFX, "no-sfx", false, "start with sound effects muted")
	cmd.Flags().StringVar(&opts.visionBase, "vision", "", "asset service base URL")

	return cmd
}

func run(cmd *cobra.Command, globals *internal.GlobalOptions, opts options) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = opts.server
	}
	if flags.Changed("player") {
		cfg.Player = opts.player
	}
	if flags.Changed("session") {
		cfg.SessionID = opts.session
		if opts.session == "new" {
			cfg.SessionID = ""
		}
	}
	if flags.Changed("single") {
		cfg.SinglePlayer = opts.single
	}
	if flags.Changed("style") {
		cfg.BotStyle = opts.style
	}
	if flags.Changed("connect") {
		cfg.AutoConnect = opts.connect
	}
	if flags.Changed("player-cmd") {
		cfg.PlayerCommand = opts.playerCmd
	}
	if flags.Changed("bgm") {
		cfg.BackgroundMusic = opts.background
	}
	if flags.Changed("vision") {
		cfg.VisionBase = opts.visionBase
	}
	cfg.Voice = cfg.Voice && !opts.noVoice
	cfg.Music = cfg.Music && !opts.noMusic
	cfg.SFX = cfg.SFX && !opts.noSFX
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := internal.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	vision := assets.NewClient(cfg.VisionBase, nil)
	events := loop.New(0)
	players, closePlayers, err := channelPlayers(cfg, events, vision, log.Named("playback"))
	if err != nil {
		closePlayers()
		return err
	}
	defer closePlayers()

	e := engine.New(engine.Settings{
		ServerURL:    cfg.ServerURL,
		Player:       cfg.Player,
		SessionID:    cfg.SessionID,
		SinglePlayer: cfg.SinglePlayer,
		BotStyle:     cfg.BotStyle,
	}, engine.Options{
		Loop:    events,
		Players: players,
		Log:     log,
		OnEvent: func(ev protocol.Event) {
			log.Debug("event routed", zap.String("type", ev.Kind()))
		},
	})
	e.Media.Voice.SetEnabled(cfg.Voice)
	e.Media.Music.SetEnabled(cfg.Music)
	e.Media.SFX.SetEnabled(cfg.SFX)
	e.Media.Background.SetTrack(cfg.BackgroundMusic)

	log.Info("starting client",
		zap.String("server", cfg.ServerURL),
		zap.String("player", cfg.Player),
		zap.String("session", cfg.SessionID))

	return tui.Run(cmd.Context(), e, vision, tui.Options{
		AltScreen:       opts.altScreen,
		AutoConnect:     cfg.AutoConnect,
		BackgroundMusic: cfg.BackgroundMusic != "",
		Log:             log.Named("tui"),
	})
}
