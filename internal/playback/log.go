package playback

import "go.uber.org/zap"

// LogPlayer records sources instead of playing them. It completes each source
// immediately, which keeps queues moving when no player binary is installed.
type LogPlayer struct {
	Channel string
	poster  Poster
	log     *zap.Logger
}

func NewLogPlayer(channel string, poster Poster, log *zap.Logger) *LogPlayer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPlayer{Channel: channel, poster: poster, log: log}
}

func (p *LogPlayer) Play(src string, done func(error)) error {
	p.log.Info("play", zap.String("channel", p.Channel), zap.String("src", src))
	if done != nil && p.poster != nil {
		p.poster.Post(func() { done(nil) })
	}
	return nil
}

func (p *LogPlayer) Stop() {}
