package media

import "go.uber.org/zap"

// Channel is a single-slot audio track such as the narrator voice or the
// per-scene score.
type Channel struct {
	name    string
	player  Player
	log     *zap.Logger
	enabled bool
	current string
	playing bool
	gen     uint64
}

func NewChannel(name string, player Player, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{name: name, player: orSilent(player), log: log, enabled: true}
}

// Submit replaces the current source and starts it. A disabled channel
// ignores the source but leaves audio already in flight alone. Start
// failures are swallowed.
func (c *Channel) Submit(src string) {
	if src == "" || !c.enabled {
		return
	}
	if c.playing {
		c.player.Stop()
	}
	c.gen++
	gen := c.gen
	c.current = src
	c.playing = true
	err := c.player.Play(src, func(err error) {
		if gen != c.gen {
			return
		}
		c.playing = false
		if err != nil {
			c.log.Debug("playback ended with error", zap.String("channel", c.name), zap.String("src", src), zap.Error(err))
		}
	})
	if err != nil {
		c.playing = false
		c.log.Debug("playback start failed", zap.String("channel", c.name), zap.String("src", src), zap.Error(err))
	}
}

// SetEnabled gates new sources only.
func (c *Channel) SetEnabled(enabled bool) {
	c.enabled = enabled
}

func (c *Channel) Enabled() bool {
	return c.enabled
}

// Current is the last source the channel accepted.
func (c *Channel) Current() string {
	return c.current
}

func (c *Channel) Playing() bool {
	return c.playing
}

func (c *Channel) Stop() {
	c.gen++
	c.playing = false
	c.player.Stop()
}

// Background loops a fixed track while enabled.
type Background struct {
	player  Player
	log     *zap.Logger
	src     string
	enabled bool
	gen     uint64
}

func NewBackground(player Player, log *zap.Logger) *Background {
	if log == nil {
		log = zap.NewNop()
	}
	return &Background{player: orSilent(player), log: log}
}

// SetTrack sets the looped source. It takes effect on the next start.
func (b *Background) SetTrack(src string) {
	b.src = src
}

func (b *Background) Track() string {
	return b.src
}

// SetEnabled starts or pauses the loop.
func (b *Background) SetEnabled(enabled bool) {
	if enabled == b.enabled {
		return
	}
	b.enabled = enabled
	b.gen++
	if !enabled {
		b.player.Stop()
		return
	}
	b.start(b.gen)
}

// Stop silences the track and ignores its pending completion. The toggle is
// left as the user set it.
func (b *Background) Stop() {
	b.gen++
	b.player.Stop()
}

func (b *Background) Enabled() bool {
	return b.enabled
}

func (b *Background) start(gen uint64) {
	if b.src == "" {
		return
	}
	err := b.player.Play(b.src, func(err error) {
		if gen != b.gen || !b.enabled {
			return
		}
		if err != nil {
			b.log.Debug("background track failed", zap.String("src", b.src), zap.Error(err))
			return
		}
		b.start(gen)
	})
	if err != nil {
		b.log.Debug("background track start failed", zap.String("src", b.src), zap.Error(err))
	}
}
