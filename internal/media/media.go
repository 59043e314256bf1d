// Package media drives the audio channels and the scene image of a session.
//
// Every method must be called from the client's event loop, and Player and
// Scheduler implementations must deliver their callbacks there too. Nothing
// in this package blocks and nothing it does can fail the session: a channel
// that cannot play simply stays quiet until the next source arrives.
package media

import (
	"time"

	"go.uber.org/zap"

	"casefile/internal/session"
)

// Player is a single-slot playback primitive. Play replaces whatever the
// player was doing and reports completion, or a playback error, through done.
type Player interface {
	Play(src string, done func(error)) error
	Stop()
}

// Scheduler runs fn on the event loop after d.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Players wires one primitive to each channel. Nil entries mean silence.
type Players struct {
	Voice      Player
	Music      Player
	SFX        Player
	Background Player
}

// Coordinator owns the voice, music, background and SFX channels and the
// scene image.
type Coordinator struct {
	Voice      *Channel
	Music      *Channel
	SFX        *SFXQueue
	Background *Background
	Image      *ImageTransition
}

func NewCoordinator(players Players, sched Scheduler, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		Voice:      NewChannel("voice", players.Voice, log),
		Music:      NewChannel("music", players.Music, log),
		SFX:        NewSFXQueue(players.SFX, log),
		Background: NewBackground(players.Background, log),
		Image:      NewImageTransition(sched),
	}
}

// Apply forwards the media introduced by one state update.
func (c *Coordinator) Apply(refs session.MediaRefs) {
	if refs.Image != "" {
		c.Image.SwapTo(refs.Image)
	}
	if refs.Voice != "" {
		c.Voice.Submit(refs.Voice)
	}
	if refs.Music != "" {
		c.Music.Submit(refs.Music)
	}
	if len(refs.SFX) > 0 {
		c.SFX.Enqueue(refs.SFX...)
	}
}

// Shutdown silences every channel without touching the user's toggles.
func (c *Coordinator) Shutdown() {
	c.Voice.Stop()
	c.Music.Stop()
	c.SFX.Stop()
	c.Background.Stop()
}

type silentPlayer struct{}

func (silentPlayer) Play(string, func(error)) error { return nil }
func (silentPlayer) Stop()                          {}

func orSilent(p Player) Player {
	if p == nil {
		return silentPlayer{}
	}
	return p
}
