package media

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/session"
)

type fakePlayer struct {
	started  []string
	stops    int
	done     func(error)
	failOn   map[string]error
	inFlight int
	maxSeen  int
}

func (p *fakePlayer) Play(src string, done func(error)) error {
	if err := p.failOn[src]; err != nil {
		return err
	}
	p.started = append(p.started, src)
	p.done = done
	p.inFlight++
	if p.inFlight > p.maxSeen {
		p.maxSeen = p.inFlight
	}
	return nil
}

func (p *fakePlayer) Stop() {
	p.stops++
	if p.inFlight > 0 {
		p.inFlight--
	}
}

// finish completes the current playback.
func (p *fakePlayer) finish(err error) {
	done := p.done
	p.done = nil
	if p.inFlight > 0 {
		p.inFlight--
	}
	if done != nil {
		done(err)
	}
}

type manualScheduler struct {
	now   time.Duration
	queue []scheduled
}

type scheduled struct {
	at time.Duration
	fn func()
}

func (s *manualScheduler) After(d time.Duration, fn func()) {
	s.queue = append(s.queue, scheduled{at: s.now + d, fn: fn})
}

// advance runs every callback due within d, in due order.
func (s *manualScheduler) advance(d time.Duration) {
	target := s.now + d
	for {
		sort.SliceStable(s.queue, func(i, j int) bool { return s.queue[i].at < s.queue[j].at })
		if len(s.queue) == 0 || s.queue[0].at > target {
			break
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.now = next.at
		next.fn()
	}
	s.now = target
}

func TestChannelReplacesCurrent(t *testing.T) {
	p := &fakePlayer{}
	c := NewChannel("voice", p, nil)

	c.Submit("a.mp3")
	c.Submit("b.mp3")

	assert.Equal(t, []string{"a.mp3", "b.mp3"}, p.started)
	assert.Equal(t, 1, p.stops)
	assert.Equal(t, "b.mp3", c.Current())
	assert.True(t, c.Playing())

	p.finish(nil)
	assert.False(t, c.Playing())
}

func TestChannelDisabledKeepsInFlight(t *testing.T) {
	p := &fakePlayer{}
	c := NewChannel("music", p, nil)
	c.Submit("theme.mp3")

	c.SetEnabled(false)
	c.Submit("other.mp3")

	assert.Equal(t, []string{"theme.mp3"}, p.started)
	assert.Zero(t, p.stops)
	assert.Equal(t, "theme.mp3", c.Current())
	assert.True(t, c.Playing())
}

func TestChannelStartFailureIsQuiet(t *testing.T) {
	p := &fakePlayer{failOn: map[string]error{"bad.mp3": errors.New("unsupported")}}
	c := NewChannel("voice", p, nil)

	c.Submit("bad.mp3")
	assert.False(t, c.Playing())

	c.Submit("good.mp3")
	assert.True(t, c.Playing())
	assert.Equal(t, []string{"good.mp3"}, p.started)
}

func TestChannelIgnoresStaleCompletion(t *testing.T) {
	p := &fakePlayer{}
	c := NewChannel("voice", p, nil)
	c.Submit("a.mp3")
	stale := p.done
	c.Submit("b.mp3")

	stale(nil)
	assert.True(t, c.Playing())
}

func TestSFXPlaysInOrderOneAtATime(t *testing.T) {
	p := &fakePlayer{}
	q := NewSFXQueue(p, nil)

	q.Enqueue("a", "b")
	q.Enqueue("c")
	require.Equal(t, []string{"a"}, p.started)
	assert.Equal(t, []string{"b", "c"}, q.Pending())

	p.finish(nil)
	p.finish(nil)
	p.finish(nil)

	assert.Equal(t, []string{"a", "b", "c"}, p.started)
	assert.Equal(t, 1, p.maxSeen)
	assert.False(t, q.Draining())
	assert.Empty(t, q.Active())
}

func TestSFXDisabledDropsEffects(t *testing.T) {
	p := &fakePlayer{}
	q := NewSFXQueue(p, nil)
	q.SetEnabled(false)

	q.Enqueue("knock.wav")
	q.SetEnabled(true)

	assert.Empty(t, p.started)
	assert.Empty(t, q.Pending())
	assert.False(t, q.Draining())
}

func TestSFXDisableMidDrainDiscardsRemainder(t *testing.T) {
	p := &fakePlayer{}
	q := NewSFXQueue(p, nil)
	q.Enqueue("a", "b", "c")

	q.SetEnabled(false)
	assert.Equal(t, "a", q.Active(), "active effect is not cut")

	p.finish(nil)
	assert.Equal(t, []string{"a"}, p.started)
	assert.Empty(t, q.Pending())
	assert.False(t, q.Draining())
}

func TestSFXSkipsFailures(t *testing.T) {
	p := &fakePlayer{failOn: map[string]error{"b": errors.New("missing")}}
	q := NewSFXQueue(p, nil)
	q.Enqueue("a", "b", "c")

	p.finish(errors.New("decode error"))

	assert.Equal(t, []string{"a", "c"}, p.started)
	assert.Equal(t, "c", q.Active())
}

func TestSFXStop(t *testing.T) {
	p := &fakePlayer{}
	q := NewSFXQueue(p, nil)
	q.Enqueue("a", "b")
	stale := p.done

	q.Stop()
	stale(nil)

	assert.Equal(t, []string{"a"}, p.started)
	assert.False(t, q.Draining())
}

func TestImageFirstSwapCommitsImmediately(t *testing.T) {
	s := &manualScheduler{}
	img := NewImageTransition(s)

	img.SwapTo("first.png")

	assert.Equal(t, ImageState{Committed: "first.png", Phase: Idle}, img.State())
	assert.Empty(t, s.queue)
}

func TestImageFadeThenSettle(t *testing.T) {
	s := &manualScheduler{}
	img := NewImageTransition(s)
	img.SwapTo("old.png")

	img.SwapTo("x.png")
	st := img.State()
	assert.Equal(t, FadingOut, st.Phase)
	assert.True(t, st.Fading())
	assert.Equal(t, "old.png", st.Committed)
	assert.Equal(t, "x.png", st.Pending)

	s.advance(199 * time.Millisecond)
	assert.Equal(t, "old.png", img.Committed())

	s.advance(time.Millisecond)
	assert.Equal(t, "x.png", img.Committed())
	assert.Equal(t, Swapping, img.State().Phase)

	s.advance(SettleDelay)
	assert.Equal(t, ImageState{Committed: "x.png", Phase: Idle}, img.State())
}

func TestImageQueuesLatestDuringTransition(t *testing.T) {
	s := &manualScheduler{}
	img := NewImageTransition(s)
	img.SwapTo("a.png")

	img.SwapTo("b.png")
	img.SwapTo("c.png")
	img.SwapTo("d.png")
	assert.Equal(t, "d.png", img.State().Queued)

	s.advance(FadeOutDelay + SettleDelay)
	assert.Equal(t, "b.png", img.Committed())
	assert.Equal(t, FadingOut, img.State().Phase)
	assert.Equal(t, "d.png", img.State().Pending)

	s.advance(FadeOutDelay + SettleDelay)
	assert.Equal(t, ImageState{Committed: "d.png", Phase: Idle}, img.State())
}

func TestImageNeverEmpty(t *testing.T) {
	s := &manualScheduler{}
	img := NewImageTransition(s)
	img.SwapTo("a.png")

	for _, next := range []string{"", "b.png", "", "c.png", ""} {
		img.SwapTo(next)
		s.advance(10 * time.Millisecond)
		assert.NotEmpty(t, img.Committed())
	}
	s.advance(time.Second)
	assert.Equal(t, "c.png", img.Committed())
}

func TestImageHiddenSurfaceSkipsFade(t *testing.T) {
	s := &manualScheduler{}
	img := NewImageTransition(s)
	img.SwapTo("a.png")
	img.SetSurface(false)

	img.SwapTo("b.png")
	assert.Equal(t, ImageState{Committed: "b.png", Phase: Idle}, img.State())

	img.SetSurface(true)
	img.SwapTo("c.png")
	assert.Equal(t, FadingOut, img.State().Phase)
}

func TestCoordinatorApply(t *testing.T) {
	voice, music, sfx := &fakePlayer{}, &fakePlayer{}, &fakePlayer{}
	s := &manualScheduler{}
	c := NewCoordinator(Players{Voice: voice, Music: music, SFX: sfx}, s, nil)
	c.Image.SwapTo("start.png")

	c.Apply(session.MediaRefs{Image: "x.png", Voice: "v.mp3", SFX: []string{"door.wav", "steps.wav"}})

	assert.Equal(t, []string{"v.mp3"}, voice.started)
	assert.Empty(t, music.started)
	assert.Equal(t, []string{"door.wav"}, sfx.started)
	assert.Equal(t, "start.png", c.Image.Committed())

	s.advance(FadeOutDelay)
	assert.Equal(t, "x.png", c.Image.Committed())
}

func TestBackgroundLoops(t *testing.T) {
	p := &fakePlayer{}
	b := NewBackground(p, nil)
	b.SetTrack("rain.mp3")

	b.SetEnabled(true)
	p.finish(nil)
	assert.Equal(t, []string{"rain.mp3", "rain.mp3"}, p.started)

	b.SetEnabled(false)
	p.finish(nil)
	assert.Len(t, p.started, 2)
	assert.Equal(t, 1, p.stops)
}

func TestShutdownKeepsBackgroundToggle(t *testing.T) {
	bg := &fakePlayer{}
	c := NewCoordinator(Players{Background: bg}, nil, nil)
	c.Background.SetTrack("rain.mp3")
	c.Background.SetEnabled(true)
	require.Len(t, bg.started, 1)

	c.Shutdown()
	assert.True(t, c.Background.Enabled())
	assert.Equal(t, 1, bg.stops)

	bg.finish(nil)
	assert.Len(t, bg.started, 1, "completion after shutdown must not restart the loop")
}

func TestNilPlayersAreSilent(t *testing.T) {
	c := NewCoordinator(Players{}, nil, nil)
	c.Apply(session.MediaRefs{Image: "a.png", Voice: "v", Music: "m", SFX: []string{"s"}})
	c.Shutdown()
	assert.Equal(t, "a.png", c.Image.Committed())
}
