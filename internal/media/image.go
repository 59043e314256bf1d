package media

import "time"

const (
	FadeOutDelay = 200 * time.Millisecond
	SettleDelay  = 50 * time.Millisecond
)

type Phase int

const (
	Idle Phase = iota
	FadingOut
	Swapping
)

func (p Phase) String() string {
	switch p {
	case FadingOut:
		return "fading"
	case Swapping:
		return "swapping"
	default:
		return "idle"
	}
}

// ImageState is what the scene pane renders.
type ImageState struct {
	Committed string
	Pending   string
	Queued    string
	Phase     Phase
}

// Fading reports whether the scene should be drawn dimmed.
func (s ImageState) Fading() bool {
	return s.Phase == FadingOut
}

// ImageTransition swaps the scene image with a short fade. The committed
// image only ever changes to another non-empty reference.
type ImageTransition struct {
	sched     Scheduler
	committed string
	pending   string
	queued    string
	phase     Phase
	detached  bool
}

func NewImageTransition(sched Scheduler) *ImageTransition {
	return &ImageTransition{sched: sched}
}

// SwapTo requests a new image. With nothing on screen the image commits at
// once. A request during a transition waits for it to finish; only the latest
// waiting request is kept.
func (t *ImageTransition) SwapTo(img string) {
	if img == "" {
		return
	}
	if t.phase != Idle {
		t.queued = img
		return
	}
	if t.committed == "" || t.detached || t.sched == nil {
		t.committed = img
		return
	}
	t.pending = img
	t.phase = FadingOut
	t.sched.After(FadeOutDelay, t.commit)
}

// SetSurface records whether the scene is currently visible. A hidden scene
// swaps without fading.
func (t *ImageTransition) SetSurface(visible bool) {
	t.detached = !visible
}

func (t *ImageTransition) State() ImageState {
	return ImageState{Committed: t.committed, Pending: t.pending, Queued: t.queued, Phase: t.phase}
}

func (t *ImageTransition) Committed() string {
	return t.committed
}

func (t *ImageTransition) commit() {
	if t.phase != FadingOut {
		return
	}
	t.committed = t.pending
	t.pending = ""
	t.phase = Swapping
	t.sched.After(SettleDelay, t.settle)
}

func (t *ImageTransition) settle() {
	if t.phase != Swapping {
		return
	}
	t.phase = Idle
	if q := t.queued; q != "" {
		t.queued = ""
		t.SwapTo(q)
	}
}
