package media

import "go.uber.org/zap"

// SFXQueue plays short effects one after another in arrival order.
type SFXQueue struct {
	player   Player
	log      *zap.Logger
	enabled  bool
	pending  []string
	active   string
	draining bool
	gen      uint64
}

func NewSFXQueue(player Player, log *zap.Logger) *SFXQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &SFXQueue{player: orSilent(player), log: log, enabled: true}
}

// Enqueue appends effects and starts draining if nothing is playing. While
// disabled it does nothing; effects are not buffered for later.
func (q *SFXQueue) Enqueue(srcs ...string) {
	if !q.enabled {
		return
	}
	for _, src := range srcs {
		if src != "" {
			q.pending = append(q.pending, src)
		}
	}
	if q.draining || len(q.pending) == 0 {
		return
	}
	q.draining = true
	q.next()
}

// SetEnabled gates the queue. Disabling does not cut the active effect; the
// remainder is discarded when the drain loop next pops.
func (q *SFXQueue) SetEnabled(enabled bool) {
	q.enabled = enabled
}

func (q *SFXQueue) Enabled() bool {
	return q.enabled
}

// Pending returns a copy of the effects waiting behind the active one.
func (q *SFXQueue) Pending() []string {
	return append([]string(nil), q.pending...)
}

func (q *SFXQueue) Active() string {
	return q.active
}

func (q *SFXQueue) Draining() bool {
	return q.draining
}

// Stop cuts the active effect and drops the rest.
func (q *SFXQueue) Stop() {
	q.gen++
	q.pending = nil
	q.active = ""
	q.draining = false
	q.player.Stop()
}

func (q *SFXQueue) next() {
	for {
		if !q.enabled {
			q.pending = nil
		}
		if len(q.pending) == 0 {
			q.active = ""
			q.draining = false
			return
		}
		src := q.pending[0]
		q.pending = q.pending[1:]
		q.active = src
		q.gen++
		gen := q.gen
		err := q.player.Play(src, func(err error) {
			if gen != q.gen {
				return
			}
			if err != nil {
				q.log.Debug("sfx ended with error", zap.String("src", src), zap.Error(err))
			}
			q.next()
		})
		if err == nil {
			return
		}
		q.log.Debug("sfx start failed", zap.String("src", src), zap.Error(err))
	}
}
