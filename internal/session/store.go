// Package session keeps the authoritative view of the running case as the
// server describes it, one partial update at a time.
package session

import (
	"maps"
	"slices"

	"casefile/internal/protocol"
)

// Initial HUD values shown before the first turn arrives.
const (
	InitialTime     = 20
	InitialLocation = "office"
)

// State is a snapshot of the session. Fields follow the latest update that
// carried them; only Reframe is cleared by a story update that omits it.
type State struct {
	Turn         int
	Narration    string
	Whispers     []string
	Metrics      protocol.Metrics
	MetricsDelta map[string]protocol.Level
	Inventory    map[string]any
	Location     string
	Relations    map[string]protocol.Relation
	Shot         *string
	Reframe      *protocol.Reframe
}

// MediaRefs lists the media introduced by one apply, for the playback
// coordinator. Empty strings mean "nothing new".
type MediaRefs struct {
	Image string
	Voice string
	Music string
	SFX   []string
}

func (r MediaRefs) Empty() bool {
	return r.Image == "" && r.Voice == "" && r.Music == "" && len(r.SFX) == 0
}

// Store is the single writer of State. It validates nothing: metric ranges,
// inventory shape and turn order are the server's business, and a turn may
// move backwards for retroactive corrections.
type Store struct {
	state State
}

func NewStore() *Store {
	return &Store{state: State{
		Metrics:   protocol.Metrics{Time: InitialTime},
		Inventory: map[string]any{},
		Location:  InitialLocation,
		Relations: map[string]protocol.Relation{},
	}}
}

// Apply merges the present fields of a story, narrative or override update
// and returns the media it introduced. Other events are ignored.
func (s *Store) Apply(ev protocol.Event) MediaRefs {
	switch ev := ev.(type) {
	case protocol.StoryUpdate:
		return s.applyStory(ev)
	case protocol.NarrativeUpdate:
		s.state.Turn = ev.TurnID
		setIf(&s.state.Narration, ev.Text)
		return refs(ev.Image, ev.VoiceAudio, ev.Music, nil)
	case protocol.OverrideUpdate:
		// Overrides target an already narrated turn and never move it.
		setIf(&s.state.Narration, ev.Text)
		return refs(ev.Image, ev.VoiceAudio, ev.Music, nil)
	default:
		return MediaRefs{}
	}
}

func (s *Store) applyStory(ev protocol.StoryUpdate) MediaRefs {
	st := &s.state
	st.Turn = ev.TurnID
	setIf(&st.Narration, ev.Text)
	if ev.Whispers != nil {
		st.Whispers = slices.Clone(ev.Whispers)
	}
	if ev.Metrics != nil {
		st.Metrics = *ev.Metrics
	}
	if ev.MetricsDelta != nil {
		st.MetricsDelta = maps.Clone(ev.MetricsDelta)
	}
	if ev.Inventory != nil {
		st.Inventory = maps.Clone(ev.Inventory)
	}
	setIf(&st.Location, ev.Location)
	if ev.Relations != nil {
		st.Relations = maps.Clone(ev.Relations)
	}
	if ev.Shot != nil {
		shot := *ev.Shot
		st.Shot = &shot
	}
	st.Reframe = ev.Reframe()
	return refs(ev.Image, ev.VoiceAudio, ev.Music, ev.SFX)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	out := s.state
	out.Whispers = slices.Clone(s.state.Whispers)
	out.MetricsDelta = maps.Clone(s.state.MetricsDelta)
	out.Inventory = maps.Clone(s.state.Inventory)
	out.Relations = maps.Clone(s.state.Relations)
	if s.state.Shot != nil {
		shot := *s.state.Shot
		out.Shot = &shot
	}
	if s.state.Reframe != nil {
		reframe := *s.state.Reframe
		out.Reframe = &reframe
	}
	return out
}

// Turn is the turn id the next action should be sent for.
func (s *Store) Turn() int {
	return s.state.Turn
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func refs(image, voice, music *string, sfx []string) MediaRefs {
	out := MediaRefs{SFX: slices.Clone(sfx)}
	setIf(&out.Image, image)
	setIf(&out.Voice, voice)
	setIf(&out.Music, music)
	return out
}
