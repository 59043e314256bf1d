// Package protocol defines the frames exchanged with the game server.
//
// Inbound frames are JSON objects discriminated by their "type" field and
// decode into one of the Event variants below. The set is closed: anything
// the client does not know becomes Unrecognized rather than an error.
package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"casefile/internal/casegraph"
)

// Inbound frame kinds.
const (
	KindInfo            = "info"
	KindError           = "error"
	KindStoryUpdate     = "story_update"
	KindImageUpdate     = "image_update"
	KindNarrativeUpdate = "narrative_update"
	KindOverrideUpdate  = "override_update"
	KindGraphUpdate     = "graph_update"
	KindVerdictUpdate   = "verdict_update"
)

// Event is a decoded server frame.
type Event interface {
	Kind() string
	isEvent()
}

type Info struct {
	Message string `json:"message"`
}

type Error struct {
	Reason string `json:"reason"`
}

// Level is a display-only number. The server relays these values from a
// language model, so anything that is not a number decodes to 0 instead of
// failing the frame, fractions are rounded and numeric strings are accepted.
type Level int

func (l *Level) UnmarshalJSON(data []byte) error {
	*l = 0
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*l = Level(math.Round(f))
	return nil
}

// Metrics is the investigator HUD: remaining time, suspicion, reputation.
type Metrics struct {
	Time       Level `json:"time"`
	Suspicion  Level `json:"suspicion"`
	Reputation Level `json:"reputation"`
}

// Relation is an NPC's attitude toward the player, each axis 0..100.
type Relation struct {
	Mood  Level `json:"mood"`
	Trust Level `json:"trust"`
	Fear  Level `json:"fear"`
}

// Reframe records the server substituting the player's literal input with an
// in-world action.
type Reframe struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StoryUpdate is the full per-turn payload. Pointer and nil-able fields are
// absent when the server omitted them or sent null.
type StoryUpdate struct {
	SessionID    string              `json:"session_id,omitempty"`
	TurnID       int                 `json:"turn_id"`
	Text         *string             `json:"text,omitempty"`
	Whispers     []string            `json:"whispers,omitempty"`
	Metrics      *Metrics            `json:"metrics,omitempty"`
	MetricsDelta map[string]Level    `json:"metrics_delta,omitempty"`
	Inventory    map[string]any      `json:"inventory,omitempty"`
	Location     *string             `json:"location,omitempty"`
	Relations    map[string]Relation `json:"relations,omitempty"`
	Shot         *string             `json:"shot,omitempty"`
	Reframed     bool                `json:"reframed,omitempty"`
	ReframedFrom *string             `json:"reframed_from,omitempty"`
	ReframedTo   *string             `json:"reframed_to,omitempty"`
	Image        *string             `json:"image,omitempty"`
	VoiceAudio   *string             `json:"voice_audio,omitempty"`
	Music        *string             `json:"music,omitempty"`
	SFX          []string            `json:"sfx,omitempty"`
}

// Reframe returns the reframe banner carried by the update, or nil when the
// reframed flag is not set.
func (s StoryUpdate) Reframe() *Reframe {
	if !s.Reframed {
		return nil
	}
	return &Reframe{From: deref(s.ReframedFrom), To: deref(s.ReframedTo)}
}

type ImageUpdate struct {
	SessionID string `json:"session_id,omitempty"`
	TurnID    int    `json:"turn_id"`
	Image     string `json:"image"`
}

type NarrativeUpdate struct {
	SessionID  string  `json:"session_id,omitempty"`
	TurnID     int     `json:"turn_id"`
	Text       *string `json:"text,omitempty"`
	Image      *string `json:"image,omitempty"`
	VoiceAudio *string `json:"voice_audio,omitempty"`
	Music      *string `json:"music,omitempty"`
}

// OverrideUpdate is pushed after an administrator replaced media or text of
// an already narrated turn.
type OverrideUpdate struct {
	SessionID  string  `json:"session_id,omitempty"`
	TurnID     int     `json:"turn_id"`
	Text       *string `json:"text,omitempty"`
	Image      *string `json:"image,omitempty"`
	VoiceAudio *string `json:"voice_audio,omitempty"`
	Music      *string `json:"music,omitempty"`
}

type GraphUpdate struct {
	SessionID string          `json:"session_id,omitempty"`
	TurnID    int             `json:"turn_id,omitempty"`
	Delta     casegraph.Delta `json:"graph_delta"`
}

// VerdictUpdate ends the case after an accusation.
type VerdictUpdate struct {
	SessionID string   `json:"session_id,omitempty"`
	TurnID    int      `json:"turn_id,omitempty"`
	Verdict   string   `json:"verdict"`
	Epilogue  string   `json:"epilogue"`
	SFX       []string `json:"sfx,omitempty"`
}

// Unrecognized is a structurally valid frame whose kind this client does not
// handle.
type Unrecognized struct {
	Type string
	Raw  json.RawMessage
}

func (Info) Kind() string            { return KindInfo }
func (Error) Kind() string           { return KindError }
func (StoryUpdate) Kind() string     { return KindStoryUpdate }
func (ImageUpdate) Kind() string     { return KindImageUpdate }
func (NarrativeUpdate) Kind() string { return KindNarrativeUpdate }
func (OverrideUpdate) Kind() string  { return KindOverrideUpdate }
func (GraphUpdate) Kind() string     { return KindGraphUpdate }
func (VerdictUpdate) Kind() string   { return KindVerdictUpdate }
func (u Unrecognized) Kind() string  { return u.Type }

func (Info) isEvent()            {}
func (Error) isEvent()           {}
func (StoryUpdate) isEvent()     {}
func (ImageUpdate) isEvent()     {}
func (NarrativeUpdate) isEvent() {}
func (OverrideUpdate) isEvent()  {}
func (GraphUpdate) isEvent()     {}
func (VerdictUpdate) isEvent()   {}
func (Unrecognized) isEvent()    {}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
