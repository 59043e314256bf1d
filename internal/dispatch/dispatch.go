// Package dispatch decodes inbound frames and routes each event to the
// component that owns its state.
package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"casefile/internal/casegraph"
	"casefile/internal/media"
	"casefile/internal/protocol"
	"casefile/internal/session"
)

const excerptRunes = 140

// Stats counts what the dispatcher did with inbound frames.
type Stats struct {
	Routed       int
	Dropped      int
	Unrecognized int
}

type Dispatcher struct {
	store     *session.Store
	graph     *casegraph.Graph
	media     *media.Coordinator
	journal   *Journal
	onVerdict func(protocol.VerdictUpdate)
	onEvent   func(protocol.Event)
	log       *zap.Logger
	stats     Stats
}

type Option func(*Dispatcher)

// WithVerdictHandler receives the end-of-case verdict.
func WithVerdictHandler(fn func(protocol.VerdictUpdate)) Option {
	return func(d *Dispatcher) { d.onVerdict = fn }
}

// WithEventHook observes every routed event after its handler ran.
func WithEventHook(fn func(protocol.Event)) Option {
	return func(d *Dispatcher) { d.onEvent = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func New(store *session.Store, graph *casegraph.Graph, coord *media.Coordinator, journal *Journal, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		graph:   graph,
		media:   coord,
		journal: journal,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Dispatch decodes raw and routes it. Frames that fail to decode are dropped.
func (d *Dispatcher) Dispatch(raw []byte) {
	ev, err := protocol.Decode(raw)
	if err != nil {
		d.stats.Dropped++
		d.log.Debug("dropped frame", zap.Error(err), zap.Int("bytes", len(raw)))
		return
	}
	d.Route(ev)
}

// Route applies an already decoded event.
func (d *Dispatcher) Route(ev protocol.Event) {
	switch ev := ev.(type) {
	case protocol.Info:
		d.journal.Add("INFO: " + ev.Message)
	case protocol.Error:
		d.journal.Add("ERROR: " + ev.Reason)
	case protocol.StoryUpdate:
		d.media.Apply(d.store.Apply(ev))
		d.journal.Add(turnLine(ev.TurnID, ev.Text))
	case protocol.NarrativeUpdate:
		d.media.Apply(d.store.Apply(ev))
		d.journal.Add(turnLine(ev.TurnID, ev.Text))
	case protocol.OverrideUpdate:
		d.media.Apply(d.store.Apply(ev))
		for _, line := range overrideLines(ev) {
			d.journal.Add(line)
		}
	case protocol.ImageUpdate:
		d.media.Image.SwapTo(ev.Image)
		d.journal.Add("[SWAP] image_update -> " + ev.Image)
	case protocol.GraphUpdate:
		d.graph.Merge(ev.Delta)
		d.journal.Add(fmt.Sprintf("[GRAPH] +%d nodes +%d edges", len(ev.Delta.NodesAdd), len(ev.Delta.EdgesAdd)))
	case protocol.VerdictUpdate:
		if d.onVerdict != nil {
			d.onVerdict(ev)
		}
		d.media.SFX.Enqueue(ev.SFX...)
		d.journal.Add("[VERDICT] " + excerpt(ev.Verdict, excerptRunes))
	case protocol.Unrecognized:
		d.stats.Unrecognized++
		d.log.Debug("unrecognized event", zap.String("type", ev.Type))
		return
	default:
		return
	}
	d.stats.Routed++
	if d.onEvent != nil {
		d.onEvent(ev)
	}
}

func turnLine(turn int, text *string) string {
	body := ""
	if text != nil {
		body = excerpt(*text, excerptRunes)
	}
	return fmt.Sprintf("TURN %d: %s...", turn, body)
}

func overrideLines(ev protocol.OverrideUpdate) []string {
	var lines []string
	if ev.Text != nil && *ev.Text != "" {
		lines = append(lines, "[OVERRIDE] text: "+excerpt(*ev.Text, excerptRunes)+"...")
	}
	if ev.Image != nil && *ev.Image != "" {
		lines = append(lines, "[OVERRIDE] image: "+*ev.Image)
	}
	if ev.VoiceAudio != nil && *ev.VoiceAudio != "" {
		lines = append(lines, "[OVERRIDE] voice: "+*ev.VoiceAudio)
	}
	if ev.Music != nil && *ev.Music != "" {
		lines = append(lines, "[OVERRIDE] music: "+*ev.Music)
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("[OVERRIDE] turn %d", ev.TurnID))
	}
	return lines
}
