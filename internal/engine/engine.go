// Package engine assembles the session components around one event loop:
// the connection, the dispatcher, the turn state, the case graph and the
// media channels. It has no terminal dependencies; the TUI drives it by
// running loop tasks and reading snapshots.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"casefile/internal/casegraph"
	"casefile/internal/dispatch"
	"casefile/internal/lifecycle"
	"casefile/internal/loop"
	"casefile/internal/media"
	"casefile/internal/protocol"
	"casefile/internal/session"
	"casefile/internal/transport"
)

// Settings are the user-editable connection parameters.
type Settings struct {
	ServerURL    string
	Player       string
	SessionID    string
	SinglePlayer bool
	BotStyle     string
}

func (s Settings) target() lifecycle.Target {
	return lifecycle.Target{
		URL:          s.ServerURL,
		Player:       s.Player,
		SessionID:    s.SessionID,
		SinglePlayer: s.SinglePlayer,
		BotStyle:     s.BotStyle,
	}
}

type Options struct {
	// Loop is created when nil. Pass one in when the players need to post
	// their completions to it.
	Loop    *loop.Loop
	Players media.Players
	// Dial overrides the websocket transport, mainly for tests.
	Dial lifecycle.Dialer
	Now  func() time.Time
	Log  *zap.Logger
	// OnVerdict, OnState and OnEvent are called on the loop after the
	// engine's own handling.
	OnVerdict func(protocol.VerdictUpdate)
	OnState   func(lifecycle.State)
	OnEvent   func(protocol.Event)
}

type Engine struct {
	Settings Settings

	Loop       *loop.Loop
	Store      *session.Store
	Graph      *casegraph.Graph
	Media      *media.Coordinator
	Journal    *dispatch.Journal
	Dispatcher *dispatch.Dispatcher
	Conn       *lifecycle.Manager

	verdict *protocol.VerdictUpdate
	opts    Options
	log     *zap.Logger
}

func New(settings Settings, opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	l := opts.Loop
	if l == nil {
		l = loop.New(0)
	}
	e := &Engine{
		Settings: settings,
		Loop:     l,
		Store:    session.NewStore(),
		Graph:    casegraph.New(),
		Journal:  dispatch.NewJournal(dispatch.JournalSize, opts.Now),
		opts:     opts,
		log:      log,
	}
	e.Media = media.NewCoordinator(opts.Players, e.Loop, log.Named("media"))
	e.Dispatcher = dispatch.New(e.Store, e.Graph, e.Media, e.Journal,
		dispatch.WithVerdictHandler(e.handleVerdict),
		dispatch.WithEventHook(opts.OnEvent),
		dispatch.WithLogger(log.Named("dispatch")))

	dial := opts.Dial
	if dial == nil {
		adapter := transport.NewAdapter(e.Loop, transport.WithLogger(log.Named("transport")))
		dial = func(ctx context.Context, url string, cb transport.Callbacks) lifecycle.Conn {
			return adapter.Open(ctx, url, cb)
		}
	}
	e.Conn = lifecycle.New(dial, e.Dispatcher.Dispatch,
		lifecycle.WithStateHook(e.handleState),
		lifecycle.WithLogger(log.Named("lifecycle")))
	return e
}

// Connect dials the current settings. It must run on the loop.
func (e *Engine) Connect(ctx context.Context) bool {
	return e.Conn.Connect(ctx, e.Settings.target())
}

func (e *Engine) Disconnect() {
	e.Conn.Disconnect()
}

// Send submits free-form input for the current turn.
func (e *Engine) Send(text string) error {
	return e.Conn.SendAction(e.Store.Turn(), text)
}

// Verdict is the last verdict received, if any.
func (e *Engine) Verdict() *protocol.VerdictUpdate {
	return e.verdict
}

func (e *Engine) DismissVerdict() {
	e.verdict = nil
}

// Close tears everything down. Pending loop tasks are discarded.
func (e *Engine) Close() {
	e.Conn.Disconnect()
	e.Media.Shutdown()
	e.Loop.Close()
}

func (e *Engine) handleVerdict(v protocol.VerdictUpdate) {
	e.verdict = &v
	if e.opts.OnVerdict != nil {
		e.opts.OnVerdict(v)
	}
}

func (e *Engine) handleState(s lifecycle.State, t lifecycle.Target) {
	switch s {
	case lifecycle.Connected:
		e.Journal.Add("connected to " + t.URL)
	case lifecycle.Disconnected:
		e.Journal.Add("disconnected")
		e.Graph.Reset()
	}
	if e.opts.OnState != nil {
		e.opts.OnState(s)
	}
}
