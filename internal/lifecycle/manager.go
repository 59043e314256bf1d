// Package lifecycle drives connect, login and disconnect for one game
// session and gates every outbound frame on the connection being up.
package lifecycle

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"casefile/internal/protocol"
	"casefile/internal/transport"
)

var ErrNotConnected = errors.New("not connected")

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Target is who connects where.
type Target struct {
	URL          string
	Player       string
	SessionID    string
	SinglePlayer bool
	BotStyle     string
}

// Conn is the part of a transport connection the manager uses.
type Conn interface {
	Send(v any) error
	Close() error
	SetOnMessage(fn func([]byte))
}

// Dialer opens a connection whose callbacks arrive on the event loop.
type Dialer func(ctx context.Context, url string, cb transport.Callbacks) Conn

// Manager must only be used from the event loop.
type Manager struct {
	dial      Dialer
	onMessage func([]byte)
	onState   func(State, Target)
	log       *zap.Logger

	state  State
	target Target
	conn   Conn
	gen    uint64
}

type Option func(*Manager)

// WithStateHook is called after every state change.
func WithStateHook(fn func(State, Target)) Option {
	return func(m *Manager) { m.onState = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// New returns a disconnected manager. Inbound frames of the current
// connection go to onMessage.
func New(dial Dialer, onMessage func([]byte), opts ...Option) *Manager {
	m := &Manager{dial: dial, onMessage: onMessage, log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() State {
	return m.state
}

// Target is the last target passed to Connect.
func (m *Manager) Target() Target {
	return m.target
}

// Connect starts a connection unless one is already connecting or up. It
// reports whether a dial was started.
func (m *Manager) Connect(ctx context.Context, t Target) bool {
	if m.state != Disconnected {
		return false
	}
	if t.BotStyle == "" {
		t.BotStyle = protocol.DefaultBotStyle
	}
	m.gen++
	gen := m.gen
	m.target = t
	m.setState(Connecting)
	m.conn = m.dial(ctx, t.URL, transport.Callbacks{
		OnOpen: func() {
			if gen == m.gen {
				m.opened(gen)
			}
		},
		OnClose: func(err error) {
			if gen == m.gen {
				m.closed(err)
			}
		},
	})
	return true
}

// Disconnect closes the transport whatever the state. Late callbacks from the
// closed connection are ignored.
func (m *Manager) Disconnect() {
	m.gen++
	if m.conn != nil {
		m.conn.SetOnMessage(nil)
		if err := m.conn.Close(); err != nil {
			m.log.Debug("close failed", zap.Error(err))
		}
		m.conn = nil
	}
	if m.state != Disconnected {
		m.setState(Disconnected)
	}
}

// SendAction submits the player's input for turn. Blank input is dropped.
func (m *Manager) SendAction(turn int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return m.SendRaw(protocol.Action{
		Player:    m.target.Player,
		SessionID: m.target.SessionID,
		TurnID:    turn,
		TextRaw:   text,
	})
}

func (m *Manager) SendLink(from, to, relation string) error {
	if relation == "" {
		relation = protocol.LinkRelations[0]
	}
	return m.SendRaw(protocol.Link{
		Player:    m.target.Player,
		SessionID: m.target.SessionID,
		From:      from,
		To:        to,
		Relation:  relation,
	})
}

func (m *Manager) SendAccuse(suspect string) error {
	return m.SendRaw(protocol.Accuse{
		Player:    m.target.Player,
		SessionID: m.target.SessionID,
		Suspect:   suspect,
	})
}

// SendRaw writes v if connected and returns ErrNotConnected otherwise.
func (m *Manager) SendRaw(v any) error {
	if m.state != Connected || m.conn == nil {
		return ErrNotConnected
	}
	return m.conn.Send(v)
}

// opened binds the message slot, then logs in. Frames are routed only once
// the login has gone out.
func (m *Manager) opened(gen uint64) {
	login := protocol.Login{
		Player:       m.target.Player,
		SessionID:    m.target.SessionID,
		SinglePlayer: m.target.SinglePlayer,
		BotStyle:     m.target.BotStyle,
	}
	if err := m.conn.Send(login); err != nil {
		m.log.Debug("login send failed", zap.Error(err))
	}
	m.conn.SetOnMessage(func(data []byte) {
		if gen == m.gen && m.onMessage != nil {
			m.onMessage(data)
		}
	})
	m.setState(Connected)
}

func (m *Manager) closed(err error) {
	if err != nil {
		m.log.Debug("connection closed", zap.Error(err))
	}
	m.gen++
	m.conn = nil
	m.setState(Disconnected)
}

func (m *Manager) setState(s State) {
	m.state = s
	m.log.Debug("connection state", zap.Stringer("state", s), zap.String("url", m.target.URL))
	if m.onState != nil {
		m.onState(s, m.target)
	}
}
