// Package transport owns the websocket to the game server.
//
// Network I/O happens on a private goroutine per connection. Every callback
// is handed to a Poster so that the client state is only ever touched from
// the event loop.
package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	maxFrameBytes    = 4 << 20
)

var (
	ErrNotOpen = errors.New("connection not open")
	ErrClosed  = errors.New("connection closed")
)

// Poster hands a callback to the goroutine that owns client state.
type Poster interface {
	Post(fn func())
}

// Callbacks are delivered through the Poster. OnClose fires exactly once per
// connection, including when the dial fails.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnClose   func(err error)
}

// Adapter opens websocket connections.
type Adapter struct {
	poster Poster
	dialer *websocket.Dialer
	header http.Header
	log    *zap.Logger
}

type Option func(*Adapter)

func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// WithHeader adds request headers to the handshake.
func WithHeader(h http.Header) Option {
	return func(a *Adapter) { a.header = h.Clone() }
}

func NewAdapter(poster Poster, opts ...Option) *Adapter {
	a := &Adapter{
		poster: poster,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open starts dialing url in the background and returns immediately.
func (a *Adapter) Open(ctx context.Context, url string, cb Callbacks) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		url:       url,
		poster:    a.poster,
		log:       a.log.With(zap.String("url", url)),
		cb:        cb,
		onMessage: cb.OnMessage,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.run(ctx, a.dialer, a.header)
	return c
}

// Conn is one websocket connection attempt.
type Conn struct {
	url    string
	poster Poster
	log    *zap.Logger
	cb     Callbacks

	// onMessage is only read and written on the event loop.
	onMessage func([]byte)

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

func (c *Conn) URL() string {
	return c.url
}

// SetOnMessage replaces the message callback. Call it on the event loop.
func (c *Conn) SetOnMessage(fn func([]byte)) {
	c.onMessage = fn
}

// Send writes v as one JSON text frame.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.ws == nil {
		return ErrNotOpen
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Close tears the connection down, cancelling a dial still in flight. It is
// safe to call more than once.
func (c *Conn) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}

// Done is closed once the connection goroutine has exited.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) run(ctx context.Context, dialer *websocket.Dialer, header http.Header) {
	defer close(c.done)

	ws, resp, err := dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.log.Debug("dial failed", zap.Error(err))
		c.post(func() { c.fire(c.cb.OnClose, err) })
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		c.post(func() { c.fire(c.cb.OnClose, ErrClosed) })
		return
	}
	c.ws = ws
	c.mu.Unlock()

	ws.SetReadLimit(maxFrameBytes)
	c.post(func() {
		if c.cb.OnOpen != nil {
			c.cb.OnOpen()
		}
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			c.log.Debug("connection closed", zap.Error(err))
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			_ = ws.Close()
			c.post(func() { c.fire(c.cb.OnClose, err) })
			return
		}
		c.post(func() {
			if c.onMessage != nil {
				c.onMessage(data)
			}
		})
	}
}

func (c *Conn) fire(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}

func (c *Conn) post(fn func()) {
	if c.poster == nil {
		fn()
		return
	}
	c.poster.Post(fn)
}
