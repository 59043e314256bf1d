package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type chanPoster chan func()

func (c chanPoster) Post(fn func()) { c <- fn }

// runOne executes the next posted callback.
func (c chanPoster) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-c:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("no callback posted")
	}
}

type fakeServer struct {
	*httptest.Server
	conns    chan *websocket.Conn
	received chan string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{conns: make(chan *websocket.Conn, 1), received: make(chan string, 8)}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- ws
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				_ = ws.Close()
				return
			}
			fs.received <- string(data)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func TestOpenSendReceiveClose(t *testing.T) {
	fs := newFakeServer(t)
	posts := make(chanPoster, 16)

	var events []string
	var messages []string
	conn := NewAdapter(posts).Open(context.Background(), fs.wsURL(), Callbacks{
		OnOpen:    func() { events = append(events, "open") },
		OnMessage: func(data []byte) { messages = append(messages, string(data)) },
		OnClose:   func(error) { events = append(events, "close") },
	})

	posts.runOne(t)
	require.Equal(t, []string{"open"}, events)

	server := <-fs.conns
	require.NoError(t, conn.Send(map[string]string{"type": "action"}))
	assert.JSONEq(t, `{"type":"action"}`, <-fs.received)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"info","message":"hi"}`)))
	posts.runOne(t)
	assert.Equal(t, []string{`{"type":"info","message":"hi"}`}, messages)

	require.NoError(t, conn.Close())
	posts.runOne(t)
	assert.Equal(t, []string{"open", "close"}, events)
	<-conn.Done()

	assert.ErrorIs(t, conn.Send("late"), ErrClosed)
	assert.NoError(t, conn.Close())
}

func TestSetOnMessageReplacesSlot(t *testing.T) {
	fs := newFakeServer(t)
	posts := make(chanPoster, 16)

	var first, second int
	conn := NewAdapter(posts).Open(context.Background(), fs.wsURL(), Callbacks{
		OnMessage: func([]byte) { first++ },
	})
	posts.runOne(t)
	server := <-fs.conns

	conn.SetOnMessage(func([]byte) { second++ })
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{}`)))
	posts.runOne(t)

	assert.Zero(t, first)
	assert.Equal(t, 1, second)

	require.NoError(t, conn.Close())
	posts.runOne(t)
	<-conn.Done()
}

func TestServerCloseFiresOnClose(t *testing.T) {
	fs := newFakeServer(t)
	posts := make(chanPoster, 16)

	var closeErr error = assert.AnError
	conn := NewAdapter(posts).Open(context.Background(), fs.wsURL(), Callbacks{
		OnClose: func(err error) { closeErr = err },
	})
	posts.runOne(t)
	server := <-fs.conns

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, server.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))
	posts.runOne(t)

	assert.NoError(t, closeErr)
	<-conn.Done()
	_ = server.Close()
}

func TestDialFailureFiresOnCloseOnly(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	posts := make(chanPoster, 4)
	opened := false
	var closeErr error
	conn := NewAdapter(posts).Open(context.Background(), url, Callbacks{
		OnOpen:  func() { opened = true },
		OnClose: func(err error) { closeErr = err },
	})
	posts.runOne(t)

	assert.False(t, opened)
	assert.Error(t, closeErr)
	<-conn.Done()
	assert.ErrorIs(t, conn.Send("x"), ErrNotOpen)
}

func TestCloseBeforeOpenCancelsDial(t *testing.T) {
	fs := newFakeServer(t)
	posts := make(chanPoster, 4)

	closes := 0
	conn := NewAdapter(posts).Open(context.Background(), fs.wsURL(), Callbacks{
		OnClose: func(error) { closes++ },
	})
	require.NoError(t, conn.Close())

	// Either the dial is cancelled or the late socket is discarded; both
	// end in a single close callback.
	<-conn.Done()
	for len(posts) > 0 {
		(<-posts)()
	}
	assert.Equal(t, 1, closes)
}
