package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path  string
	token string
	body  map[string]any
}

func newGameServer(t *testing.T, token string) (*httptest.Server, chan captured) {
	t.Helper()
	calls := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		calls <- captured{path: r.URL.Path, token: r.Header.Get(TokenHeader), body: body}
		if token != "" && r.Header.Get(TokenHeader) != token {
			http.Error(w, `{"detail":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestOverridePostsOnlyGivenFields(t *testing.T) {
	srv, calls := newGameServer(t, "s3cret")
	c := NewClient(srv.URL, "s3cret", nil)

	err := c.Override(context.Background(), OverrideRequest{SessionID: "demo-1", Turn: 1, Image: "http://img/x.png"})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	call := <-calls
	assert.Equal(t, "/override", call.path)
	assert.Equal(t, "s3cret", call.token)
	assert.Equal(t, map[string]any{"session_id": "demo-1", "turn": float64(1), "image": "http://img/x.png"}, call.body)
}

func TestOverrideRequiresSession(t *testing.T) {
	c := NewClient("http://unused", "", nil)
	err := c.Override(context.Background(), OverrideRequest{Turn: 2})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestOverrideUnauthorized(t *testing.T) {
	srv, _ := newGameServer(t, "s3cret")
	err := NewClient(srv.URL, "wrong", nil).Override(context.Background(), OverrideRequest{SessionID: "demo-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 401")
}

func TestImageUpdate(t *testing.T) {
	srv, calls := newGameServer(t, "")
	c := NewClient(srv.URL+"/", "", nil)

	require.NoError(t, c.ImageUpdate(context.Background(), "demo-1", 3, "b.png"))
	require.Len(t, calls, 1)
	call := <-calls
	assert.Equal(t, "/image_update", call.path)
	assert.Empty(t, call.token)
	assert.Equal(t, "b.png", call.body["image"])

	assert.ErrorIs(t, c.ImageUpdate(context.Background(), "demo-1", 3, " "), ErrMissingField)
}
