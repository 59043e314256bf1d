package override

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/cmd/casefile/internal"
)

type captured struct {
	path  string
	token string
	body  map[string]any
}

func newAdminServer(t *testing.T) (*httptest.Server, chan captured) {
	t.Helper()
	got := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- captured{path: r.URL.Path, token: r.Header.Get("X-Admin-Token"), body: body}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewOverrideCommand(&internal.GlobalOptions{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewOverrideCommand(t *testing.T) {
	cmd := NewOverrideCommand(&internal.GlobalOptions{})

	require.NotNil(t, cmd)
	assert.Equal(t, "override", cmd.Use)
	assert.True(t, cmd.HasExample())
	for _, name := range []string{"admin", "token", "session", "turn", "text", "image", "voice", "music", "image-only"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestOverridePostsOnlySetFields(t *testing.T) {
	srv, got := newAdminServer(t)
	out, err := execute(t, "--admin", srv.URL, "--token", "s3cret", "--session", "demo-1", "--turn", "3", "--image", "/assets/alley.png")
	require.NoError(t, err)
	assert.Contains(t, out, "demo-1 turn 3")

	req := <-got
	assert.Equal(t, "/override", req.path)
	assert.Equal(t, "s3cret", req.token)
	assert.Equal(t, "demo-1", req.body["session_id"])
	assert.EqualValues(t, 3, req.body["turn"])
	assert.Equal(t, "/assets/alley.png", req.body["image"])
	assert.NotContains(t, req.body, "text")
}

func TestOverrideImageOnly(t *testing.T) {
	srv, got := newAdminServer(t)
	_, err := execute(t, "--admin", srv.URL, "--session", "demo-1", "--turn", "2", "--image", "/assets/x.png", "--image-only")
	require.NoError(t, err)
	req := <-got
	assert.Equal(t, "/image_update", req.path)
	assert.Equal(t, "/assets/x.png", req.body["image"])
}

func TestOverrideValidation(t *testing.T) {
	_, err := execute(t, "--session", "demo-1", "--image", "/assets/x.png")
	require.Error(t, err, "turn is required")

	_, err = execute(t, "--session", "demo-1", "--turn", "1")
	require.Error(t, err, "at least one field is required")

	_, err = execute(t, "--turn", "1", "--image", "/assets/x.png")
	require.Error(t, err, "session flag is required")
}
