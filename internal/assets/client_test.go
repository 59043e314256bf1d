package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVisionServer(t *testing.T, collections map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list" {
			http.NotFound(w, r)
			return
		}
		imgs, ok := collections[r.URL.Query().Get("collection")]
		if !ok {
			http.Error(w, "unknown collection", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"images": imgs})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListResolvesAssetPaths(t *testing.T) {
	srv := newVisionServer(t, map[string][]string{
		"generated": {"/assets/generated/t1.png", "https://cdn.example/t2.png"},
	})
	c := NewClient(srv.URL+"/", nil)

	imgs, err := c.List(context.Background(), CollectionGenerated)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/assets/generated/t1.png", "https://cdn.example/t2.png"}, imgs)
}

func TestListEmptyCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	imgs, err := NewClient(srv.URL, nil).List(context.Background(), CollectionCaseZero)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestListHTTPError(t *testing.T) {
	srv := newVisionServer(t, map[string][]string{})
	_, err := NewClient(srv.URL, nil).List(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
}

func TestGalleryFetchesBoth(t *testing.T) {
	srv := newVisionServer(t, map[string][]string{
		"generated": {"/assets/g.png"},
		"case_zero": {"/assets/c1.png", "/assets/c2.png"},
	})

	g, err := NewClient(srv.URL, nil).Gallery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/assets/g.png"}, g.Generated)
	assert.Len(t, g.CaseZero, 2)
}

func TestGalleryFailsIfOneFails(t *testing.T) {
	srv := newVisionServer(t, map[string][]string{"generated": {"/assets/g.png"}})

	_, err := NewClient(srv.URL, nil).Gallery(context.Background())
	assert.Error(t, err)
}

func TestCompactCutsOnRunes(t *testing.T) {
	body := "błąd   serwera: źródło  niedostępne"
	got := compact(body, 12)
	assert.Equal(t, "błąd serw...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ok", compact(" ok ", 12))
	assert.Equal(t, "bł", compact(body, 2))
}

func TestListHTTPErrorKeepsMultibyteBodyValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("ż", 400)))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, nil).List(context.Background(), CollectionGenerated)
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), "http 502")
}
