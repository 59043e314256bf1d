// Package assets lists the images published by the vision service.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Collections shown in the gallery.
const (
	CollectionGenerated = "generated"
	CollectionCaseZero  = "case_zero"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: strings.TrimRight(strings.TrimSpace(base), "/"), http: httpClient}
}

// List returns the image URLs of one collection. Paths under /assets are
// resolved against the service base.
func (c *Client) List(ctx context.Context, collection string) ([]string, error) {
	endpoint := c.base + "/list?collection=" + url.QueryEscape(collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list %s: http %d: %s", collection, resp.StatusCode, compact(string(payload), 240))
	}
	var parsed struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("list %s: non-json payload: %w", collection, err)
	}
	out := make([]string, 0, len(parsed.Images))
	for _, img := range parsed.Images {
		out = append(out, c.Resolve(img))
	}
	return out, nil
}

// Resolve turns a service-relative asset path into an absolute URL.
func (c *Client) Resolve(ref string) string {
	if strings.HasPrefix(ref, "/assets") {
		return c.base + ref
	}
	return ref
}

type Gallery struct {
	Generated []string
	CaseZero  []string
}

// Gallery fetches both collections concurrently.
func (c *Client) Gallery(ctx context.Context) (Gallery, error) {
	var out Gallery
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		imgs, err := c.List(egCtx, CollectionGenerated)
		out.Generated = imgs
		return err
	})
	eg.Go(func() error {
		imgs, err := c.List(egCtx, CollectionCaseZero)
		out.CaseZero = imgs
		return err
	})
	if err := eg.Wait(); err != nil {
		return Gallery{}, err
	}
	return out, nil
}

// compact collapses whitespace and cuts text to limit runes.
func compact(text string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	if limit <= 3 {
		return string(runes[:max(limit, 0)])
	}
	return string(runes[:limit-3]) + "..."
}
