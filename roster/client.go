// Package roster resolves angler display names from the club's external
// membership service.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/sync/errgroup"
)

var ErrAnglerNotFound = errors.New("angler not found in roster")

const maxConcurrentLookups = 8

type angler struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Client looks anglers up over HTTP. Responses are cached in memory for the
// configured TTL regardless of what the origin's cache headers say.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, ttl time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid roster service URL %q", baseURL)
	}

	cached := httpcache.NewMemoryCacheTransport()
	cached.Transport = &headerOverrideTransport{
		wrapped: http.DefaultTransport,
		response: func(resp *http.Response) {
			resp.Header.Del("Pragma")
			resp.Header.Del("Expires")
			resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl/time.Second)))
		},
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Transport: cached, Timeout: 10 * time.Second},
	}, nil
}

// DisplayName returns the display name of one angler.
func (c *Client) DisplayName(ctx context.Context, anglerID string) (string, error) {
	endpoint := c.baseURL.JoinPath("anglers", anglerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build roster request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("roster lookup of %s failed: %w", anglerID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrAnglerNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("roster lookup of %s returned %s", anglerID, resp.Status)
	}

	var a angler
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return "", fmt.Errorf("failed to decode roster entry %s: %w", anglerID, err)
	}
	return a.DisplayName, nil
}

// DisplayNames looks up several anglers concurrently. Anglers unknown to the
// roster are left out of the result.
func (c *Client) DisplayNames(ctx context.Context, anglerIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(anglerIDs))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, id := range anglerIDs {
		id := id
		g.Go(func() error {
			name, err := c.DisplayName(gCtx, id)
			if errors.Is(err, ErrAnglerNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

type headerOverrideTransport struct {
	wrapped  http.RoundTripper
	response func(resp *http.Response)
}

func (t *headerOverrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.response != nil && resp.StatusCode == http.StatusOK {
		t.response(resp)
	}
	return resp, nil
}
