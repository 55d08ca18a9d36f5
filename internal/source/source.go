// Package source fetches the sensor tree from the local hardware monitor.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/sensor"
)

const (
	DefaultTimeout = 300 * time.Millisecond
	DefaultPort    = 8085

	maxBodyBytes = 16 << 20
)

// Fetcher returns the current sensor tree.
type Fetcher interface {
	Fetch(ctx context.Context) (*sensor.Node, error)
}

// Client reads http://localhost:{port}/data.json.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client for the feed on the given local port.
func New(port int, timeout time.Duration) *Client {
	return NewWithURL(fmt.Sprintf("http://localhost:%d", port), timeout)
}

// NewWithURL creates a Client for a feed served at baseURL.
func NewWithURL(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// URL returns the endpoint the client polls.
func (c *Client) URL() string {
	return c.baseURL + "/data.json"
}

// Fetch performs one GET. Every failure is reported as ErrUnavailable.
func (c *Client) Fetch(ctx context.Context) (*sensor.Node, error) {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), http.NoBody)
	if err != nil {
		return nil, errFactory.Wrap(ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errFactory.WithData(ErrUnavailable, resp.Status)
	}

	var root sensor.Node
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&root); err != nil {
		return nil, errFactory.Wrap(ErrUnavailable, err)
	}

	return &root, nil
}
