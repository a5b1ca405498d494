package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/wattwatch/internal/model"
)

// Client talks to a running daemon.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for the daemon listening on addr.
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Status fetches /v1/status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.getJSON(ctx, "/v1/status", &st)
	return st, err
}

// Sessions fetches the daemon's tracked sessions, oldest first.
func (c *Client) Sessions(ctx context.Context) ([]model.SessionStats, error) {
	var out []model.SessionStats
	err := c.getJSON(ctx, "/v1/sessions", &out)
	return out, err
}

// Notifications fetches the buffered notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := c.getJSON(ctx, "/v1/notifications", &out)
	return out, err
}

// Send posts events in order and returns how many the daemon accepted.
func (c *Client) Send(ctx context.Context, events ...model.Event) (int, error) {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return 0, fmt.Errorf("encoding event: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/events", &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting events: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var res IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, fmt.Errorf("malformed response (HTTP %d): %w", resp.StatusCode, err)
	}
	if res.Error != "" {
		return res.Accepted, fmt.Errorf("daemon rejected event: %s", res.Error)
	}
	return res.Accepted, nil
}

// Stream subscribes to /v1/stream and calls fn for each notification
// until ctx is canceled or the connection drops. onOpen, if non-nil, runs
// once the subscription is established.
func (c *Client) Stream(ctx context.Context, onOpen func(), fn func(Notification)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/stream", nil)
	if err != nil {
		return err
	}

	// The shared client's timeout would cut the stream off.
	streamClient := &http.Client{Transport: c.HTTP.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opening stream: HTTP %d", resp.StatusCode)
	}
	if onOpen != nil {
		onOpen()
	}
	return readSSE(resp.Body, fn)
}

func readSSE(r io.Reader, fn func(Notification)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			continue
		}
		fn(n)
	}
	return sc.Err()
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: malformed response: %w", path, err)
	}
	return nil
}
