// Package sse implements a minimal client for long-lived Server-Sent Event
// streams: one connection, named events, caller-driven reconnects.
package sse

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Frame is one decoded SSE frame, exactly as received.
type Frame struct {
	Event string // event name; empty for the default channel
	Data  string // payload with data-line prefixes stripped, lines joined by \n
}

// Client reads frames from a single SSE endpoint. It does not reconnect.
type Client struct {
	hc          *http.Client
	headers     map[string]string
	bufferSize  int
	channelSize int

	mu        sync.Mutex
	body      interface{ Close() error }
	connected bool
}

// NewClient creates an SSE client.
func NewClient(opts ...ClientOption) *Client {
	cfg := &ClientConfig{
		DialTimeout: 10 * time.Second,
		BufferSize:  1 << 20,
		ChannelSize: 256,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		// no overall timeout: the stream is long-lived by design
		hc = &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.DialTimeout,
			},
		}
	}

	return &Client{
		hc:          hc,
		headers:     cfg.Headers,
		bufferSize:  cfg.BufferSize,
		channelSize: cfg.ChannelSize,
	}
}

// Connect opens the stream. It fails on non-200 responses and wrong content type.
func (c *Client) Connect(ctx context.Context, url string) (<-chan Frame, <-chan error, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("sse request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("sse connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("sse connect: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("sse connect: unexpected content type %q", ct)
	}

	c.mu.Lock()
	c.body = resp.Body
	c.connected = true
	c.mu.Unlock()

	frames := make(chan Frame, c.channelSize)
	errs := make(chan error, 1)
	go c.readLoop(ctx, resp, frames, errs)

	return frames, errs, nil
}

// readLoop scans the response body line by line and dispatches frames on the
// blank-line boundary. Comment lines (":") and unknown field names are ignored.
func (c *Client) readLoop(ctx context.Context, resp *http.Response, frames chan<- Frame, errs chan<- error) {
	defer close(frames)
	defer close(errs)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		_ = resp.Body.Close()
	}()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), c.bufferSize)

	var event string
	var data []string

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case line == "":
			if len(data) > 0 {
				f := Frame{Event: event, Data: strings.Join(data, "\n")}
				select {
				case frames <- f:
				case <-ctx.Done():
					return
				}
			}
			event = ""
			data = nil
		case strings.HasPrefix(line, ":"):
			// keep-alive / proxy-buster comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			d := strings.TrimPrefix(line, "data:")
			d = strings.TrimPrefix(d, " ")
			data = append(data, d)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}

	if err := scanner.Err(); err != nil {
		c.mu.Lock()
		closed := !c.connected
		c.mu.Unlock()
		// a local Close tears the body out from under the scanner; not an error
		if !closed {
			errs <- fmt.Errorf("sse read: %w", err)
		}
	}
}

// Close terminates the stream. The read loop exits before any further frame
// delivery once the body is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.body != nil {
		err := c.body.Close()
		c.body = nil
		return err
	}
	return nil
}

// IsConnected indicates whether the stream is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
