package stream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"SignalDeck/internal/domain/models"
	drepo "SignalDeck/internal/domain/repository"
	"SignalDeck/pkg/sse"
)

// Client implements an AnalysisStream backed by the engine's SSE endpoint.
// One instance owns exactly one connection; it is not reusable after Close.
type Client struct {
	baseURL string
	params  models.StreamParams
	sc      *sse.Client
}

// New creates an AnalysisStream for one subscription.
func New(baseURL string, params models.StreamParams, dialTimeout time.Duration) drepo.AnalysisStream {
	return &Client{
		baseURL: baseURL,
		params:  params,
		sc: sse.NewClient(
			sse.WithDialTimeout(dialTimeout),
		),
	}
}

// URL renders the subscription endpoint: scope as a path segment, market and
// top-K as optional query parameters.
func (c *Client) URL() string {
	u := fmt.Sprintf("%s/analysis/stream/%s", c.baseURL, url.PathEscape(c.params.SymbolScope))
	q := url.Values{}
	if c.params.Market != "" {
		q.Set("market", c.params.Market)
	}
	if c.params.TopK > 0 {
		q.Set("k", strconv.Itoa(c.params.TopK))
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Connect opens the stream and adapts SSE frames to RawFrames. The [DONE]
// sentinel closes the frame channel without an error; channel delivery ends
// there even if the server keeps writing.
func (c *Client) Connect(ctx context.Context) (<-chan models.RawFrame, <-chan error, error) {
	sseFrames, sseErrs, err := c.sc.Connect(ctx, c.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("analysis stream connect: %w", err)
	}

	frames := make(chan models.RawFrame, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-sseErrs:
				if !ok {
					sseErrs = nil
					continue
				}
				if err != nil {
					errs <- err
					return
				}
			case f, ok := <-sseFrames:
				if !ok {
					return
				}
				if f.Data == models.TerminationSentinel {
					_ = c.sc.Close()
					return
				}
				ch := f.Event
				if ch == "" {
					ch = models.ChannelProgress
				}
				select {
				case frames <- models.RawFrame{Channel: ch, Payload: f.Data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return frames, errs, nil
}

// Close closes the underlying SSE connection.
func (c *Client) Close() error {
	return c.sc.Close()
}

// IsConnected indicates transport status.
func (c *Client) IsConnected() bool {
	return c.sc.IsConnected()
}
