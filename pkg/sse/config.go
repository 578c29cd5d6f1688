package sse

import (
	"net/http"
	"time"
)

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SSE client configuration.
type ClientConfig struct {
	HTTPClient  *http.Client
	DialTimeout time.Duration
	Headers     map[string]string
	BufferSize  int // max accepted frame size in bytes
	ChannelSize int // delivery channel capacity
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = hc
	}
}

// WithDialTimeout sets the connect timeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.DialTimeout = d
		}
	}
}

// WithHeader adds a request header sent on connect.
func WithHeader(key, value string) ClientOption {
	return func(c *ClientConfig) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// WithBufferSize sets the maximum accepted frame size in bytes.
func WithBufferSize(n int) ClientOption {
	return func(c *ClientConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithChannelSize sets the frame delivery channel capacity.
func WithChannelSize(n int) ClientOption {
	return func(c *ClientConfig) {
		if n > 0 {
			c.ChannelSize = n
		}
	}
}
