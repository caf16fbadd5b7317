package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/musiccat/musiccat-rpc/internal/metrics"
)

// DefaultReconnectTimeout is both the idle read deadline and the delay
// before reconnecting after the connection drops.
const DefaultReconnectTimeout = 30 * time.Second

const writeWait = 5 * time.Second

// State is the connection state of the feed.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// StateFunc is called on every connection state change. err is set when a
// connection attempt or an established connection failed.
type StateFunc func(state State, err error)

// Client maintains the websocket connection to the status feed and forwards
// every received frame, in order, to a channel.
type Client struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	log     *slog.Logger
	metrics *metrics.Metrics
	onState StateFunc
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithReconnectTimeout sets the idle timeout and reconnect delay.
func WithReconnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClientMetrics sets the metrics sink.
func WithClientMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithStateFunc sets the connection state callback.
func WithStateFunc(fn StateFunc) ClientOption {
	return func(c *Client) {
		c.onState = fn
	}
}

// NewClient creates a feed client for the given ws:// or wss:// URL.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:     url,
		timeout: DefaultReconnectTimeout,
		log:     slog.Default(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultReconnectTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the feed URL.
func (c *Client) URL() string {
	return c.url
}

// Run connects to the feed and keeps reconnecting, with a fixed delay, until
// ctx is cancelled. Frames are sent to frames one at a time; Run blocks while
// the consumer is busy. Run only returns ctx.Err().
func (c *Client) Run(ctx context.Context, frames chan<- []byte) error {
	for {
		err := c.session(ctx, frames)
		if ctx.Err() != nil {
			c.notify(StateDisconnected, nil)
			return ctx.Err()
		}

		c.notify(StateDisconnected, err)
		c.log.Warn("feed disconnected", "url", c.url, "error", err, "retry_in", c.timeout)

		timer := time.NewTimer(c.timeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails or ctx is cancelled.
func (c *Client) session(ctx context.Context, frames chan<- []byte) error {
	c.notify(StateConnecting, nil)

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Closing the connection is the only way to interrupt a blocked read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})

	c.metrics.SetFeedConnected(true)
	defer c.metrics.SetFeedConnected(false)
	c.notify(StateConnected, nil)
	c.log.Info("feed connected", "url", c.url)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("no data for %s: %w", c.timeout, err)
			}
			return err
		}
		c.metrics.IncFeedFrames()

		select {
		case frames <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) notify(state State, err error) {
	if c.onState != nil {
		c.onState(state, err)
	}
}
