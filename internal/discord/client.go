// Package discord talks to a locally running Discord client over its IPC
// socket and implements core.Display.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/musiccat/musiccat-rpc/internal/core"
	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
)

// DefaultAppID is the MusicCat application registered with Discord.
const DefaultAppID = "1275296537991319553"

const (
	defaultIOTimeout = 10 * time.Second
	maxSkippedFrames = 16
)

// DialFunc opens a raw connection to the Discord IPC endpoint.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Client is a Discord rich presence client. The connection is opened lazily
// on the first call and reopened on the next call after any failure.
// Calls are serialized.
type Client struct {
	appID     string
	pid       int
	dial      DialFunc
	ioTimeout time.Duration
	log       *slog.Logger
	onState   func(connected bool)

	mu        sync.Mutex
	conn      net.Conn
	connected atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the platform socket discovery.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPID overrides the process id sent with activity updates.
func WithPID(pid int) Option {
	return func(c *Client) {
		c.pid = pid
	}
}

// WithIOTimeout bounds each request when the caller's context has no deadline.
func WithIOTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ioTimeout = d
		}
	}
}

// WithStateFunc registers a callback for connection state transitions.
func WithStateFunc(fn func(connected bool)) Option {
	return func(c *Client) {
		c.onState = fn
	}
}

// NewClient creates a client for the given application id.
func NewClient(appID string, opts ...Option) *Client {
	c := &Client{
		appID:     appID,
		pid:       os.Getpid(),
		dial:      dialIPC,
		ioTimeout: defaultIOTimeout,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether the last call left an open, handshaken socket.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// SetActivity replaces the user's activity.
func (c *Client) SetActivity(ctx context.Context, a core.Activity) error {
	return c.setActivity(ctx, newActivity(a))
}

// ClearActivity removes the user's activity.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.setActivity(ctx, nil)
}

// Close tells Discord the session is over and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.ioTimeout))
	werr := writeFrame(c.conn, opClose, handshake{V: rpcVersion, ClientID: c.appID})
	cerr := c.conn.Close()
	c.conn = nil
	c.setConnected(false)

	if werr != nil && !errors.Is(werr, net.ErrClosed) {
		return werr
	}
	return cerr
}

func (c *Client) setActivity(ctx context.Context, act *activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	cmd := command{
		Cmd:   "SET_ACTIVITY",
		Args:  activityArgs{PID: c.pid, Activity: act},
		Nonce: uuid.NewString(),
	}

	resp, err := c.roundTrip(ctx, cmd)
	if err != nil {
		c.drop(err)
		return err
	}

	if resp.Evt == "ERROR" {
		var data errorData
		_ = json.Unmarshal(resp.Data, &data)
		return fmt.Errorf("%w: %s", apperrors.ErrDiscordRejected, data)
	}
	return nil
}

// ensureConnected dials and handshakes when no socket is open.
// Callers must hold c.mu.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.setConnected(false)
		return fmt.Errorf("%w: %v", apperrors.ErrDiscordNotRunning, err)
	}
	c.conn = conn

	if err := c.handshake(ctx); err != nil {
		c.drop(err)
		return err
	}

	c.setConnected(true)
	c.log.Info("connected to discord", "app_id", c.appID)
	return nil
}

func (c *Client) handshake(ctx context.Context) error {
	stop := c.bind(ctx)
	defer stop()

	if err := writeFrame(c.conn, opHandshake, handshake{V: rpcVersion, ClientID: c.appID}); err != nil {
		return fmt.Errorf("discord handshake: %w", err)
	}

	resp, err := c.readResponse(func(r response) bool { return r.Evt == "READY" || r.Evt == "ERROR" })
	if err != nil {
		return fmt.Errorf("discord handshake: %w", err)
	}
	if resp.Evt != "READY" {
		var data errorData
		_ = json.Unmarshal(resp.Data, &data)
		return fmt.Errorf("%w: %s", apperrors.ErrDiscordRejected, data)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cmd command) (response, error) {
	stop := c.bind(ctx)
	defer stop()

	if err := writeFrame(c.conn, opFrame, cmd); err != nil {
		return response{}, err
	}
	return c.readResponse(func(r response) bool { return r.Nonce == cmd.Nonce })
}

// readResponse reads frames until match accepts one. Pings are answered,
// unrelated dispatches are skipped.
func (c *Client) readResponse(match func(response) bool) (response, error) {
	for range maxSkippedFrames {
		op, body, err := readFrame(c.conn)
		if err != nil {
			return response{}, err
		}

		switch op {
		case opFrame:
			var r response
			if err := json.Unmarshal(body, &r); err != nil {
				return response{}, fmt.Errorf("decode discord frame: %w", err)
			}
			if match(r) {
				return r, nil
			}
			c.log.Debug("skipping discord frame", "cmd", r.Cmd, "evt", r.Evt)
		case opPing:
			if len(body) == 0 {
				body = []byte("{}")
			}
			if err := writeFrame(c.conn, opPong, json.RawMessage(body)); err != nil {
				return response{}, err
			}
		case opClose:
			var data errorData
			_ = json.Unmarshal(body, &data)
			return response{}, fmt.Errorf("%w: connection closed: %s", apperrors.ErrDiscordRejected, data)
		default:
			c.log.Debug("ignoring discord frame", "opcode", op.String())
		}
	}
	return response{}, errors.New("no matching response from discord")
}

// bind applies the context deadline (or the default timeout) to the socket
// and aborts blocked I/O when ctx is cancelled.
func (c *Client) bind(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.ioTimeout)
	}
	conn := c.conn
	_ = conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}

// drop closes a broken socket so the next call reconnects.
// Callers must hold c.mu.
func (c *Client) drop(err error) {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.log.Warn("discord connection lost", "error", err)
	c.setConnected(false)
}

func (c *Client) setConnected(v bool) {
	if c.connected.Swap(v) != v && c.onState != nil {
		c.onState(v)
	}
}

var _ core.Display = (*Client)(nil)
