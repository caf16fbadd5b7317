package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientForwardsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frameA))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frameB))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var mu sync.Mutex
	var states []State
	c := NewClient(wsURL(srv), WithStateFunc(func(s State, err error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, frames) }()

	assert.JSONEq(t, frameA, string(<-frames))
	assert.JSONEq(t, frameB, string(<-frames))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, StateConnecting, states[0])
	assert.Equal(t, StateConnected, states[1])
	assert.Equal(t, StateDisconnected, states[len(states)-1])
}

func TestClientReconnects(t *testing.T) {
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connections.Add(1)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frameA))
		// Drop the connection right away.
		_ = conn.Close()
	}))
	defer srv.Close()

	var disconnects atomic.Int32
	c := NewClient(wsURL(srv),
		WithReconnectTimeout(20*time.Millisecond),
		WithStateFunc(func(s State, err error) {
			if s == StateDisconnected && err != nil {
				disconnects.Add(1)
			}
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := make(chan []byte, 16)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, frames) }()

	for i := 0; i < 3; i++ {
		select {
		case <-frames:
		case <-ctx.Done():
			t.Fatalf("received %d frames before timeout", i)
		}
	}
	cancel()
	<-done

	assert.GreaterOrEqual(t, connections.Load(), int32(3))
	assert.GreaterOrEqual(t, disconnects.Load(), int32(2))
}

func TestClientIdleTimeoutForcesReconnect(t *testing.T) {
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		connections.Add(1)
		// Never send anything.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := NewClient(wsURL(srv), WithReconnectTimeout(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chan []byte)) }()

	assert.Eventually(t, func() bool { return connections.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestClientDialFailureRetries(t *testing.T) {
	var attempts atomic.Int32
	c := NewClient("ws://127.0.0.1:1/none",
		WithReconnectTimeout(10*time.Millisecond),
		WithStateFunc(func(s State, err error) {
			if s == StateConnecting {
				attempts.Add(1)
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chan []byte)) }()

	assert.Eventually(t, func() bool { return attempts.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
