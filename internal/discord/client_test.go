package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musiccat/musiccat-rpc/internal/core"
	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
)

type frame struct {
	op   opcode
	body []byte
}

// fakeDiscord answers the IPC protocol on in-memory pipes.
type fakeDiscord struct {
	t      *testing.T
	frames chan frame
	dials  atomic.Int32

	mu       sync.Mutex
	reject   bool
	ping     bool
	hangup   bool
	silent   bool
	dialErrs int
}

func newFakeDiscord(t *testing.T) *fakeDiscord {
	return &fakeDiscord{t: t, frames: make(chan frame, 64)}
}

func (f *fakeDiscord) dial(ctx context.Context) (net.Conn, error) {
	f.mu.Lock()
	if f.dialErrs > 0 {
		f.dialErrs--
		f.mu.Unlock()
		return nil, errors.New("connect: no such file or directory")
	}
	f.mu.Unlock()

	f.dials.Add(1)
	client, server := net.Pipe()
	go f.serve(server)
	f.t.Cleanup(func() { _ = client.Close() })
	return client, nil
}

func (f *fakeDiscord) set(fn func(f *fakeDiscord)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeDiscord) serve(conn net.Conn) {
	defer conn.Close()
	for {
		op, body, err := readFrame(conn)
		if err != nil {
			return
		}
		f.frames <- frame{op: op, body: body}

		f.mu.Lock()
		reject, ping, hangup, silent := f.reject, f.ping, f.hangup, f.silent
		f.mu.Unlock()

		switch op {
		case opHandshake:
			_ = writeFrame(conn, opFrame, map[string]any{
				"cmd": "DISPATCH", "evt": "READY", "data": map[string]any{"v": 1},
			})
		case opFrame:
			if hangup {
				return
			}
			if silent {
				continue
			}
			var cmd command
			_ = json.Unmarshal(body, &cmd)
			if ping {
				_ = writeFrame(conn, opPing, map[string]any{"n": 1})
				pop, pbody, err := readFrame(conn)
				if err != nil {
					return
				}
				f.frames <- frame{op: pop, body: pbody}
			}
			if reject {
				_ = writeFrame(conn, opFrame, map[string]any{
					"cmd": cmd.Cmd, "evt": "ERROR", "nonce": cmd.Nonce,
					"data": map[string]any{"code": 4000, "message": "child \"activity\" fails"},
				})
				continue
			}
			_ = writeFrame(conn, opFrame, map[string]any{
				"cmd": cmd.Cmd, "nonce": cmd.Nonce, "data": map[string]any{},
			})
		case opClose:
			return
		}
	}
}

func (f *fakeDiscord) next(t *testing.T) frame {
	t.Helper()
	select {
	case fr := <-f.frames:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return frame{}
	}
}

type sentCommand struct {
	Cmd   string `json:"cmd"`
	Nonce string `json:"nonce"`
	Args  struct {
		PID      int             `json:"pid"`
		Activity json.RawMessage `json:"activity"`
	} `json:"args"`
}

func decodeCommand(t *testing.T, fr frame) sentCommand {
	t.Helper()
	require.Equal(t, opFrame, fr.op)
	var cmd sentCommand
	require.NoError(t, json.Unmarshal(fr.body, &cmd))
	return cmd
}

func testActivity() core.Activity {
	start := time.UnixMilli(1_700_000_000_000).UTC()
	end := start.Add(200 * time.Second)
	return core.Activity{
		Details:    "Song A",
		DetailsURL: "https://example.com/a",
		State:      "Artist A",
		Start:      &start,
		End:        &end,
		LargeImage: "https://example.com/a.jpg",
		SmallImage: "youtube",
		SmallText:  "youtube",
	}
}

func TestClientSetActivity(t *testing.T) {
	fake := newFakeDiscord(t)
	c := NewClient("123", WithDialer(fake.dial), WithPID(42))

	require.NoError(t, c.SetActivity(context.Background(), testActivity()))
	assert.True(t, c.Connected())

	hs := fake.next(t)
	require.Equal(t, opHandshake, hs.op)
	assert.JSONEq(t, `{"v":1,"client_id":"123"}`, string(hs.body))

	cmd := decodeCommand(t, fake.next(t))
	assert.Equal(t, "SET_ACTIVITY", cmd.Cmd)
	assert.NotEmpty(t, cmd.Nonce)
	assert.Equal(t, 42, cmd.Args.PID)
	assert.JSONEq(t, `{
		"type": 2,
		"status_display_type": 2,
		"details": "Song A",
		"details_url": "https://example.com/a",
		"state": "Artist A",
		"timestamps": {"start": 1700000000000, "end": 1700000200000},
		"assets": {
			"large_image": "https://example.com/a.jpg",
			"small_image": "youtube",
			"small_text": "youtube"
		}
	}`, string(cmd.Args.Activity))

	// second call reuses the connection
	require.NoError(t, c.SetActivity(context.Background(), testActivity()))
	second := decodeCommand(t, fake.next(t))
	assert.NotEqual(t, cmd.Nonce, second.Nonce)
	assert.Equal(t, int32(1), fake.dials.Load())
}

func TestClientSetActivityStream(t *testing.T) {
	fake := newFakeDiscord(t)
	c := NewClient("123", WithDialer(fake.dial))

	a := testActivity()
	a.Start, a.End = nil, nil
	require.NoError(t, c.SetActivity(context.Background(), a))

	fake.next(t)
	cmd := decodeCommand(t, fake.next(t))
	assert.NotContains(t, string(cmd.Args.Activity), "timestamps")
}

func TestClientClearActivity(t *testing.T) {
	fake := newFakeDiscord(t)
	c := NewClient("123", WithDialer(fake.dial))

	require.NoError(t, c.ClearActivity(context.Background()))

	fake.next(t)
	cmd := decodeCommand(t, fake.next(t))
	assert.Equal(t, "null", string(cmd.Args.Activity))
}

func TestClientDiscordNotRunning(t *testing.T) {
	fake := newFakeDiscord(t)
	fake.set(func(f *fakeDiscord) { f.dialErrs = 1 })

	var states []bool
	c := NewClient("123", WithDialer(fake.dial), WithStateFunc(func(v bool) { states = append(states, v) }))

	err := c.SetActivity(context.Background(), testActivity())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDiscordNotRunning)
	assert.False(t, c.Connected())

	// next call retries the connection
	require.NoError(t, c.SetActivity(context.Background(), testActivity()))
	assert.True(t, c.Connected())
	assert.Equal(t, []bool{true}, states)
}

func TestClientRejected(t *testing.T) {
	fake := newFakeDiscord(t)
	fake.set(func(f *fakeDiscord) { f.reject = true })
	c := NewClient("123", WithDialer(fake.dial))

	err := c.SetActivity(context.Background(), testActivity())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDiscordRejected)
	assert.Contains(t, err.Error(), "code 4000")
	assert.True(t, c.Connected(), "an ERROR response keeps the socket open")
}

func TestClientReconnectsAfterHangup(t *testing.T) {
	fake := newFakeDiscord(t)
	fake.set(func(f *fakeDiscord) { f.hangup = true })
	c := NewClient("123", WithDialer(fake.dial), WithIOTimeout(time.Second))

	require.Error(t, c.SetActivity(context.Background(), testActivity()))
	assert.False(t, c.Connected())

	fake.set(func(f *fakeDiscord) { f.hangup = false })
	require.NoError(t, c.SetActivity(context.Background(), testActivity()))
	assert.True(t, c.Connected())
	assert.Equal(t, int32(2), fake.dials.Load())
}

func TestClientAnswersPing(t *testing.T) {
	fake := newFakeDiscord(t)
	fake.set(func(f *fakeDiscord) { f.ping = true })
	c := NewClient("123", WithDialer(fake.dial))

	require.NoError(t, c.SetActivity(context.Background(), testActivity()))

	fake.next(t) // handshake
	fake.next(t) // command
	pong := fake.next(t)
	assert.Equal(t, opPong, pong.op)
	assert.JSONEq(t, `{"n":1}`, string(pong.body))
}

func TestClientHonoursDeadline(t *testing.T) {
	fake := newFakeDiscord(t)
	fake.set(func(f *fakeDiscord) { f.silent = true })
	c := NewClient("123", WithDialer(fake.dial))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.SetActivity(ctx, testActivity())
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
		assert.False(t, c.Connected())
	case <-time.After(2 * time.Second):
		t.Fatal("SetActivity did not honour the context deadline")
	}
}

func TestClientClose(t *testing.T) {
	fake := newFakeDiscord(t)
	c := NewClient("123", WithDialer(fake.dial))

	assert.NoError(t, c.Close(), "closing an unused client is a no-op")

	require.NoError(t, c.ClearActivity(context.Background()))
	fake.next(t)
	fake.next(t)

	require.NoError(t, c.Close())
	assert.Equal(t, opClose, fake.next(t).op)
	assert.False(t, c.Connected())
}

func TestFitText(t *testing.T) {
	long := strings.Repeat("a", 200)

	tests := []struct {
		name     string
		in       string
		fallback string
		want     string
	}{
		{"empty uses fallback", "", "Unknown title", "Unknown title"},
		{"empty without fallback", "", "", ""},
		{"single rune padded", "x", "", "x" + padding},
		{"normal", "Song", "", "Song"},
		{"clipped", long, "", strings.Repeat("a", 125) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitText(tt.in, tt.fallback); got != tt.want {
				t.Errorf("fitText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFitURL(t *testing.T) {
	ok := "https://example.com/" + strings.Repeat("x", 10)
	if got := fitURL(ok); got != ok {
		t.Errorf("fitURL() = %q, want %q", got, ok)
	}
	if got := fitURL("https://example.com/" + strings.Repeat("x", 300)); got != "" {
		t.Errorf("fitURL() = %q, want empty", got)
	}
}

func TestNewActivityPlaceholders(t *testing.T) {
	a := newActivity(core.Activity{})
	if a.Details != unknownTitle {
		t.Errorf("Details = %q, want %q", a.Details, unknownTitle)
	}
	if a.State != unknownArtist {
		t.Errorf("State = %q, want %q", a.State, unknownArtist)
	}
	if a.Assets != nil {
		t.Errorf("Assets = %+v, want nil", a.Assets)
	}
	if a.Timestamps != nil {
		t.Errorf("Timestamps = %+v, want nil", a.Timestamps)
	}
}
