// Package presencetest provides a recording core.Display for tests.
package presencetest

import (
	"context"
	"sync"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// Call is one recorded display call.
type Call struct {
	Clear    bool
	Activity core.Activity
}

// Recorder records every call made to it. Err, when set, is returned from
// SetActivity and ClearActivity after the call is recorded.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	closed bool
	Err    error
}

// SetActivity records a.
func (r *Recorder) SetActivity(ctx context.Context, a core.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Activity: a})
	return r.Err
}

// ClearActivity records a clear.
func (r *Recorder) ClearActivity(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Clear: true})
	return r.Err
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Last returns the most recent call, if any.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

var _ core.Display = (*Recorder)(nil)
