// ABOUTME: Tests for the session orchestrator
// ABOUTME: Covers staggered starts, independence of failing sessions, and status tracking

package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/giveaway-watcher/internal/classify"
	"github.com/2389/giveaway-watcher/internal/gateway"
)

type fakeSession struct {
	params  gateway.Params
	started time.Time
	fail    error
}

func (f *fakeSession) Label() string { return "fake" }

func (f *fakeSession) Run(ctx context.Context) error {
	if f.fail != nil {
		return f.fail
	}
	if h := f.params.Hooks.OnTransition; h != nil {
		h(gateway.StateIdentifying, gateway.StateReady)
	}
	if h := f.params.Hooks.OnWin; h != nil {
		h(classify.Win{ChannelID: "c"})
	}
	<-ctx.Done()
	return nil
}

type factory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	failIdx  map[int]error
}

func (f *factory) build(p gateway.Params) Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSession{params: p, started: time.Now(), fail: f.failIdx[p.Index]}
	f.sessions = append(f.sessions, s)
	return s
}

func (f *factory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *factory) snapshot() []*fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSession(nil), f.sessions...)
}

func runOrchestrator(t *testing.T, o *Orchestrator) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestRun_StartsSessionsInOrderWithStagger(t *testing.T) {
	f := &factory{}
	o := New(Config{
		StartDelay: 20 * time.Millisecond,
		Stagger:    30 * time.Millisecond,
		Gateway:    gateway.Config{URL: "ws://gateway.test"},
		NewSession: f.build,
	}, []string{"token-one-111", "token-two-222", "token-three-3"}, slog.New(slog.DiscardHandler))

	begin := time.Now()
	cancel, done := runOrchestrator(t, o)

	require.Eventually(t, func() bool { return f.count() == 3 }, 5*time.Second, 5*time.Millisecond)
	sessions := f.snapshot()
	for i, s := range sessions {
		assert.Equal(t, i+1, s.params.Index)
		assert.Equal(t, "ws://gateway.test", s.params.Config.URL)
	}
	assert.Equal(t, "token-one-111", sessions[0].params.Token)
	assert.Equal(t, "token-three-3", sessions[2].params.Token)

	assert.GreaterOrEqual(t, sessions[0].started.Sub(begin), 20*time.Millisecond)
	assert.GreaterOrEqual(t, sessions[1].started.Sub(sessions[0].started), 30*time.Millisecond)
	assert.GreaterOrEqual(t, sessions[2].started.Sub(sessions[1].started), 30*time.Millisecond)

	require.Eventually(t, func() bool {
		ready, total := o.Status()
		return ready == 3 && total == 3
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(3), o.Wins())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
	ready, _ := o.Status()
	assert.Zero(t, ready, "stopped sessions are no longer ready")
}

func TestRun_FailedSessionDoesNotAffectOthers(t *testing.T) {
	f := &factory{failIdx: map[int]error{1: errors.New("credential rejected")}}
	o := New(Config{NewSession: f.build}, []string{"token-one-111", "token-two-222"}, slog.New(slog.DiscardHandler))

	_, _ = runOrchestrator(t, o)

	require.Eventually(t, func() bool {
		ready, total := o.Status()
		return ready == 1 && total == 2
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.count(), "failed sessions are not restarted")
}

func TestRun_CancelDuringStartDelay(t *testing.T) {
	f := &factory{}
	o := New(Config{StartDelay: time.Hour, NewSession: f.build}, []string{"token-one-111"}, slog.New(slog.DiscardHandler))

	cancel, done := runOrchestrator(t, o)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
	assert.Zero(t, f.count())
}

func TestStatus_NoTokens(t *testing.T) {
	o := New(Config{}, nil, nil)
	ready, total := o.Status()
	assert.Zero(t, ready)
	assert.Zero(t, total)
}
