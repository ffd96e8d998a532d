// ABOUTME: Tests for the inbound frame router
// ABOUTME: Covers opcode routing, READY capture, message classification, and dispatch gating

package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/giveaway-watcher/internal/classify"
)

// newRoutedSession returns a session in the given state with a socketless
// generation. Handlers that write to the socket are not exercised here.
func newRoutedSession(t *testing.T, state State, disp Dispatcher, hooks Hooks) (*Session, *generation) {
	t.Helper()
	s := New(Params{
		Index:      3,
		Token:      testToken,
		Dispatcher: disp,
		Logger:     slog.New(slog.DiscardHandler),
		Hooks:      hooks,
	})
	s.machine.state = state

	ctx, cancel := context.WithCancel(context.Background())
	gen := &generation{id: "gen-test", ctx: ctx, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		gen.wg.Wait()
	})
	return s, gen
}

func frame(t *testing.T, op Opcode, eventType string, d any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"op": op, "t": eventType, "d": d})
	require.NoError(t, err)
	return data
}

func TestRoute_ControlOpcodes(t *testing.T) {
	s, gen := newRoutedSession(t, StateReady, nil, Hooks{})

	assert.ErrorIs(t, s.route(gen, frame(t, OpReconnect, "", nil)), ErrReconnectRequested)
	assert.ErrorIs(t, s.route(gen, frame(t, OpInvalidSession, "", false)), ErrInvalidSession)
	assert.NoError(t, s.route(gen, frame(t, Opcode(42), "", nil)), "unknown opcodes are ignored")
	assert.NoError(t, s.route(gen, []byte("{{{")), "malformed frames are dropped")
	assert.Equal(t, StateReady, s.machine.state)
}

func TestRoute_HeartbeatAck(t *testing.T) {
	s, gen := newRoutedSession(t, StateIdentifying, nil, Hooks{})
	sent := time.Now()
	gen.heartbeat.Sent(sent)

	require.NoError(t, s.route(gen, frame(t, OpHeartbeatAck, "", nil)))
	assert.False(t, gen.heartbeat.Stalled(sent.Add(time.Hour), time.Second))
}

func TestRoute_ServerHeartbeatBeforeHello(t *testing.T) {
	s, gen := newRoutedSession(t, StateAwaitingGreeting, nil, Hooks{})

	// No heartbeat is set up yet, so nothing is written to the (absent) socket.
	assert.NoError(t, s.route(gen, frame(t, OpHeartbeat, "", nil)))
	assert.False(t, gen.heartbeat.Running())
}

func TestRoute_HelloOutOfOrder(t *testing.T) {
	s, gen := newRoutedSession(t, StateReady, nil, Hooks{})

	require.NoError(t, s.route(gen, frame(t, OpHello, "", Hello{HeartbeatInterval: 41250})))
	assert.False(t, gen.heartbeat.Running())
	assert.Equal(t, StateReady, s.machine.state)
}

func TestRoute_HelloWithoutInterval(t *testing.T) {
	s, gen := newRoutedSession(t, StateAwaitingGreeting, nil, Hooks{})

	require.NoError(t, s.route(gen, frame(t, OpHello, "", Hello{})))
	assert.False(t, gen.heartbeat.Running())
	assert.Equal(t, StateAwaitingGreeting, s.machine.state)
}

func TestRoute_Ready(t *testing.T) {
	var transitions []State
	s, gen := newRoutedSession(t, StateIdentifying, nil, Hooks{
		OnTransition: func(_, to State) { transitions = append(transitions, to) },
	})
	assert.Equal(t, "Bot 3", s.Label())

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{
		User:      classify.User{ID: "42", Username: "alice"},
		SessionID: "sess-1",
	})))

	assert.Equal(t, StateReady, s.machine.state)
	assert.Equal(t, []State{StateReady}, transitions)
	require.NotNil(t, s.identity)
	assert.Equal(t, "42", s.identity.ID)
	assert.Equal(t, "sess-1", s.sessionID)
	assert.Equal(t, "alice", s.Label())
}

func TestRoute_ReadyWithoutUsernameKeepsLabel(t *testing.T) {
	s, gen := newRoutedSession(t, StateIdentifying, nil, Hooks{})

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{User: classify.User{ID: "42"}, SessionID: "s"})))
	assert.Equal(t, "Bot 3", s.Label())
}

func TestRoute_ReadyOutOfOrder(t *testing.T) {
	s, gen := newRoutedSession(t, StateAwaitingGreeting, nil, Hooks{})

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{User: alice, SessionID: "sess-1"})))
	assert.Equal(t, StateAwaitingGreeting, s.machine.state)
	assert.Nil(t, s.identity)
	assert.Empty(t, s.sessionID)
}

func TestRoute_MessageDispatchedWhenReady(t *testing.T) {
	disp := &fakeDispatcher{}
	s, gen := newRoutedSession(t, StateIdentifying, disp, Hooks{})
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{User: alice, SessionID: "sess-1"})))

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, giveawayMessage("m1"))))
	gen.wg.Wait()

	subs := disp.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "sess-1", subs[0].SessionID)
	assert.Equal(t, "42", subs[0].Account)
	assert.Equal(t, "m1", subs[0].Match.MessageID)
}

func TestRoute_MessageSkippedBeforeReady(t *testing.T) {
	disp := &fakeDispatcher{}
	s, gen := newRoutedSession(t, StateIdentifying, disp, Hooks{})

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, giveawayMessage("m1"))))
	gen.wg.Wait()
	assert.Empty(t, disp.submissions())
}

func TestRoute_MessageWithoutGiveaway(t *testing.T) {
	disp := &fakeDispatcher{}
	s, gen := newRoutedSession(t, StateIdentifying, disp, Hooks{})
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{User: alice, SessionID: "sess-1"})))

	msg := giveawayMessage("m1")
	msg.Content = "weekly update"
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, msg)))
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, nil)))
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, "garbage")))
	gen.wg.Wait()
	assert.Empty(t, disp.submissions())
}

func TestRoute_WinNeedsIdentity(t *testing.T) {
	var wins []classify.Win
	s, gen := newRoutedSession(t, StateIdentifying, nil, Hooks{
		OnWin: func(w classify.Win) { wins = append(wins, w) },
	})
	win := classify.Message{ID: "w1", ChannelID: "c", Content: "Congratulations, you won!", Mentions: []classify.User{alice}}

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, win)))
	assert.Empty(t, wins, "identity unknown before READY")

	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventReady, Ready{User: alice, SessionID: "sess-1"})))
	require.NoError(t, s.route(gen, frame(t, OpDispatch, EventMessageCreate, win)))
	require.Len(t, wins, 1)
	assert.Equal(t, "w1", wins[0].MessageID)
}
