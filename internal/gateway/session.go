// ABOUTME: Gateway session owning one account's socket, heartbeat, and reconnect loop
// ABOUTME: Each session runs in its own goroutine and shares no mutable state

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/2389/giveaway-watcher/internal/backoff"
	"github.com/2389/giveaway-watcher/internal/classify"
	"github.com/2389/giveaway-watcher/internal/interaction"
)

const (
	// DefaultURL is the gateway endpoint (protocol v9, JSON encoding).
	DefaultURL = "wss://gateway.discord.gg/?v=9&encoding=json"
	// DefaultIntents subscribes to guild and direct messages plus message content.
	DefaultIntents = 33280

	writeTimeout = 10 * time.Second
)

var (
	// ErrAuthenticationFailed means the gateway rejected the credential.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrHeartbeatTimeout means a heartbeat went unacknowledged past the configured timeout.
	ErrHeartbeatTimeout = errors.New("heartbeat not acknowledged")
	// ErrReconnectRequested means the gateway asked the client to reconnect.
	ErrReconnectRequested = errors.New("gateway requested reconnect")
	// ErrInvalidSession means the gateway invalidated the session.
	ErrInvalidSession = errors.New("gateway invalidated session")
)

// DefaultProperties are the identify properties sent when none are configured.
var DefaultProperties = IdentifyProperties{OS: "windows", Browser: "chrome", Device: "pc"}

// Config holds the gateway settings shared by all sessions.
type Config struct {
	URL        string
	Properties IdentifyProperties
	Intents    int

	// HeartbeatAckTimeout closes the socket when a heartbeat stays
	// unacknowledged longer than this. Zero disables the check.
	HeartbeatAckTimeout time.Duration

	// StopOnAuthFailure ends the session on close code 4004 instead of reconnecting.
	StopOnAuthFailure bool

	// Backoff computes the reconnect delay; defaults to backoff.Delay.
	Backoff func(attempt int) time.Duration

	// Dialer opens sockets; defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Properties == (IdentifyProperties{}) {
		c.Properties = DefaultProperties
	}
	if c.Intents == 0 {
		c.Intents = DefaultIntents
	}
	if c.Backoff == nil {
		c.Backoff = backoff.Delay
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	return c
}

// Dispatcher presses matched giveaway buttons. Implementations must be safe
// for concurrent use by many sessions.
type Dispatcher interface {
	Dispatch(ctx context.Context, logger *slog.Logger, sub interaction.Submission) error
}

// Hooks are optional observers called on the session goroutine.
type Hooks struct {
	OnTransition func(from, to State)
	OnWin        func(win classify.Win)
}

// Params configures a new Session.
type Params struct {
	// Index is the 1-based position of the credential, used for the initial label.
	Index      int
	Token      string
	Config     Config
	Dispatcher Dispatcher
	Logger     *slog.Logger
	Hooks      Hooks
}

// Session is one account's connection to the gateway. All fields are owned by
// the goroutine running Run.
type Session struct {
	cfg        Config
	token      string
	dispatcher Dispatcher
	hooks      Hooks

	base   *slog.Logger
	logger *slog.Logger
	label  string

	machine machine
	attempt int

	// Scoped to the current socket generation.
	gen       *generation
	identity  *classify.User
	sessionID string
}

// New creates a session in the Disconnected state.
func New(p Params) *Session {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		cfg:        p.Config.withDefaults(),
		token:      p.Token,
		dispatcher: p.Dispatcher,
		hooks:      p.Hooks,
		base:       logger,
		label:      fmt.Sprintf("Bot %d", p.Index),
	}
	s.machine.observer = p.Hooks.OnTransition
	s.refreshLogger()
	return s
}

// Label returns the session's human-readable name.
func (s *Session) Label() string {
	return s.label
}

// Run connects and keeps reconnecting until ctx is cancelled. It returns nil
// on cancellation, or an error when the session cannot continue.
func (s *Session) Run(ctx context.Context) error {
	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			s.logger.Info("session stopped")
			return nil
		}
		switch {
		case errors.Is(err, ErrIllegalTransition):
			s.logger.Error("session state corrupted", "error", err)
			return err
		case errors.Is(err, ErrAuthenticationFailed) && s.cfg.StopOnAuthFailure:
			s.logger.Error("credential rejected, not reconnecting", "error", err)
			return err
		}

		s.logger.Warn("connection closed", "error", err)
		if !s.waitReconnect(ctx) {
			s.logger.Info("session stopped")
			return nil
		}
	}
}

// waitReconnect sleeps for the backoff delay. It returns false if ctx ended first.
func (s *Session) waitReconnect(ctx context.Context) bool {
	if err := s.machine.transition(StateReconnecting); err != nil {
		s.logger.Error("cannot enter reconnect wait", "error", err)
		return false
	}
	delay := s.cfg.Backoff(s.attempt)
	s.attempt++
	s.logger.Info("reconnecting", "delay", delay, "attempt", s.attempt)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// connect opens one socket generation and serves it until it ends. Every
// generation resource is released before connect returns.
func (s *Session) connect(ctx context.Context) error {
	if err := s.machine.transition(StateConnecting); err != nil {
		return err
	}
	s.logger.Info("connecting to gateway")

	conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		if terr := s.machine.transition(StateDisconnected); terr != nil {
			return terr
		}
		return fmt.Errorf("dialing gateway: %w", err)
	}

	gen := newGeneration(ctx, conn)
	s.gen = gen
	s.attempt = 0
	s.refreshLogger()
	defer s.teardown(gen)

	if err := s.machine.transition(StateAwaitingGreeting); err != nil {
		return err
	}
	s.logger.Info("gateway connection opened")

	gen.wg.Add(1)
	go gen.readLoop()

	return s.serve(gen)
}

// serve processes frames in arrival order and fires heartbeats until the
// socket fails, a handler asks to reconnect, or ctx ends.
func (s *Session) serve(gen *generation) error {
	for {
		select {
		case <-gen.ctx.Done():
			return gen.ctx.Err()
		case err := <-gen.readErr:
			return closeError(err)
		case data := <-gen.frames:
			if err := s.route(gen, data); err != nil {
				return err
			}
		case now := <-gen.heartbeat.C():
			if gen.heartbeat.Stalled(now, s.cfg.HeartbeatAckTimeout) {
				return ErrHeartbeatTimeout
			}
			if err := s.sendHeartbeat(gen, now); err != nil {
				return err
			}
		}
	}
}

func (s *Session) sendHeartbeat(gen *generation, now time.Time) error {
	if err := gen.send(OpHeartbeat, nil); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	gen.heartbeat.Sent(now)
	return nil
}

// teardown stops the heartbeat, cancels pending dispatches, closes the socket,
// waits for the generation's goroutines and clears generation-scoped state.
func (s *Session) teardown(gen *generation) {
	gen.heartbeat.Stop()
	gen.cancel()
	_ = gen.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = gen.conn.Close()
	gen.wg.Wait()

	s.gen = nil
	s.identity = nil
	s.sessionID = ""
	if err := s.machine.transition(StateDisconnected); err != nil {
		s.logger.Error("cannot mark session disconnected", "error", err)
	}
	s.refreshLogger()
}

// refreshLogger rebuilds the logger after the label or generation changes.
func (s *Session) refreshLogger() {
	logger := s.base.With("session", s.label)
	if s.gen != nil {
		logger = logger.With("generation", s.gen.id)
	}
	s.logger = logger
}

// closeError classifies a socket read failure.
func closeError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == CloseAuthenticationFailed {
			return fmt.Errorf("%w: %s", ErrAuthenticationFailed, ce.Text)
		}
		return fmt.Errorf("gateway closed connection: %w", err)
	}
	return fmt.Errorf("reading from gateway: %w", err)
}

// generation is one socket and everything scoped to it.
type generation struct {
	id        string
	conn      *websocket.Conn
	ctx       context.Context
	cancel    context.CancelFunc
	heartbeat heartbeat

	frames  chan []byte
	readErr chan error

	// wg tracks the reader and in-flight dispatches.
	wg sync.WaitGroup
}

func newGeneration(parent context.Context, conn *websocket.Conn) *generation {
	ctx, cancel := context.WithCancel(parent)
	return &generation{
		id:      uuid.NewString(),
		conn:    conn,
		ctx:     ctx,
		cancel:  cancel,
		frames:  make(chan []byte),
		readErr: make(chan error, 1),
	}
}

// readLoop hands frames to the session goroutine one at a time, preserving order.
func (g *generation) readLoop() {
	defer g.wg.Done()
	for {
		_, data, err := g.conn.ReadMessage()
		if err != nil {
			g.readErr <- err
			return
		}
		select {
		case g.frames <- data:
		case <-g.ctx.Done():
			return
		}
	}
}

// send writes a frame. Only the session goroutine writes, so no lock is needed.
func (g *generation) send(op Opcode, d any) error {
	_ = g.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return g.conn.WriteJSON(outbound{Op: op, D: d})
}
