// ABOUTME: Orchestrator launching staggered, independent gateway sessions
// ABOUTME: Tracks per-session state and win counts for readiness and shutdown reporting

package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/giveaway-watcher/internal/classify"
	"github.com/2389/giveaway-watcher/internal/gateway"
)

const (
	// DefaultStartDelay is the wait before the first session starts.
	DefaultStartDelay = 3 * time.Second
	// DefaultStagger is the gap between consecutive session starts.
	DefaultStagger = 2 * time.Second
)

// Runner is a started session.
type Runner interface {
	Run(ctx context.Context) error
	Label() string
}

// Config configures an Orchestrator.
type Config struct {
	StartDelay time.Duration
	Stagger    time.Duration

	// Gateway and Dispatcher are passed to every session.
	Gateway    gateway.Config
	Dispatcher gateway.Dispatcher

	// NewSession builds a session; defaults to gateway.New.
	NewSession func(gateway.Params) Runner
}

// Orchestrator owns the set of sessions for one process.
type Orchestrator struct {
	cfg    Config
	tokens []string
	logger *slog.Logger

	mu     sync.Mutex
	states []gateway.State
	wins   atomic.Int64

	wg sync.WaitGroup
}

// New creates an orchestrator for the given tokens, in order.
func New(cfg Config, tokens []string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NewSession == nil {
		cfg.NewSession = func(p gateway.Params) Runner { return gateway.New(p) }
	}
	return &Orchestrator{
		cfg:    cfg,
		tokens: tokens,
		logger: logger.With("component", "orchestrator"),
		states: make([]gateway.State, len(tokens)),
	}
}

// Run starts the sessions and blocks until ctx is canceled and every
// session has returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("starting sessions", "count", len(o.tokens), "start_delay", o.cfg.StartDelay, "stagger", o.cfg.Stagger)

	if sleep(ctx, o.cfg.StartDelay) {
		for i, token := range o.tokens {
			if i > 0 && !sleep(ctx, o.cfg.Stagger) {
				break
			}
			o.start(ctx, i, token)
		}
	}

	<-ctx.Done()
	o.wg.Wait()
	o.logger.Info("all sessions stopped", "wins", o.wins.Load())
	return nil
}

func (o *Orchestrator) start(ctx context.Context, i int, token string) {
	session := o.cfg.NewSession(gateway.Params{
		Index:      i + 1,
		Token:      token,
		Config:     o.cfg.Gateway,
		Dispatcher: o.cfg.Dispatcher,
		Logger:     o.logger.With("component", "session"),
		Hooks: gateway.Hooks{
			OnTransition: func(_, to gateway.State) { o.setState(i, to) },
			OnWin:        func(classify.Win) { o.wins.Add(1) },
		},
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := session.Run(ctx); err != nil {
			o.logger.Error("session exited", "session", session.Label(), "error", err)
		}
		o.setState(i, gateway.StateDisconnected)
	}()
}

func (o *Orchestrator) setState(i int, s gateway.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[i] = s
}

// Status reports how many sessions are logged in out of the configured total.
func (o *Orchestrator) Status() (ready, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.states {
		if s == gateway.StateReady {
			ready++
		}
	}
	return ready, len(o.states)
}

// Wins returns how many wins all sessions have observed.
func (o *Orchestrator) Wins() int64 {
	return o.wins.Load()
}

// sleep waits for d, returning false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
