// ABOUTME: Action dispatcher that presses matched giveaway buttons after a random delay
// ABOUTME: Guards against double presses and logs every outcome without retrying

package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/2389/giveaway-watcher/internal/classify"
	"github.com/2389/giveaway-watcher/internal/dedupe"
)

const (
	// DefaultMinDelay is the inclusive lower bound of the pre-press delay.
	DefaultMinDelay = 2 * time.Second
	// DefaultMaxDelay is the exclusive upper bound of the pre-press delay.
	DefaultMaxDelay = 10 * time.Second

	// nonceEpochMillis is the snowflake epoch used by the remote API (2015-01-01).
	nonceEpochMillis int64 = 1420070400000

	dedupeTTL     = 30 * time.Minute
	dedupeMaxSize = 10_000
)

// ErrDuplicate is returned when the account already pressed a button on the message.
var ErrDuplicate = errors.New("interaction already dispatched for message")

var setEpoch sync.Once

// Submitter sends a built interaction request.
type Submitter interface {
	Submit(ctx context.Context, token string, req Request) error
}

// Submission is one press requested by a gateway session.
type Submission struct {
	// Account identifies the account for duplicate suppression (its user id).
	Account   string
	Token     string
	SessionID string
	Match     classify.Match
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Submitter Submitter
	MinDelay  time.Duration
	MaxDelay  time.Duration
	// NodeID seeds nonce generation; any value in [0, 1023].
	NodeID int64
}

// Dispatcher presses buttons on behalf of sessions. It is safe for concurrent
// use by all sessions.
type Dispatcher struct {
	submitter Submitter
	minDelay  time.Duration
	maxDelay  time.Duration
	seen      *dedupe.Cache
	nonces    *snowflake.Node

	// randN returns a value in [0, n); replaced in tests.
	randN func(n int64) int64
}

// NewDispatcher creates a dispatcher. Zero delays fall back to the defaults.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Submitter == nil {
		return nil, errors.New("submitter is required")
	}
	minDelay, maxDelay := cfg.MinDelay, cfg.MaxDelay
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if maxDelay <= minDelay {
		return nil, fmt.Errorf("max delay %v must exceed min delay %v", maxDelay, minDelay)
	}

	setEpoch.Do(func() { snowflake.Epoch = nonceEpochMillis })
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("creating nonce generator: %w", err)
	}

	return &Dispatcher{
		submitter: cfg.Submitter,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		seen:      dedupe.New(dedupeTTL, dedupeMaxSize),
		nonces:    node,
		randN:     rand.Int64N,
	}, nil
}

// Jitter returns a delay uniformly distributed in [minDelay, maxDelay) at
// millisecond granularity.
func (d *Dispatcher) Jitter() time.Duration {
	span := int64((d.maxDelay - d.minDelay) / time.Millisecond)
	if span <= 0 {
		return d.minDelay
	}
	return d.minDelay + time.Duration(d.randN(span))*time.Millisecond
}

// Dispatch waits a random delay and then submits the press described by sub.
// It blocks until the submission completes or ctx is cancelled. Failures are
// logged here and also returned; callers are not expected to retry.
func (d *Dispatcher) Dispatch(ctx context.Context, logger *slog.Logger, sub Submission) error {
	key := dedupe.Key(sub.Account, sub.Match.MessageID)
	if !d.seen.Claim(key) {
		logger.Debug("skipping already handled giveaway", "message_id", sub.Match.MessageID)
		return ErrDuplicate
	}

	delay := d.Jitter()
	logger.Info("waiting before pressing button",
		"delay", delay,
		"button", sub.Match.Button.Display(),
		"channel_id", sub.Match.ChannelID,
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		// The press never happened; let a later replay of the message try again.
		d.seen.Release(key)
		logger.Debug("button press cancelled", "message_id", sub.Match.MessageID)
		return ctx.Err()
	case <-timer.C:
	}

	req := NewRequest(sub.Match, sub.SessionID, d.nonces.Generate().String())
	logger.Info("pressing button", "message_id", req.MessageID, "custom_id", req.Data.CustomID)

	err := d.submitter.Submit(ctx, sub.Token, req)
	if err == nil {
		logger.Info("joined giveaway", "channel_id", req.ChannelID, "message_id", req.MessageID)
		return nil
	}

	var rejectedErr *RejectedError
	if errors.As(err, &rejectedErr) {
		logger.Error("interaction rejected",
			"status", rejectedErr.Status,
			"body", rejectedErr.Body,
			"message_id", req.MessageID,
		)
	} else {
		logger.Error("interaction failed", "error", err, "message_id", req.MessageID)
	}
	return err
}
