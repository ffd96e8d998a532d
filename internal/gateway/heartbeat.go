// ABOUTME: Per-socket heartbeat scheduler
// ABOUTME: Ticks at the server-supplied interval and tracks acknowledgements

package gateway

import "time"

// heartbeat owns the heartbeat ticker of one socket generation. A nil ticker
// means no heartbeat is scheduled and C returns a nil channel, which blocks
// forever in a select.
type heartbeat struct {
	interval time.Duration
	ticker   *time.Ticker

	// pendingSince is when the oldest unacknowledged heartbeat was sent.
	pendingSince time.Time
	lastAck      time.Time
	awaitingAck  bool
}

// Start cancels any running ticker and schedules a new one at interval.
func (h *heartbeat) Start(interval time.Duration) {
	h.Stop()
	h.interval = interval
	h.ticker = time.NewTicker(interval)
}

// Stop cancels the ticker. It is safe to call repeatedly.
func (h *heartbeat) Stop() {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
	h.awaitingAck = false
}

// Running reports whether a ticker is scheduled.
func (h *heartbeat) Running() bool {
	return h.ticker != nil
}

// C returns the tick channel, or nil when stopped.
func (h *heartbeat) C() <-chan time.Time {
	if h.ticker == nil {
		return nil
	}
	return h.ticker.C
}

// Sent records that a heartbeat went out at now.
func (h *heartbeat) Sent(now time.Time) {
	if !h.awaitingAck {
		h.pendingSince = now
		h.awaitingAck = true
	}
}

// Acked records an acknowledgement received at now.
func (h *heartbeat) Acked(now time.Time) {
	h.lastAck = now
	h.awaitingAck = false
}

// Stalled reports whether a heartbeat has gone unacknowledged for longer
// than timeout. A zero timeout disables the check.
func (h *heartbeat) Stalled(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 || !h.awaitingAck {
		return false
	}
	return now.Sub(h.pendingSince) > timeout
}
