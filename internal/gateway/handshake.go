// ABOUTME: Handshake driver for a gateway session
// ABOUTME: Greeting starts the heartbeat and sends identify; READY captures identity

package gateway

import (
	"encoding/json"
	"time"
)

// handleHello starts the heartbeat at the greeting's interval and identifies.
// A greeting outside AwaitingGreeting, or one without a usable interval, is
// dropped. The returned error is a transport failure.
func (s *Session) handleHello(gen *generation, raw json.RawMessage) error {
	if !s.machine.state.CanTransition(StateIdentifying) {
		s.logger.Warn("ignoring unexpected hello", "state", s.machine.state)
		return nil
	}

	var hello Hello
	if err := json.Unmarshal(raw, &hello); err != nil {
		s.logger.Warn("dropping malformed hello", "error", err)
		return nil
	}
	if hello.HeartbeatInterval <= 0 {
		s.logger.Warn("dropping hello without heartbeat interval", "interval_ms", hello.HeartbeatInterval)
		return nil
	}

	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
	gen.heartbeat.Start(interval)
	s.logger.Debug("heartbeat started", "interval", interval)

	if err := gen.send(OpIdentify, Identify{
		Token:      s.token,
		Properties: s.cfg.Properties,
		Intents:    s.cfg.Intents,
	}); err != nil {
		return err
	}
	return s.machine.transition(StateIdentifying)
}

// handleReady completes the handshake and captures identity for this generation.
func (s *Session) handleReady(raw json.RawMessage) {
	if !s.machine.state.CanTransition(StateReady) {
		s.logger.Warn("ignoring unexpected ready", "state", s.machine.state)
		return
	}

	var ready Ready
	if err := json.Unmarshal(raw, &ready); err != nil {
		s.logger.Warn("dropping malformed ready", "error", err)
		return
	}
	if err := s.machine.transition(StateReady); err != nil {
		s.logger.Error("cannot enter ready", "error", err)
		return
	}

	user := ready.User
	s.identity = &user
	s.sessionID = ready.SessionID
	if user.Username != "" {
		s.label = user.Username
		s.refreshLogger()
	}
	s.logger.Info("logged in", "user_id", user.ID)
}
