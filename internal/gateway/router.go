// ABOUTME: Dispatch router for inbound gateway frames
// ABOUTME: Routes by opcode and event type; malformed frames are logged and dropped

package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/2389/giveaway-watcher/internal/classify"
	"github.com/2389/giveaway-watcher/internal/interaction"
)

// route handles one inbound frame. It returns an error only when the socket
// must be abandoned; nothing a frame contains can panic past this point.
func (s *Session) route(gen *generation, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dropping frame after handler panic", "panic", fmt.Sprint(r))
			err = nil
		}
	}()

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Warn("dropping malformed frame", "error", err, "bytes", len(data))
		return nil
	}

	switch frame.Op {
	case OpHello:
		return s.handleHello(gen, frame.D)
	case OpHeartbeatAck:
		gen.heartbeat.Acked(time.Now())
	case OpHeartbeat:
		// Server-requested heartbeat; only honoured once the greeting set one up.
		if gen.heartbeat.Running() {
			return s.sendHeartbeat(gen, time.Now())
		}
	case OpReconnect:
		return ErrReconnectRequested
	case OpInvalidSession:
		return ErrInvalidSession
	case OpDispatch:
		s.handleDispatch(gen, frame.T, frame.D)
	default:
		s.logger.Debug("ignoring frame", "op", int(frame.Op))
	}
	return nil
}

func (s *Session) handleDispatch(gen *generation, eventType string, raw json.RawMessage) {
	switch eventType {
	case EventReady:
		s.handleReady(raw)
	case EventMessageCreate:
		s.handleMessage(gen, raw)
	}
}

// handleMessage runs both classifiers and hands giveaway matches to the
// dispatcher on a goroutine owned by the current generation.
func (s *Session) handleMessage(gen *generation, raw json.RawMessage) {
	var msg classify.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Warn("dropping malformed message", "error", err)
		return
	}

	if s.identity != nil {
		if win, ok := classify.DetectWin(&msg, s.identity.ID); ok {
			s.logger.Info("won a giveaway", "event", "win", "channel_id", win.ChannelID, "content", win.Content)
			if s.hooks.OnWin != nil {
				s.hooks.OnWin(win)
			}
		}
	}

	match, ok := classify.DetectGiveaway(&msg)
	if !ok {
		return
	}
	s.logger.Info("giveaway detected", "channel_id", match.ChannelID, "button", match.Button.Display())

	if s.machine.state != StateReady || s.dispatcher == nil {
		s.logger.Debug("not ready, skipping giveaway", "state", s.machine.state)
		return
	}

	sub := interaction.Submission{
		Account:   s.identity.ID,
		Token:     s.token,
		SessionID: s.sessionID,
		Match:     match,
	}
	dispatcher, logger := s.dispatcher, s.logger
	gen.wg.Add(1)
	go func() {
		defer gen.wg.Done()
		_ = dispatcher.Dispatch(gen.ctx, logger, sub)
	}()
}
