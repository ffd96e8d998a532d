// ABOUTME: Gateway wire protocol frames and opcodes
// ABOUTME: JSON frames {op, d, t, s} exchanged over the persistent websocket

package gateway

import (
	"encoding/json"

	"github.com/2389/giveaway-watcher/internal/classify"
)

// Opcode identifies the kind of a gateway frame.
type Opcode int

const (
	OpDispatch       Opcode = 0
	OpHeartbeat      Opcode = 1
	OpIdentify       Opcode = 2
	OpReconnect      Opcode = 7
	OpInvalidSession Opcode = 9
	OpHello          Opcode = 10
	OpHeartbeatAck   Opcode = 11
)

// Dispatch event types consumed by the session.
const (
	EventReady         = "READY"
	EventMessageCreate = "MESSAGE_CREATE"
)

// CloseAuthenticationFailed is the close code sent for a rejected token.
const CloseAuthenticationFailed = 4004

// Frame is an inbound gateway frame. D is decoded lazily per opcode.
type Frame struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
}

// outbound is a frame sent by the client.
type outbound struct {
	Op Opcode `json:"op"`
	D  any    `json:"d"`
}

// Hello is the greeting payload carrying the heartbeat interval in milliseconds.
type Hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// Identify is the identify request payload.
type Identify struct {
	Token      string             `json:"token"`
	Properties IdentifyProperties `json:"properties"`
	Intents    int                `json:"intents"`
}

// IdentifyProperties describe the connecting client.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Ready is the READY dispatch payload.
type Ready struct {
	User      classify.User `json:"user"`
	SessionID string        `json:"session_id"`
}
