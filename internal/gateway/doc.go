// Package gateway maintains one account's session against the real-time
// event gateway.
//
// # Overview
//
// A Session owns exactly one websocket at a time. Each socket is a
// "generation": the heartbeat ticker, the reader goroutine, pending button
// presses, the session id and the account identity all belong to it and are
// released before the next generation is dialled.
//
// # State Machine
//
//	Disconnected --dial--> Connecting --open--> AwaitingGreeting
//	AwaitingGreeting --hello: start heartbeat, identify--> Identifying
//	Identifying --READY--> Ready
//	any socket state --close/error--> Disconnected --backoff--> Reconnecting --> Connecting
//
// Transitions outside this table fail with ErrIllegalTransition, so an
// identify can never be sent before a greeting.
//
// # Frames
//
// Frames are JSON objects {op, d, t, s}:
//
//   - op 10 hello: {"heartbeat_interval": ms}
//   - op 1 heartbeat: sent by the client with d = null
//   - op 11 heartbeat ack
//   - op 2 identify: {token, properties: {os, browser, device}, intents}
//   - op 0 dispatch: t = READY or MESSAGE_CREATE
//   - op 7 reconnect / op 9 invalid session: the socket is closed and redialled
//
// Malformed frames are logged and dropped without changing state.
//
// # Reconnecting
//
// Every close or error is followed by a backoff wait (see package backoff).
// The attempt counter resets when a socket opens. Close code 4004 can end the
// session instead when Config.StopOnAuthFailure is set.
package gateway
