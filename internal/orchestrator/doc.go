// Package orchestrator starts one gateway session per credential.
//
// After an initial delay, sessions are started one at a time with a fixed
// stagger between them. Each runs on its own goroutine and owns its own
// recovery; the orchestrator never restarts a session that exits. It does
// observe session state so the liveness server can report readiness.
package orchestrator
