// Package backoff computes reconnect delays for gateway sessions.
//
// The delay doubles with every consecutive failed attempt, starting at one
// second and capped at thirty seconds:
//
//	attempt 0 -> 1s
//	attempt 1 -> 2s
//	attempt 2 -> 4s
//	attempt 3 -> 8s
//	attempt 4 -> 16s
//	attempt 5+ -> 30s
//
// No jitter is applied. Callers own the attempt counter and reset it to zero
// after every successful socket open.
package backoff
