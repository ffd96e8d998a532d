// Package health serves the liveness endpoints hosting platforms probe.
//
// Routes:
//
//	GET /              200 "Giveaway watcher is active"
//	GET /health        200 "OK"
//	GET /health/ready  200 when at least one session is logged in, else 503
package health
