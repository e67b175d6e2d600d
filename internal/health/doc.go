// Package health holds the liveness and readiness probes served on the
// ops listener.
//
// A Probe returns nil when healthy. Probes compose with All and Any.
// Readiness in the server is All(content loaded flag, shutdown gate):
// the flag goes up once the content root passed its startup check and
// the gate goes down when SIGTERM starts the drain.
package health
