// Package handler implements the HTTP API of the topology daemon.
//
// Reads serve the latest observed snapshot and its derived views:
// the raw snapshot, a vis-network graph and exports (JSON, JGF, YAML).
// Writes trigger an observe pass, run a reconciliation against a posted or
// the loaded desired state, or retract a single pair on the controller.
//
// Errors are returned as JSON with an {error, details} body and an
// appropriate status code. Middleware provides panic recovery and request
// logging.
package handler
