// Package repository defines the persistence interfaces for sdnview.
//
// Two things outlive a process: the router IdentityMap with its counter
// (see identity.Store), and the history of reconciliation passes. The
// sqlite subpackage implements both.
//
// # SQLite Implementation
//
// The sqlite implementation uses modernc.org/sqlite in WAL mode. It handles:
//
// - Router labels unique by datapath and by label
// - The router counter, advanced in the same transaction as the label
// - Reconcile run summaries, newest first
//
// # Schema Migration
//
// The schema is created on startup if it does not exist. Rows are never
// deleted: labels are not purged, and run history is append-only.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
