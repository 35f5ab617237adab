// Package domain defines the core types of the sdnview topology engine.
//
// This package holds the entities reported by the SDN controller and the
// values derived from them on every poll.
//
// # Inventory
//
// Datapath and Port describe the forwarding elements and their interfaces
// as reported by the switch inventory. PortRef identifies a single port by
// datapath and port index and doubles as a host attachment point.
//
// # Hosts
//
// HostRecord is a raw entry from one of the two host feeds (discovery or the
// static host map). Host is a merged, resolved endpoint that is safe to
// render and to reconcile against.
//
// # Links and Graph
//
// Link is an edge of the observed model, tagged physical, attachment or
// overlay. Snapshot bundles everything one poll produced and Graph is the
// derived view consumed by the visualization.
//
// # Identities and Policy
//
// RouterLabel is the persisted display label of a router datapath.
// Registration and Pair mirror the controller's host registrations and
// communication policy.
//
// # Design Principles
//
// - Snapshots are immutable once built
// - No database or network dependencies
// - Deterministic ordering for everything that reaches the user
package domain
