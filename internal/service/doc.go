// Package service implements the topology and reconciliation workflows of
// sdnview.
//
// TopologyService coordinates the controller client, the snapshot builder,
// the identity assigner and the reconciliation engine.
//
// # Passes
//
// An observe pass reads the controller inventories, builds an immutable
// snapshot and publishes it. A reconcile pass drives the controller toward
// the desired state. Both run under one pass mutex so that no two passes
// ever interleave writes to the IdentityMap.
//
// # Event System
//
// The service publishes events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE): topology updates, new
// router labels, completed reconciliations and desired-state reloads.
package service
