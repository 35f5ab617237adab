// Package topology builds the observed model of the network from the
// controller's partial feeds.
//
// The pipeline runs synchronously in a fixed dependency order:
//
//  1. PortIndex - name and reference lookups over the switch inventory
//  2. ClassifyRouters - router versus switch, per datapath
//  3. Classifier - infrastructure ports and ghost host records
//  4. MergeHosts - union of the discovery feed and the static host map
//  5. identity.Assigner - stable router labels, inferred switch labels
//  6. SynthesizeLinks - physical, attachment and overlay edges
//
// Builder wires the steps together and returns an immutable
// domain.Snapshot. Nothing in this package performs I/O.
//
// # Ordering
//
// Every scan that can end in "first match wins" iterates the port index in
// one documented total order: datapath identifier (domain.CompareDatapathIDs),
// then port index. Identical inputs therefore always yield identical output.
package topology
