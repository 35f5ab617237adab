package domain

import (
	"fmt"
	"strings"
)

// NodeGroup is the visual group of a graph node
type NodeGroup string

const (
	NodeGroupRouter NodeGroup = "router"
	NodeGroupSwitch NodeGroup = "switch"
	NodeGroupHost   NodeGroup = "host"
)

// Graph is the derived view for vis-network visualization
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode represents a node in the visualization
type GraphNode struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Group NodeGroup `json:"group"`
	Title string    `json:"title"` // Tooltip content
}

// GraphEdge represents an edge in the visualization
type GraphEdge struct {
	ID    string   `json:"id"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	Label string   `json:"label"`
	Kind  LinkKind `json:"kind"`
}

// NodeID returns the graph node ID of an endpoint
func NodeID(e Endpoint) string {
	if e.Kind == EndpointHost {
		return "host:" + strings.TrimPrefix(e.ID, "host:")
	}
	return "dp:" + e.ID
}

// DeriveGraph converts a Snapshot to a vis-network compatible Graph
func DeriveGraph(snap *Snapshot) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, len(snap.Datapaths)+len(snap.Hosts)),
		Edges: make([]GraphEdge, 0, len(snap.Links)),
	}

	for _, dp := range snap.Datapaths {
		group := NodeGroupSwitch
		if snap.IsRouter(dp.ID) {
			group = NodeGroupRouter
		}
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    NodeID(DatapathEndpoint(dp.ID)),
			Label: snap.DisplayLabel(dp.ID),
			Group: group,
			Title: fmt.Sprintf("%s\ndpid %s\n%d ports", group, dp.ID, len(dp.Ports)),
		})
	}

	// placeholders keep every edge endpoint resolvable
	for _, id := range snap.MissingDatapaths() {
		group := NodeGroupSwitch
		if snap.IsRouter(id) {
			group = NodeGroupRouter
		}
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    NodeID(DatapathEndpoint(id)),
			Label: snap.DisplayLabel(id),
			Group: group,
			Title: fmt.Sprintf("%s\ndpid %s\nnot in inventory", group, id),
		})
	}

	for _, host := range snap.Hosts {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    NodeID(HostEndpoint(host.ID)),
			Label: host.Name,
			Group: NodeGroupHost,
			Title: buildTooltip(host),
		})
	}

	for _, link := range snap.Links {
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:    link.ID,
			From:  NodeID(link.From),
			To:    NodeID(link.To),
			Label: edgeLabel(link),
			Kind:  link.Kind,
		})
	}

	return graph
}

func buildTooltip(host Host) string {
	tooltip := fmt.Sprintf("%s\n%s\n%s", host.Name, host.IP, host.Attachment)
	if host.MAC != "" {
		tooltip += "\n" + host.MAC
	}
	if host.Reachable != nil && !*host.Reachable {
		tooltip += "\nunreachable"
	}
	return tooltip
}

func edgeLabel(link Link) string {
	switch link.Kind {
	case LinkKindOverlay:
		return "overlay"
	case LinkKindAttachment:
		return fmt.Sprintf("port %d", link.FromPort)
	}
	return fmt.Sprintf("%d-%d", link.FromPort, link.ToPort)
}
