package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"sdnview/internal/domain"
)

// JGFMIMEType is the registered media type of JSON Graph Format
const JGFMIMEType = "application/vnd.jgf+json"

// JSON Graph Format structures, graphs only (no hypergraphs).
// http://jsongraphformat.info/
type jgfDocument struct {
	Graph jgfGraph `json:"graph"`
}

type jgfGraph struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Label    string       `json:"label,omitempty"`
	Directed bool         `json:"directed"`
	Nodes    []jgfNode    `json:"nodes"`
	Edges    []jgfEdge    `json:"edges"`
	Metadata jgfGraphMeta `json:"metadata"`
}

type jgfNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type jgfEdge struct {
	ID       string         `json:"id,omitempty"`
	Source   string         `json:"source"`
	Relation string         `json:"relation,omitempty"`
	Target   string         `json:"target"`
	Directed bool           `json:"directed,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type jgfGraphMeta struct {
	TakenAt     string   `json:"taken_at"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// JGFCodec exports the snapshot as a JSON Graph Format document
type JGFCodec struct{}

// NewJGFCodec creates a new JGF codec
func NewJGFCodec() *JGFCodec {
	return &JGFCodec{}
}

// Format returns the codec format identifier
func (c *JGFCodec) Format() string {
	return "jgf"
}

// ContentType returns the MIME type of the output
func (c *JGFCodec) ContentType() string {
	return JGFMIMEType
}

// Export writes datapaths and hosts as nodes and every link as an
// undirected edge. Node IDs match the graph view.
func (c *JGFCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	doc := jgfDocument{Graph: toJGF(snap)}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JGF: %w", err)
	}
	return nil
}

func toJGF(snap *domain.Snapshot) jgfGraph {
	g := jgfGraph{
		ID:    snap.ID,
		Type:  "sdn-topology",
		Label: "observed topology",
		Nodes: make([]jgfNode, 0, len(snap.Datapaths)+len(snap.Hosts)),
		Edges: make([]jgfEdge, 0, len(snap.Links)),
		Metadata: jgfGraphMeta{
			TakenAt:     snap.TakenAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Unavailable: snap.Unavailable,
		},
	}

	for _, dp := range snap.Datapaths {
		role := domain.NodeGroupSwitch
		if snap.IsRouter(dp.ID) {
			role = domain.NodeGroupRouter
		}
		g.Nodes = append(g.Nodes, jgfNode{
			ID:    domain.NodeID(domain.DatapathEndpoint(dp.ID)),
			Label: snap.DisplayLabel(dp.ID),
			Metadata: map[string]any{
				"role":  string(role),
				"dpid":  dp.ID,
				"ports": len(dp.Ports),
			},
		})
	}

	for _, id := range snap.MissingDatapaths() {
		role := domain.NodeGroupSwitch
		if snap.IsRouter(id) {
			role = domain.NodeGroupRouter
		}
		g.Nodes = append(g.Nodes, jgfNode{
			ID:    domain.NodeID(domain.DatapathEndpoint(id)),
			Label: snap.DisplayLabel(id),
			Metadata: map[string]any{
				"role":        string(role),
				"dpid":        id,
				"placeholder": true,
			},
		})
	}

	for _, h := range snap.Hosts {
		meta := map[string]any{
			"role":       string(domain.NodeGroupHost),
			"source":     string(h.Source),
			"attachment": h.Attachment.String(),
		}
		if h.IP != "" {
			meta["ip"] = h.IP
		}
		if h.MAC != "" {
			meta["mac"] = h.MAC
		}
		if h.Reachable != nil {
			meta["reachable"] = *h.Reachable
		}
		g.Nodes = append(g.Nodes, jgfNode{
			ID:       domain.NodeID(domain.HostEndpoint(h.ID)),
			Label:    h.Name,
			Metadata: meta,
		})
	}

	for _, l := range snap.Links {
		meta := map[string]any{"kind": string(l.Kind)}
		if l.FromPort != domain.PortNotApplicable {
			meta["source_port"] = l.FromPort
		}
		if l.ToPort != domain.PortNotApplicable {
			meta["target_port"] = l.ToPort
		}
		g.Edges = append(g.Edges, jgfEdge{
			ID:       l.ID,
			Source:   domain.NodeID(l.From),
			Relation: string(l.Kind),
			Target:   domain.NodeID(l.To),
			Metadata: meta,
		})
	}

	return g
}
