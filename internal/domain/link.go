package domain

import (
	"crypto/sha256"
	"fmt"
)

// LinkKind distinguishes how an edge of the observed model was obtained
type LinkKind string

const (
	// LinkKindPhysical - reported by link discovery
	LinkKindPhysical LinkKind = "physical"
	// LinkKindAttachment - derived from a host's attachment point
	LinkKindAttachment LinkKind = "attachment"
	// LinkKindOverlay - synthetic tunnel relationship between routers
	LinkKindOverlay LinkKind = "overlay"
)

// EndpointKind tells whether a link endpoint is a datapath or a host
type EndpointKind string

const (
	EndpointDatapath EndpointKind = "datapath"
	EndpointHost     EndpointKind = "host"
)

// Endpoint is one side of a link
type Endpoint struct {
	Kind EndpointKind `json:"kind"`
	ID   string       `json:"id"`
}

// DatapathEndpoint returns an endpoint for a datapath identifier
func DatapathEndpoint(id string) Endpoint {
	return Endpoint{Kind: EndpointDatapath, ID: id}
}

// HostEndpoint returns an endpoint for a host identity
func HostEndpoint(id string) Endpoint {
	return Endpoint{Kind: EndpointHost, ID: id}
}

// key is unique across endpoint kinds
func (e Endpoint) key() string {
	return string(e.Kind) + "/" + e.ID
}

// Link is an edge of the observed topology
type Link struct {
	ID       string   `json:"id"`
	From     Endpoint `json:"from"`
	To       Endpoint `json:"to"`
	FromPort int      `json:"from_port"`
	ToPort   int      `json:"to_port"`
	Kind     LinkKind `json:"kind"`
}

// NewLink creates a link with a deterministic ID
func NewLink(from Endpoint, fromPort int, to Endpoint, toPort int, kind LinkKind) Link {
	link := Link{
		From:     from,
		To:       to,
		FromPort: fromPort,
		ToPort:   toPort,
		Kind:     kind,
	}
	link.ID = link.GenerateID()
	return link
}

// GenerateID hashes the unordered endpoints, their ports and the kind
func (l Link) GenerateID() string {
	a := fmt.Sprintf("%s#%d", l.From.key(), l.FromPort)
	b := fmt.Sprintf("%s#%d", l.To.key(), l.ToPort)
	if a > b {
		a, b = b, a
	}

	key := fmt.Sprintf("%s-%s-%s", a, b, l.Kind)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Connects reports whether the link joins x and y in either direction
func (l Link) Connects(x, y Endpoint) bool {
	return (l.From == x && l.To == y) || (l.From == y && l.To == x)
}
