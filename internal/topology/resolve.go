package topology

import (
	"log/slog"
	"strings"

	"sdnview/internal/domain"
)

// MatchTier records how strongly a name resolved to a port
type MatchTier string

const (
	TierNone      MatchTier = "none"
	TierExact     MatchTier = "exact"
	TierPeer      MatchTier = "peer"
	TierSubstring MatchTier = "substring"
)

// peerMarker is the naming convention for the switch side of a host veth
const peerMarker = "peer"

// Resolution is the outcome of resolving a host name token to a port
type Resolution struct {
	Ref        domain.PortRef
	PortName   string
	Tier       MatchTier
	Candidates int // matches in the winning tier
}

// Found reports whether a port was resolved
func (r Resolution) Found() bool {
	return r.Tier != TierNone
}

// Resolver maps host name tokens to attachment points via the port index
type Resolver struct {
	index *PortIndex
	// PreferPeer makes the substring tier consider ports containing the
	// peer marker before all other substring matches
	PreferPeer bool
}

// NewResolver creates a resolver over the given index
func NewResolver(index *PortIndex) *Resolver {
	return &Resolver{index: index}
}

// PeerVariants returns the peer-marked spellings of a name token
func PeerVariants(token string) []string {
	return []string{
		peerMarker + "_" + token,
		peerMarker + "-" + token,
		peerMarker + token,
		token + "_" + peerMarker,
		token + "-" + peerMarker,
	}
}

// Resolve tries, in order: exact name, peer variants, substring containment.
// Within a tier the first port in index order wins.
func (r *Resolver) Resolve(token string) Resolution {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Resolution{Tier: TierNone}
	}

	if ref, ok := r.index.Lookup(token); ok {
		return Resolution{Ref: ref, PortName: token, Tier: TierExact, Candidates: 1}
	}

	for _, variant := range PeerVariants(token) {
		if ref, ok := r.index.Lookup(variant); ok {
			return Resolution{Ref: ref, PortName: variant, Tier: TierPeer, Candidates: 1}
		}
	}

	var matches, peerMatches []IndexEntry
	for _, e := range r.index.Entries() {
		if !strings.Contains(e.Name, token) {
			continue
		}
		matches = append(matches, e)
		if strings.Contains(e.Name, peerMarker) {
			peerMatches = append(peerMatches, e)
		}
	}

	pool := matches
	if r.PreferPeer && len(peerMatches) > 0 {
		pool = peerMatches
	}
	if len(pool) == 0 {
		return Resolution{Tier: TierNone}
	}

	winner := pool[0]
	slog.Warn("resolved host by substring match",
		"token", token, "port", winner.Name, "ref", winner.Ref.String(), "candidates", len(pool))

	return Resolution{Ref: winner.Ref, PortName: winner.Name, Tier: TierSubstring, Candidates: len(pool)}
}
