package topology

import (
	"slices"

	"sdnview/internal/domain"
)

// SynthesizeLinks produces the edge set of the observed graph:
//   - one physical edge per discovered link, deduplicated irrespective of
//     direction since the controller reports each link once per direction
//   - one attachment edge per host, datapath side carrying the port index
//   - an overlay chain over the routers present in the inventory, skipping
//     consecutive pairs a physical edge already connects
func SynthesizeLinks(physical []domain.PhysicalLink, hosts []domain.Host, routers RouterSet, present map[string]struct{}) []domain.Link {
	links := make([]domain.Link, 0, len(physical)+len(hosts)+len(routers))
	seen := make(map[string]struct{})

	for _, pl := range physical {
		if pl.Src.IsZero() || pl.Dst.IsZero() {
			continue
		}
		a, b := pl.Src, pl.Dst
		if domain.ComparePortRefs(a, b) > 0 {
			a, b = b, a
		}
		link := domain.NewLink(
			domain.DatapathEndpoint(a.DatapathID), a.Port,
			domain.DatapathEndpoint(b.DatapathID), b.Port,
			domain.LinkKindPhysical,
		)
		if _, dup := seen[link.ID]; dup {
			continue
		}
		seen[link.ID] = struct{}{}
		links = append(links, link)
	}
	slices.SortFunc(links, comparePhysical)
	physicalCount := len(links)

	for _, h := range hosts {
		links = append(links, domain.NewLink(
			domain.DatapathEndpoint(h.Attachment.DatapathID), h.Attachment.Port,
			domain.HostEndpoint(h.ID), domain.PortNotApplicable,
			domain.LinkKindAttachment,
		))
	}

	chain := make([]string, 0, len(routers))
	for _, r := range routers {
		if present == nil {
			chain = append(chain, r)
			continue
		}
		if _, ok := present[r]; ok {
			chain = append(chain, r)
		}
	}

	for i := 0; i+1 < len(chain); i++ {
		x := domain.DatapathEndpoint(chain[i])
		y := domain.DatapathEndpoint(chain[i+1])
		if connected(links[:physicalCount], x, y) {
			continue
		}
		links = append(links, domain.NewLink(x, domain.PortNotApplicable, y, domain.PortNotApplicable, domain.LinkKindOverlay))
	}

	return links
}

func connected(links []domain.Link, x, y domain.Endpoint) bool {
	for _, l := range links {
		if l.Connects(x, y) {
			return true
		}
	}
	return false
}

func comparePhysical(a, b domain.Link) int {
	ra := domain.PortRef{DatapathID: a.From.ID, Port: a.FromPort}
	rb := domain.PortRef{DatapathID: b.From.ID, Port: b.FromPort}
	if c := domain.ComparePortRefs(ra, rb); c != 0 {
		return c
	}
	return domain.ComparePortRefs(
		domain.PortRef{DatapathID: a.To.ID, Port: a.ToPort},
		domain.PortRef{DatapathID: b.To.ID, Port: b.ToPort},
	)
}
